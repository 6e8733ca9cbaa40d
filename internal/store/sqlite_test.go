package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(st.Close)
	return st
}

func TestSQLiteEnsureRoomMerge(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	if err := st.EnsureRoom(ctx, "general", "General Chat"); err != nil {
		t.Fatal(err)
	}
	if err := st.RenameRoom(ctx, "general", "The Commons"); err != nil {
		t.Fatal(err)
	}

	// Re-ensuring with a different default must not touch the stored name.
	if err := st.EnsureRoom(ctx, "general", "Some Default"); err != nil {
		t.Fatal(err)
	}
	room, err := st.GetRoom(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	if room == nil || room.Name != "The Commons" {
		t.Fatalf("ensure clobbered the name: %+v", room)
	}
}

// The locked flag is carried through reads but never gates a write: a
// locked room renames, re-ensures, and lists exactly like any other.
func TestSQLiteLockedFlagIsInert(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	if err := st.EnsureRoom(ctx, "general", "General Chat"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.db.ExecContext(ctx, `UPDATE rooms SET locked = 1 WHERE id = ?`, "general"); err != nil {
		t.Fatal(err)
	}

	if err := st.RenameRoom(ctx, "general", "Still Writable"); err != nil {
		t.Fatalf("rename refused on locked room: %v", err)
	}
	if err := st.EnsureRoom(ctx, "general", "Default"); err != nil {
		t.Fatalf("ensure refused on locked room: %v", err)
	}

	room, err := st.GetRoom(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	if room == nil || !room.Locked || room.Name != "Still Writable" {
		t.Fatalf("locked room after writes: %+v", room)
	}

	rooms, err := st.ListRooms(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].ID != "general" {
		t.Fatalf("locked room dropped from listing: %+v", rooms)
	}
}

func TestSQLiteGetRoomAbsent(t *testing.T) {
	st := newTestSQLite(t)

	room, err := st.GetRoom(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if room != nil {
		t.Fatalf("absent room returned %+v", room)
	}
}

func TestSQLiteListRoomsRecency(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	if err := st.EnsureRoom(ctx, "old", "Old"); err != nil {
		t.Fatal(err)
	}
	// The recency column is second-resolution; force distinct values.
	time.Sleep(1100 * time.Millisecond)
	if err := st.EnsureRoom(ctx, "new", "New"); err != nil {
		t.Fatal(err)
	}

	rooms, err := st.ListRooms(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms", len(rooms))
	}
	if rooms[0].ID != "new" {
		t.Fatalf("head = %q, want most recent first", rooms[0].ID)
	}

	time.Sleep(1100 * time.Millisecond)
	if err := st.TouchRoom(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	rooms, err = st.ListRooms(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rooms[0].ID != "old" {
		t.Fatalf("head after touch = %q, want touched room", rooms[0].ID)
	}
}

func TestSQLitePrincipalRoundTrip(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	created, err := st.CreatePrincipal(ctx, "pubkey-base64")
	if err != nil {
		t.Fatal(err)
	}

	byKey, err := st.GetPrincipalByPublicKey(ctx, "pubkey-base64")
	if err != nil {
		t.Fatal(err)
	}
	if byKey == nil || byKey.ID != created.ID {
		t.Fatalf("lookup by key mismatch: %+v", byKey)
	}

	byID, err := st.GetPrincipal(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byID == nil || byID.PublicKey != "pubkey-base64" {
		t.Fatalf("lookup by id mismatch: %+v", byID)
	}

	absent, err := st.GetPrincipalByPublicKey(ctx, "never-registered")
	if err != nil {
		t.Fatal(err)
	}
	if absent != nil {
		t.Fatalf("absent key returned %+v", absent)
	}
}

func TestSQLiteDuplicatePublicKeyRejected(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	if _, err := st.CreatePrincipal(ctx, "same-key"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreatePrincipal(ctx, "same-key"); err == nil {
		t.Fatal("duplicate public key accepted")
	}
}
