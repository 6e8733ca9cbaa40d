package directory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/store"
)

func newWatchDirectory(t *testing.T) *Directory {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(newMemStore(), store.NewRedisStoreFromClient(client), zerolog.Nop())
}

func waitList(t *testing.T, w *ListWatch) []models.Room {
	t.Helper()
	select {
	case list, ok := <-w.Lists():
		if !ok {
			t.Fatal("list stream closed")
		}
		return list
	case err := <-w.Err():
		t.Fatalf("watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for list")
	}
	return nil
}

func waitRoom(t *testing.T, w *RoomWatch) models.Room {
	t.Helper()
	select {
	case room, ok := <-w.Rooms():
		if !ok {
			t.Fatal("room stream closed")
		}
		return room
	case err := <-w.Err():
		t.Fatalf("watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room")
	}
	return models.Room{}
}

func TestWatchDeliversInitialList(t *testing.T) {
	d := newWatchDirectory(t)
	ctx := context.Background()

	d.Ensure(ctx, "general")

	w, err := d.Watch(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	list := waitList(t, w)
	if len(list) != 1 || list[0].ID != "general" {
		t.Fatalf("initial list = %+v", list)
	}
}

func TestWatchFollowsDirectoryChanges(t *testing.T) {
	d := newWatchDirectory(t)
	ctx := context.Background()

	w, err := d.Watch(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	waitList(t, w) // initial, empty

	d.Ensure(ctx, "new-room")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case list := <-w.Lists():
			if len(list) == 1 && list[0].ID == "new-room" {
				return
			}
		case err := <-w.Err():
			t.Fatalf("watch error: %v", err)
		case <-deadline:
			t.Fatal("new room never surfaced on the list watch")
		}
	}
}

func TestWatchRoomSeesRename(t *testing.T) {
	d := newWatchDirectory(t)
	ctx := context.Background()

	d.Ensure(ctx, "general")

	w, err := d.WatchRoom(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	waitRoom(t, w) // initial entry

	if err := d.Rename(ctx, "general", "The Commons"); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case room := <-w.Rooms():
			if room.Name == "The Commons" {
				return
			}
		case err := <-w.Err():
			t.Fatalf("watch error: %v", err)
		case <-deadline:
			t.Fatal("rename never surfaced on the room watch")
		}
	}
}

func TestWatchRoomIgnoresOtherRooms(t *testing.T) {
	d := newWatchDirectory(t)
	ctx := context.Background()

	d.Ensure(ctx, "general")
	w, err := d.WatchRoom(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	waitRoom(t, w)

	d.Ensure(ctx, "unrelated")

	select {
	case room := <-w.Rooms():
		if room.ID != "general" {
			t.Fatalf("foreign room leaked onto the watch: %+v", room)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchRoomAbsentEntryDerivesName(t *testing.T) {
	d := newWatchDirectory(t)

	w, err := d.WatchRoom(context.Background(), "Xy9Z123")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	room := waitRoom(t, w)
	if room.Name != DeriveName("Xy9Z123") {
		t.Fatalf("absent entry name = %q, want derived", room.Name)
	}
}

func TestWatchRequiresRedis(t *testing.T) {
	d := New(newMemStore(), nil, zerolog.Nop())

	if _, err := d.Watch(context.Background(), 10); !models.IsTransport(err) {
		t.Fatalf("got %v, want transport error", err)
	}
	if _, err := d.WatchRoom(context.Background(), "general"); !models.IsTransport(err) {
		t.Fatalf("got %v, want transport error", err)
	}
}
