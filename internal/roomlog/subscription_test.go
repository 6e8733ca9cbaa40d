package roomlog

import (
	"context"
	"testing"
	"time"

	"github.com/Priyan-git/rait-rooms/internal/models"
)

// waitSnapshot receives the next snapshot or fails the test.
func waitSnapshot(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Snapshots():
		if !ok {
			t.Fatal("snapshot stream closed")
		}
		return snap
	case err := <-sub.Err():
		t.Fatalf("stream error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	l, _ := newTestLog(t, nil)
	ctx := context.Background()

	if _, err := l.Append(ctx, "general", draft("already here")); err != nil {
		t.Fatal(err)
	}

	sub, err := l.Subscribe(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	snap := waitSnapshot(t, sub)
	if snap.RoomID != "general" {
		t.Fatalf("room = %q", snap.RoomID)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != "already here" {
		t.Fatalf("initial snapshot mismatch: %+v", snap.Messages)
	}
}

func TestSubscribeEmptyRoomInitialSnapshot(t *testing.T) {
	l, _ := newTestLog(t, nil)

	sub, err := l.Subscribe(context.Background(), "empty-room")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	snap := waitSnapshot(t, sub)
	if len(snap.Messages) != 0 {
		t.Fatalf("empty room delivered %d messages", len(snap.Messages))
	}
}

// An append landing immediately after Subscribe returns must still be
// delivered: the pub/sub channel is confirmed live before the initial read,
// so there is no gap an idle room would never heal.
func TestSubscribeSeesAppendAtEstablishment(t *testing.T) {
	l, _ := newTestLog(t, nil)
	ctx := context.Background()

	sub, err := l.Subscribe(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	// Append before draining the initial snapshot.
	if _, err := l.Append(ctx, "general", draft("right away")); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-sub.Snapshots():
			if len(snap.Messages) == 1 && snap.Messages[0].Text == "right away" {
				return
			}
		case err := <-sub.Err():
			t.Fatalf("stream error: %v", err)
		case <-deadline:
			t.Fatal("append at establishment was never delivered")
		}
	}
}

func TestSubscribeRedeliversFullSequence(t *testing.T) {
	l, _ := newTestLog(t, nil)
	ctx := context.Background()

	if _, err := l.Append(ctx, "general", draft("first")); err != nil {
		t.Fatal(err)
	}

	sub, err := l.Subscribe(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	waitSnapshot(t, sub) // initial

	if _, err := l.Append(ctx, "general", draft("second")); err != nil {
		t.Fatal(err)
	}

	// Every change redelivers the whole sequence, not a diff.
	snap := waitSnapshot(t, sub)
	if len(snap.Messages) != 2 {
		t.Fatalf("got %d messages, want full sequence of 2", len(snap.Messages))
	}
	if snap.Messages[0].Text != "first" || snap.Messages[1].Text != "second" {
		t.Fatalf("sequence mismatch: %+v", snap.Messages)
	}
}

// Two clients on one room: a message appended by one shows up in the
// other's stream with the author's handle, ordered last.
func TestCrossClientDelivery(t *testing.T) {
	l, _ := newTestLog(t, nil)
	ctx := context.Background()

	if _, err := l.Append(ctx, "general", draft("scene setter")); err != nil {
		t.Fatal(err)
	}

	sub, err := l.Subscribe(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	first := waitSnapshot(t, sub)

	// The other participant appends.
	sender := models.Draft{
		Text:            "hi",
		AuthorHandle:    "anon-9qf",
		AuthorPrincipal: "7b0f4a3e-0000-7000-8000-000000000002",
	}
	if _, err := l.Append(ctx, "general", sender); err != nil {
		t.Fatal(err)
	}

	snap := waitSnapshot(t, sub)
	last := snap.Messages[len(snap.Messages)-1]
	if last.Text != "hi" || last.AuthorHandle != "anon-9qf" {
		t.Fatalf("last message mismatch: %+v", last)
	}
	if last.CreatedAt < first.Messages[0].CreatedAt {
		t.Fatal("new message ordered before existing history")
	}
}

func TestSubscriptionIsolatedPerRoom(t *testing.T) {
	l, _ := newTestLog(t, nil)
	ctx := context.Background()

	sub, err := l.Subscribe(ctx, "room-a")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	waitSnapshot(t, sub)

	if _, err := l.Append(ctx, "room-b", draft("elsewhere")); err != nil {
		t.Fatal(err)
	}

	// room-b traffic must not surface on room-a's stream.
	select {
	case snap := <-sub.Snapshots():
		for _, m := range snap.Messages {
			if m.RoomID != "room-a" {
				t.Fatalf("foreign message leaked: %+v", m)
			}
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseStopsDeliveries(t *testing.T) {
	l, _ := newTestLog(t, nil)
	ctx := context.Background()

	sub, err := l.Subscribe(ctx, "general")
	if err != nil {
		t.Fatal(err)
	}
	waitSnapshot(t, sub)
	sub.Close()

	if _, err := l.Append(ctx, "general", draft("after close")); err != nil {
		t.Fatal(err)
	}

	// The channel is closed; at most a zero-value read remains.
	select {
	case snap, ok := <-sub.Snapshots():
		if ok && len(snap.Messages) > 0 {
			t.Fatalf("delivery after close: %+v", snap)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l, _ := newTestLog(t, nil)

	sub, err := l.Subscribe(context.Background(), "general")
	if err != nil {
		t.Fatal(err)
	}
	sub.Close()
	sub.Close()
}
