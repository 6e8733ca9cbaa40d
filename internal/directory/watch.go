package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/Priyan-git/rait-rooms/internal/models"
)

var errWatchUnavailable = errors.New("directory watches require redis")

// ListWatch is a live subscription to the recency-ordered room list. Each
// delivery is the full current list, mirroring the message log's
// full-snapshot semantics.
type ListWatch struct {
	lists     chan []models.Room
	errs      chan error
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Watch opens a live room-list subscription delivering up to limit rooms by
// recency, re-read on every directory change event.
func (d *Directory) Watch(ctx context.Context, limit int) (*ListWatch, error) {
	if d.redis == nil {
		return nil, &models.TransportError{Op: "watch rooms", Err: errWatchUnavailable}
	}
	if limit <= 0 || limit > 100 {
		limit = DefaultListLimit
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	pubsub := d.redis.SubscribeDirectoryEvents(watchCtx)

	// Confirm the SUBSCRIBE is active before the initial read, so a
	// directory change landing in between still triggers a re-read.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		cancel()
		return nil, &models.TransportError{Op: "watch rooms", Err: err}
	}

	initial, err := d.rooms.ListRooms(ctx, limit)
	if err != nil {
		pubsub.Close()
		cancel()
		return nil, &models.TransportError{Op: "watch rooms", Err: err}
	}

	w := &ListWatch{
		lists:  make(chan []models.Room, 1),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		defer close(w.lists)
		defer pubsub.Close()

		if !push(watchCtx, w.lists, initial) {
			return
		}

		events := pubsub.Channel()
		for {
			select {
			case <-watchCtx.Done():
				return
			case _, ok := <-events:
				if !ok {
					fail(w.errs, &models.StreamError{Err: errStreamEnded})
					return
				}
				rooms, err := d.rooms.ListRooms(watchCtx, limit)
				if err != nil {
					if watchCtx.Err() != nil {
						return
					}
					fail(w.errs, &models.StreamError{Err: err})
					return
				}
				if !push(watchCtx, w.lists, rooms) {
					return
				}
			}
		}
	}()

	return w, nil
}

// Lists returns the snapshot stream; closed when the watch ends.
func (w *ListWatch) Lists() <-chan []models.Room { return w.lists }

// Err surfaces the terminal stream error, if any.
func (w *ListWatch) Err() <-chan error { return w.errs }

// Close cancels the watch; no delivery happens after it returns.
func (w *ListWatch) Close() {
	w.closeOnce.Do(func() {
		w.cancel()
		<-w.done
	})
}

// RoomWatch is a standing subscription to one room's directory entry, used
// for rename propagation independent of the message stream.
type RoomWatch struct {
	rooms     chan models.Room
	errs      chan error
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

var errStreamEnded = errors.New("directory event stream closed")

// WatchRoom opens a metadata watch for one room. The first delivery is the
// current entry (derived name when the entry is still absent); subsequent
// deliveries follow directory change events for that room.
func (d *Directory) WatchRoom(ctx context.Context, roomID string) (*RoomWatch, error) {
	if d.redis == nil {
		return nil, &models.TransportError{Op: "watch room", Err: errWatchUnavailable}
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	pubsub := d.redis.SubscribeDirectoryEvents(watchCtx)

	// Same establishment order as Watch: the channel must be live before
	// the first read or a rename in the gap is never observed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		cancel()
		return nil, &models.TransportError{Op: "watch room", Err: err}
	}

	initial, err := d.rooms.GetRoom(ctx, roomID)
	if err != nil {
		pubsub.Close()
		cancel()
		return nil, &models.TransportError{Op: "watch room", Err: err}
	}

	w := &RoomWatch{
		rooms:  make(chan models.Room, 1),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		defer close(w.rooms)
		defer pubsub.Close()

		if !push(watchCtx, w.rooms, entryOrDerived(roomID, initial)) {
			return
		}

		events := pubsub.Channel()
		for {
			select {
			case <-watchCtx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					fail(w.errs, &models.StreamError{RoomID: roomID, Err: errStreamEnded})
					return
				}
				if ev.Payload != roomID {
					continue
				}
				room, err := d.rooms.GetRoom(watchCtx, roomID)
				if err != nil {
					if watchCtx.Err() != nil {
						return
					}
					fail(w.errs, &models.StreamError{RoomID: roomID, Err: err})
					return
				}
				if !push(watchCtx, w.rooms, entryOrDerived(roomID, room)) {
					return
				}
			}
		}
	}()

	return w, nil
}

// Rooms returns the metadata stream; closed when the watch ends.
func (w *RoomWatch) Rooms() <-chan models.Room { return w.rooms }

// Err surfaces the terminal stream error, if any.
func (w *RoomWatch) Err() <-chan error { return w.errs }

// Close cancels the watch; no delivery happens after it returns.
func (w *RoomWatch) Close() {
	w.closeOnce.Do(func() {
		w.cancel()
		<-w.done
	})
}

func entryOrDerived(roomID string, room *models.Room) models.Room {
	if room != nil {
		return *room
	}
	return models.Room{ID: roomID, Name: DeriveName(roomID)}
}

func push[T any](ctx context.Context, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func fail(errs chan error, err error) {
	select {
	case errs <- err:
	default:
	}
}
