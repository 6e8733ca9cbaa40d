package roomlog

import (
	"context"
	"errors"
	"sync"

	"github.com/Priyan-git/rait-rooms/internal/metrics"
	"github.com/Priyan-git/rait-rooms/internal/models"
)

var errStreamClosed = errors.New("event stream closed")

// Snapshot is one full-state delivery: the entire current ordered sequence
// of a room's log, not an incremental diff. Consumers diff against their
// previous cache if they want incremental rendering.
type Snapshot struct {
	RoomID   string
	Messages []models.Message
}

// Subscription is a live full-snapshot stream for one room. Deliveries are
// strictly ordered for a single subscriber. A broken stream surfaces exactly
// one terminal StreamError on Err and stops; it does not self-heal.
type Subscription struct {
	roomID    string
	snapshots chan Snapshot
	errs      chan error
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe establishes a live subscription to a room's message log. The
// first delivery is the entire current ordered sequence; every subsequent
// backend change redelivers the whole sequence.
//
// Establishment failures surface as TransportError before any delivery.
func (l *Log) Subscribe(ctx context.Context, roomID string) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(context.Background())
	pubsub := l.redis.SubscribeRoomEvents(subCtx, roomID)

	// Confirm the SUBSCRIBE is active before the initial read. A change
	// landing between the read and the channel opening would otherwise be
	// lost, and an idle room never re-publishes to heal the gap.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		cancel()
		return nil, &models.TransportError{Op: "subscribe", Err: err}
	}

	initial, err := l.redis.RoomMessages(ctx, roomID)
	if err != nil {
		pubsub.Close()
		cancel()
		return nil, &models.TransportError{Op: "subscribe", Err: err}
	}

	sub := &Subscription{
		roomID:    roomID,
		snapshots: make(chan Snapshot, 1),
		errs:      make(chan error, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer close(sub.snapshots)
		defer pubsub.Close()

		if !sub.deliver(subCtx, initial) {
			return
		}

		events := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-events:
				if !ok {
					sub.fail(&models.StreamError{RoomID: roomID, Err: errStreamClosed})
					return
				}
				msgs, err := l.redis.RoomMessages(subCtx, roomID)
				if err != nil {
					if subCtx.Err() != nil {
						return
					}
					sub.fail(&models.StreamError{RoomID: roomID, Err: err})
					return
				}
				if !sub.deliver(subCtx, msgs) {
					return
				}
			}
		}
	}()

	return sub, nil
}

// deliver pushes one snapshot, dropping messages that do not belong to this
// subscription's room. Returns false once the subscription is cancelled.
func (s *Subscription) deliver(ctx context.Context, msgs []models.Message) bool {
	kept := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.RoomID == s.roomID {
			kept = append(kept, m)
		}
	}

	select {
	case s.snapshots <- Snapshot{RoomID: s.roomID, Messages: kept}:
		metrics.SnapshotsDelivered.Inc()
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Subscription) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Snapshots returns the ordered snapshot stream. The channel is closed when
// the subscription ends, whether by Close or by a stream error.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Err surfaces the terminal stream error, if any.
func (s *Subscription) Err() <-chan error {
	return s.errs
}

// RoomID returns the room this subscription is bound to.
func (s *Subscription) RoomID() string {
	return s.roomID
}

// Close cancels the subscription and waits for the delivery goroutine to
// stop. No snapshot is delivered after Close returns.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		// Unblock a pending delivery so the goroutine can observe the
		// cancelled context.
		select {
		case <-s.snapshots:
		default:
		}
		<-s.done
	})
}
