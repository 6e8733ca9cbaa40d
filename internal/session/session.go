// Package session implements the room sync session: one per open room view,
// it owns a live message subscription, a local ordered cache and the derived
// view published to the UI.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/metrics"
	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/roomlog"
)

var (
	ErrClosed  = errors.New("session closed")
	ErrOffline = errors.New("composer disabled while offline")
)

// Options tune a session.
type Options struct {
	// OptimisticEcho renders sent messages locally before acknowledgment,
	// rolling them back on failure. Off by default so strict correctness
	// tests see only acknowledged state.
	OptimisticEcho bool
	// Status, when set, feeds connectivity transitions into the session.
	Status <-chan models.ConnectionStatus
	// Resubscription policy after a stream error.
	ResubscribeMax     int
	ResubscribeBackoff time.Duration
}

type sendReq struct {
	draft models.Draft
}

type appendResult struct {
	tag string
	id  string
	err error
}

type pendingMsg struct {
	tag       string
	confirmID string
	draft     models.Draft
}

// Session is a single room view's sync state machine:
// Connecting -> Live -> (Degraded|Reconnecting)* -> Closed.
//
// All cache mutation happens on one goroutine; the session's local cache is
// exclusively owned and discarded on Close.
type Session struct {
	roomID string
	id     Identity
	log    Log
	dir    Directory
	opts   Options
	logger zerolog.Logger

	updates  chan View
	sendCh   chan sendReq
	appendCh chan appendResult

	state      atomic.Value // State
	lastStatus atomic.Value // models.ConnectionStatus
	lastView   atomic.Value // View

	opened    bool
	closed    atomic.Bool
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// New creates a session for one room view. Open must be called before the
// session delivers anything.
func New(roomID string, id Identity, log Log, dir Directory, opts Options, logger zerolog.Logger) *Session {
	if opts.ResubscribeMax <= 0 {
		opts.ResubscribeMax = 5
	}
	if opts.ResubscribeBackoff <= 0 {
		opts.ResubscribeBackoff = 250 * time.Millisecond
	}
	s := &Session{
		roomID:   roomID,
		id:       id,
		log:      log,
		dir:      dir,
		opts:     opts,
		logger:   logger.With().Str("component", "session").Str("room", roomID).Logger(),
		updates:  make(chan View, 1),
		sendCh:   make(chan sendReq),
		appendCh: make(chan appendResult, 8),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.state.Store(StateConnecting)
	s.lastStatus.Store(models.StatusOnline)
	s.lastView.Store(View{RoomID: roomID, State: StateConnecting})
	return s
}

// Open ensures the directory entry (best-effort), establishes the message
// subscription and the room metadata watch, and starts the session loop.
// Subscription establishment failures propagate to the caller.
func (s *Session) Open(ctx context.Context) error {
	s.dir.Ensure(ctx, s.roomID)

	stream, err := s.log.Subscribe(ctx, s.roomID)
	if err != nil {
		return err
	}

	// Metadata resolution failing only costs the display name.
	meta, err := s.dir.WatchRoom(ctx, s.roomID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("room metadata watch unavailable")
		meta = nil
	}

	s.opened = true
	metrics.ActiveSessions.Inc()
	go s.run(stream, meta)
	return nil
}

// Updates returns the view stream. Deliveries conflate: a slow consumer
// sees the latest full view, never a stale intermediate.
func (s *Session) Updates() <-chan View {
	return s.updates
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state.Load().(State)
}

// CurrentView returns the most recently published view.
func (s *Session) CurrentView() View {
	return s.lastView.Load().(View)
}

// Send validates and appends a message authored by the local identity.
// Validation fails locally before any network call. With optimistic echo
// enabled the call returns once the echo is queued; append failures roll the
// echo back asynchronously.
func (s *Session) Send(ctx context.Context, text string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.lastStatus.Load().(models.ConnectionStatus) == models.StatusOffline {
		return ErrOffline
	}

	draft := models.Draft{
		Text:            text,
		AuthorHandle:    s.id.Handle,
		AuthorPrincipal: s.id.Principal,
		Kind:            models.KindUser,
	}
	if err := roomlog.ValidateDraft(draft); err != nil {
		return err
	}

	if !s.opts.OptimisticEcho {
		_, err := s.log.Append(ctx, s.roomID, draft)
		return err
	}

	select {
	case s.sendCh <- sendReq{draft: draft}:
		return nil
	case <-s.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the session down: both subscriptions are released before
// Close returns, the cache is discarded, and no event queued before Close
// mutates anything afterwards. Closed is terminal.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		if s.opened {
			<-s.done
		}
		s.state.Store(StateClosed)
		v := s.lastView.Load().(View)
		v.State = StateClosed
		s.lastView.Store(v)
	})
}

func (s *Session) run(stream Stream, meta MetaStream) {
	defer close(s.done)
	defer metrics.ActiveSessions.Dec()
	defer func() { stream.Close() }()
	if meta != nil {
		defer meta.Close()
	}

	var (
		cache    []models.Message
		pending  []pendingMsg
		roomName = s.roomID
		gotFirst bool
	)

	snapshots := stream.Snapshots()
	streamErrs := stream.Err()
	var metaRooms <-chan models.Room
	if meta != nil {
		metaRooms = meta.Rooms()
	}

	for {
		select {
		case <-s.closeCh:
			return

		case snap, ok := <-snapshots:
			if s.closed.Load() {
				return
			}
			if !ok {
				// Stream ended; the error arrives on streamErrs.
				snapshots = nil
				continue
			}
			cache = orderMessages(snap.Messages)
			pending = prunePending(pending, cache)
			if !gotFirst {
				gotFirst = true
				s.setState(StateLive)
			} else if s.State() == StateReconnecting {
				s.setState(StateLive)
			}
			s.publish(cache, pending, roomName)

		case err, ok := <-streamErrs:
			if s.closed.Load() {
				return
			}
			if !ok {
				streamErrs = nil
				continue
			}
			s.logger.Warn().Err(err).Msg("message stream broke, resubscribing")
			stream.Close()
			s.setState(StateReconnecting)
			s.publish(cache, pending, roomName)

			next, rerr := s.resubscribe()
			if rerr != nil {
				s.logger.Error().Err(rerr).Msg("resubscription exhausted")
				s.setState(StateFailed)
				s.publish(cache, pending, roomName)
				snapshots, streamErrs = nil, nil
				continue
			}
			stream = next
			snapshots = stream.Snapshots()
			streamErrs = stream.Err()

		case room, ok := <-metaRooms:
			if s.closed.Load() {
				return
			}
			if !ok {
				metaRooms = nil
				continue
			}
			roomName = room.Name
			if roomName == "" {
				roomName = s.roomID
			}
			s.publish(cache, pending, roomName)

		case st, ok := <-s.statusCh():
			if s.closed.Load() {
				return
			}
			if !ok {
				continue
			}
			s.lastStatus.Store(st)
			switch {
			case st == models.StatusOffline && s.State() == StateLive:
				// Reported status degrades; the subscription stays up and
				// the transport buffers through the outage.
				s.setState(StateDegraded)
			case st == models.StatusOnline && s.State() == StateDegraded:
				s.setState(StateLive)
			}
			s.publish(cache, pending, roomName)

		case req := <-s.sendCh:
			if s.closed.Load() {
				return
			}
			tag := ulid.Make().String()
			pending = append(pending, pendingMsg{tag: tag, draft: req.draft})
			s.publish(cache, pending, roomName)
			go s.appendAsync(tag, req.draft)

		case res := <-s.appendCh:
			if s.closed.Load() {
				return
			}
			if res.err != nil {
				// Roll the echo back; the failure is logged, not retried.
				s.logger.Warn().Err(res.err).Msg("append failed, rolling back echo")
				pending = removePending(pending, res.tag)
			} else {
				pending = confirmPending(pending, res.tag, res.id)
				pending = prunePending(pending, cache)
			}
			s.publish(cache, pending, roomName)
		}
	}
}

// statusCh returns the connectivity channel, or a nil channel (blocking
// forever) when no monitor is attached.
func (s *Session) statusCh() <-chan models.ConnectionStatus {
	return s.opts.Status
}

func (s *Session) appendAsync(tag string, draft models.Draft) {
	id, err := s.log.Append(context.Background(), s.roomID, draft)
	select {
	case s.appendCh <- appendResult{tag: tag, id: id, err: err}:
	case <-s.closeCh:
	}
}

// resubscribe retries subscription establishment with exponential backoff,
// bounded by the options. Aborts early on Close.
func (s *Session) resubscribe() (Stream, error) {
	backoff := s.opts.ResubscribeBackoff
	var lastErr error

	for attempt := 1; attempt <= s.opts.ResubscribeMax; attempt++ {
		metrics.ResubscribeAttempts.Inc()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		stream, err := s.log.Subscribe(ctx, s.roomID)
		cancel()
		if err == nil {
			return stream, nil
		}
		lastErr = err

		select {
		case <-s.closeCh:
			return nil, ErrClosed
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 4*time.Second {
			backoff = 4 * time.Second
		}
	}
	return nil, lastErr
}

func (s *Session) setState(st State) {
	s.state.Store(st)
}

// publish rebuilds the view and hands it to the UI, conflating when the
// consumer lags.
func (s *Session) publish(cache []models.Message, pending []pendingMsg, roomName string) {
	msgs := make([]ViewMessage, 0, len(cache)+len(pending))
	for _, m := range cache {
		msgs = append(msgs, ViewMessage{
			ID:        m.ID,
			Text:      m.Text,
			Handle:    m.AuthorHandle,
			Kind:      m.Kind,
			CreatedAt: m.CreatedAt,
			// OR on purpose: a handle collision or a principal change after
			// re-auth must not strand a user's own messages as foreign.
			IsMine: m.AuthorHandle == s.id.Handle || m.AuthorPrincipal == s.id.Principal,
		})
	}
	for _, p := range pending {
		msgs = append(msgs, ViewMessage{
			ID:      p.tag,
			Text:    p.draft.Text,
			Handle:  p.draft.AuthorHandle,
			Kind:    p.draft.Kind,
			IsMine:  true,
			Pending: true,
		})
	}

	v := View{
		RoomID:   s.roomID,
		RoomName: roomName,
		State:    s.State(),
		Messages: msgs,
	}
	s.lastView.Store(v)

	select {
	case s.updates <- v:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- v:
		default:
		}
	}
}

// orderMessages sorts a snapshot ascending by CreatedAt, ULID breaking
// ties, so the published sequence is non-decreasing regardless of the
// arrival order underneath.
func orderMessages(msgs []models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func prunePending(pending []pendingMsg, cache []models.Message) []pendingMsg {
	if len(pending) == 0 {
		return pending
	}
	confirmed := make(map[string]bool, len(cache))
	for _, m := range cache {
		confirmed[m.ID] = true
	}
	kept := pending[:0]
	for _, p := range pending {
		if p.confirmID != "" && confirmed[p.confirmID] {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func removePending(pending []pendingMsg, tag string) []pendingMsg {
	kept := pending[:0]
	for _, p := range pending {
		if p.tag != tag {
			kept = append(kept, p)
		}
	}
	return kept
}

func confirmPending(pending []pendingMsg, tag, id string) []pendingMsg {
	for i := range pending {
		if pending[i].tag == tag {
			pending[i].confirmID = id
		}
	}
	return pending
}
