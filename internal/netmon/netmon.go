// Package netmon observes backend reachability and fans a three-valued
// connection status out to listeners. It is a pure observer: it never opens
// or tears down subscriptions, it only changes what is reported.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/models"
)

// Prober checks reachability of the backend. A Redis ping is the usual
// implementation.
type Prober func(ctx context.Context) error

// offlineAfter is the number of consecutive probe failures before
// reconnecting degrades to offline.
const offlineAfter = 3

// Monitor polls a Prober and publishes status transitions to any number of
// listeners. One failed probe reports reconnecting; repeated failures report
// offline; a single success restores online.
type Monitor struct {
	probe    Prober
	interval time.Duration
	logger   zerolog.Logger

	mu        sync.Mutex
	status    models.ConnectionStatus
	failures  int
	listeners map[int]chan models.ConnectionStatus
	nextID    int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a monitor polling probe every interval.
func New(probe Prober, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		probe:     probe,
		interval:  interval,
		logger:    logger.With().Str("component", "netmon").Logger(),
		status:    models.StatusOnline,
		listeners: make(map[int]chan models.ConnectionStatus),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins polling until Stop is called.
func (m *Monitor) Start() {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), m.interval)
				err := m.probe(ctx)
				cancel()
				m.Report(err == nil)
			}
		}
	}()
}

// Stop halts polling. Listener channels stay open; callers unsubscribe
// themselves.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}

// Report feeds one boolean reachability observation into the monitor. The
// poller calls this, and tests drive transitions through it directly.
func (m *Monitor) Report(reachable bool) {
	m.mu.Lock()

	var next models.ConnectionStatus
	if reachable {
		m.failures = 0
		next = models.StatusOnline
	} else {
		m.failures++
		if m.failures >= offlineAfter {
			next = models.StatusOffline
		} else {
			next = models.StatusReconnecting
		}
	}

	if next == m.status {
		m.mu.Unlock()
		return
	}
	m.status = next

	notify := make([]chan models.ConnectionStatus, 0, len(m.listeners))
	for _, ch := range m.listeners {
		notify = append(notify, ch)
	}
	m.mu.Unlock()

	m.logger.Info().Str("status", string(next)).Msg("connection status changed")
	for _, ch := range notify {
		// Conflate: a slow listener sees the latest status, not every hop.
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}

// Status returns the current status.
func (m *Monitor) Status() models.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe registers a listener. The returned channel carries status
// transitions; the cancel func removes the listener.
func (m *Monitor) Subscribe() (<-chan models.ConnectionStatus, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan models.ConnectionStatus, 1)
	m.listeners[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}
