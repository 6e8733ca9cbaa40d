// Package roomlog implements the per-room message log protocol: validated
// append with a best-effort directory touch, and live full-snapshot
// subscriptions.
package roomlog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/metrics"
	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/store"
)

// Toucher advances a room's recency marker. Satisfied by the directory.
type Toucher interface {
	Touch(ctx context.Context, roomID string) error
}

// Log is the append/subscribe contract over a room's ordered message record.
type Log struct {
	redis   *store.RedisStore
	toucher Toucher
	logger  zerolog.Logger
}

// New creates a message log over the given Redis store. The toucher may be
// nil, in which case appends skip the directory side effect.
func New(redis *store.RedisStore, toucher Toucher, logger zerolog.Logger) *Log {
	return &Log{
		redis:   redis,
		toucher: toucher,
		logger:  logger.With().Str("component", "roomlog").Logger(),
	}
}

// ValidateDraft applies the producer-side rules: non-empty trimmed text of
// at most 800 characters, authored by a resolved principal.
func ValidateDraft(draft models.Draft) error {
	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return &models.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLen {
		return &models.ValidationError{Field: "text", Reason: "exceeds 800 characters"}
	}
	if draft.AuthorPrincipal == "" {
		return &models.ValidationError{Field: "principal", Reason: "must be resolved before appending"}
	}
	return nil
}

// Append validates the draft locally and appends it to the room's log. The
// server assigns the ID and CreatedAt at acceptance time.
//
// Validation failures return before any network call. The directory touch
// afterwards is an independent second write with no atomicity guarantee
// relative to the message insert; its failure never rolls back an accepted
// message. That weak-consistency window is a deliberate property of the
// protocol, not an oversight.
func (l *Log) Append(ctx context.Context, roomID string, draft models.Draft) (string, error) {
	if err := ValidateDraft(draft); err != nil {
		return "", err
	}
	text := strings.TrimSpace(draft.Text)

	kind := draft.Kind
	if kind == "" {
		kind = models.KindUser
	}

	msg := &models.Message{
		RoomID:          roomID,
		AuthorHandle:    draft.AuthorHandle,
		AuthorPrincipal: draft.AuthorPrincipal,
		Text:            text,
		Kind:            kind,
	}

	if err := l.redis.AddMessage(ctx, msg); err != nil {
		return "", &models.TransportError{Op: "append", Err: err}
	}
	metrics.MessagesAppended.WithLabelValues(string(kind)).Inc()

	if l.toucher != nil {
		if err := l.toucher.Touch(ctx, roomID); err != nil {
			// Best-effort: a reader may observe the message before the
			// directory recency update, or never see the update at all.
			metrics.DirectoryTouchFailures.Inc()
			l.logger.Warn().Err(err).Str("room", roomID).Msg("recency touch failed after accepted append")
		}
	}

	return msg.ID, nil
}

// Messages returns the full current ordered sequence for a room as a
// one-shot read.
func (l *Log) Messages(ctx context.Context, roomID string) ([]models.Message, error) {
	msgs, err := l.redis.RoomMessages(ctx, roomID)
	if err != nil {
		return nil, &models.TransportError{Op: "messages", Err: err}
	}
	return msgs, nil
}
