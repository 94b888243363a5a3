// Package rsvp records accept/decline decisions and guest lists for a group.
package rsvp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Submission is one RSVP as sent by a guest.
type Submission struct {
	Token  string
	Event  string
	Accept bool
	Guests []string
}

// Notifier is told about every committed RSVP.
type Notifier interface {
	NotifyRSVP(ctx context.Context, group models.Group, kind models.EventKind) error
}

// DefaultNotifyTimeout bounds how long a submission waits on the notifier.
const DefaultNotifyTimeout = 5 * time.Second

// Processor applies RSVP submissions to the group state store.
type Processor struct {
	store         storage.Store
	notifier      Notifier
	notifyTimeout time.Duration
	log           zerolog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithNotifier sends each committed RSVP to n. Notification failures are logged only.
func WithNotifier(n Notifier) Option {
	return func(p *Processor) {
		p.notifier = n
	}
}

// WithNotifyTimeout overrides DefaultNotifyTimeout.
func WithNotifyTimeout(d time.Duration) Option {
	return func(p *Processor) {
		p.notifyTimeout = d
	}
}

// NewProcessor creates a new RSVP processor
func NewProcessor(store storage.Store, log zerolog.Logger, opts ...Option) *Processor {
	p := &Processor{
		store:         store,
		notifyTimeout: DefaultNotifyTimeout,
		log:           log.With().Str("component", "RSVP").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit replaces the group's response for one event and returns the
// committed group. Every call fully determines the event's new state, so
// repeating a submission is idempotent. On any error nothing is written.
func (p *Processor) Submit(ctx context.Context, s Submission) (models.Group, error) {
	var (
		updated models.Group
		kind    models.EventKind
	)
	err := p.store.WithTx(ctx, func(tx storage.Tx) error {
		group, err := resolve(ctx, tx, s.Token)
		if err != nil {
			return err
		}

		kind, err = models.ParseEventKind(s.Event)
		if err != nil || !kind.AcceptsRSVP() {
			return ErrInvalidEvent
		}
		limit, _ := group.Limit(kind)

		status := models.RSVPDeclined
		var names []string
		if s.Accept {
			if !IsAdmissible(limit.Int(), len(s.Guests)) {
				return guestLimitError(limit.Int(), len(s.Guests))
			}
			status = models.RSVPAccepted
			names = s.Guests
		}

		if _, err := ReplaceGuests(ctx, tx, group.ID, kind, names); err != nil {
			return err
		}
		if err := tx.SetEventState(ctx, group.ID, kind, status); err != nil {
			return fmt.Errorf("update %s state: %w", kind, err)
		}

		updated, err = tx.GetGroup(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("reload group: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}

	state, _ := updated.State(kind)
	p.log.Info().
		Int64("group_id", updated.ID).
		Str("event", string(kind)).
		Str("status", string(state.Status)).
		Int("guests", len(state.Guests)).
		Msg("RSVP recorded")

	p.notify(ctx, updated, kind)
	return updated, nil
}

// notify runs after commit. It outlives a cancelled request but not notifyTimeout.
func (p *Processor) notify(ctx context.Context, group models.Group, kind models.EventKind) {
	if p.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.notifyTimeout)
	defer cancel()
	if err := p.notifier.NotifyRSVP(ctx, group, kind); err != nil {
		p.log.Error().Err(err).Int64("group_id", group.ID).Msg("Failed to notify hosts")
	}
}
