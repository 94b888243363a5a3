// Package storage defines the persistence contract for groups and their guest lists.
package storage

import (
	"context"
	"errors"

	"wedding-rsvp/internal/models"
)

var (
	// ErrNotFound is returned when no group matches the lookup key.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique column collides, such as the token.
	ErrAlreadyExists = errors.New("already exists")
)

// NewGroup holds the fields fixed when a group is provisioned.
type NewGroup struct {
	Name             string
	Token            string
	InvitedToNikkah  bool
	InvitedToWedding bool
	InvitedToHenna   bool
	WeddingLimit     models.GuestLimit
	HennaLimit       models.GuestLimit
}

// Reader performs point lookups. Returned groups include both guest lists.
type Reader interface {
	GetGroup(ctx context.Context, id int64) (models.Group, error)
	GetGroupByToken(ctx context.Context, token string) (models.Group, error)
}

// Tx is a request-scoped unit of work. Nothing written through it is visible
// to other readers until the enclosing WithTx returns nil.
type Tx interface {
	Reader
	// DeleteGuests removes every guest of the group for one event and reports how many were removed.
	DeleteGuests(ctx context.Context, groupID int64, kind models.EventKind) (int64, error)
	AddGuest(ctx context.Context, groupID int64, kind models.EventKind, name string) (models.Guest, error)
	SetEventState(ctx context.Context, groupID int64, kind models.EventKind, status models.RSVPStatus) error
}

// Store is the shared group state store.
type Store interface {
	Reader
	CreateGroup(ctx context.Context, group NewGroup) (models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
