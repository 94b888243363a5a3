package rsvp

import (
	"context"
	"errors"
	"fmt"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Resolver maps an access token to its group.
type Resolver struct {
	store storage.Reader
}

// NewResolver creates a resolver over any group reader, including a transaction.
func NewResolver(store storage.Reader) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the group for token by exact match, or ErrTokenNotFound.
func (r *Resolver) Resolve(ctx context.Context, token string) (models.Group, error) {
	return resolve(ctx, r.store, token)
}

func resolve(ctx context.Context, reader storage.Reader, token string) (models.Group, error) {
	if token == "" {
		return models.Group{}, ErrTokenNotFound
	}
	g, err := reader.GetGroupByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Group{}, ErrTokenNotFound
		}
		return models.Group{}, fmt.Errorf("resolve token: %w", err)
	}
	return g, nil
}
