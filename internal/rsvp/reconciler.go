package rsvp

import (
	"context"
	"fmt"
	"strings"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// ReplaceGuests swaps the whole guest list of (groupID, kind) for names.
// It must run inside tx; on ErrInvalidGuestName the caller rolls back so the
// delete is never observed. Names are trimmed; order and duplicates are kept.
func ReplaceGuests(ctx context.Context, tx storage.Tx, groupID int64, kind models.EventKind, names []string) ([]models.Guest, error) {
	if _, err := tx.DeleteGuests(ctx, groupID, kind); err != nil {
		return nil, fmt.Errorf("clear %s guests: %w", kind, err)
	}

	guests := make([]models.Guest, 0, len(names))
	for i, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, &Error{
				Code:    CodeInvalidGuestName,
				Message: ErrInvalidGuestName.Message,
				Cause:   fmt.Errorf("guest %d is blank", i+1),
			}
		}
		guest, err := tx.AddGuest(ctx, groupID, kind, trimmed)
		if err != nil {
			return nil, fmt.Errorf("store %s guest: %w", kind, err)
		}
		guests = append(guests, guest)
	}
	return guests, nil
}
