package rsvp

import "wedding-rsvp/internal/models"

// IsAdmissible reports whether guestCount extra guests are allowed under
// maxGuests, which is 0 (none), -1 (unlimited) or n > 0 (at most n).
// Caps below -1 and negative counts are never admissible.
func IsAdmissible(maxGuests, guestCount int) bool {
	limit, err := models.ParseGuestLimit(maxGuests)
	if err != nil {
		return false
	}
	return limit.Admits(guestCount)
}
