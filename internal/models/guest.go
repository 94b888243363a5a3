package models

import (
	"fmt"
	"time"
)

// Guest is an extra attendee named on a group's accepted RSVP for one event.
type Guest struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Event     EventKind `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RSVPStatus represents the attendance decision for one event
type RSVPStatus string

const (
	RSVPNotResponded RSVPStatus = "not_responded"
	RSVPAccepted     RSVPStatus = "accepted"
	RSVPDeclined     RSVPStatus = "declined"
)

// EventState is the response a group has given for one RSVP-capable event.
type EventState struct {
	Status RSVPStatus
	Guests []Guest
}

// HasResponded reports whether any decision was recorded yet.
func (s EventState) HasResponded() bool {
	return s.Status == RSVPAccepted || s.Status == RSVPDeclined
}

// HasAccepted reports whether the latest decision was an accept.
func (s EventState) HasAccepted() bool {
	return s.Status == RSVPAccepted
}

// StatusFromFlags rebuilds a status from the persisted has_rsvped/has_accepted pair.
func StatusFromFlags(rsvped, accepted bool) RSVPStatus {
	switch {
	case !rsvped:
		return RSVPNotResponded
	case accepted:
		return RSVPAccepted
	default:
		return RSVPDeclined
	}
}

// GuestLimitKind distinguishes the three guest cap policies.
type GuestLimitKind int

const (
	NoExtraGuests GuestLimitKind = iota
	UnlimitedGuests
	CappedGuests
)

// GuestLimit is the per-event cap on extra guests.
// The zero value allows no extra guests.
type GuestLimit struct {
	kind GuestLimitKind
	max  int
}

// NoGuests returns a limit that only allows a plain accept or decline.
func NoGuests() GuestLimit {
	return GuestLimit{kind: NoExtraGuests}
}

// Unlimited returns a limit that admits any number of extra guests.
func Unlimited() GuestLimit {
	return GuestLimit{kind: UnlimitedGuests}
}

// Capped returns a limit admitting at most n extra guests. n must be positive.
func Capped(n int) (GuestLimit, error) {
	if n <= 0 {
		return GuestLimit{}, fmt.Errorf("guest cap must be positive, got %d", n)
	}
	return GuestLimit{kind: CappedGuests, max: n}, nil
}

// ParseGuestLimit maps the stored integer form: 0 no extra guests, -1 unlimited, n>0 capped.
func ParseGuestLimit(v int) (GuestLimit, error) {
	switch {
	case v == 0:
		return NoGuests(), nil
	case v == -1:
		return Unlimited(), nil
	case v > 0:
		return Capped(v)
	default:
		return GuestLimit{}, fmt.Errorf("invalid guest limit %d: use 0, -1 or a positive number", v)
	}
}

// Kind returns the limit policy.
func (l GuestLimit) Kind() GuestLimitKind {
	return l.kind
}

// Int returns the stored integer form of the limit.
func (l GuestLimit) Int() int {
	switch l.kind {
	case UnlimitedGuests:
		return -1
	case CappedGuests:
		return l.max
	default:
		return 0
	}
}

// Admits reports whether count extra guests fit within the limit.
func (l GuestLimit) Admits(count int) bool {
	if count < 0 {
		return false
	}
	switch l.kind {
	case UnlimitedGuests:
		return true
	case CappedGuests:
		return count <= l.max
	default:
		return count == 0
	}
}

func (l GuestLimit) String() string {
	switch l.kind {
	case UnlimitedGuests:
		return "unlimited"
	case CappedGuests:
		return fmt.Sprintf("up to %d", l.max)
	default:
		return "none"
	}
}
