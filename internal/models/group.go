package models

import (
	"fmt"
	"time"
)

// EventKind identifies one of the three sub-events of the occasion
type EventKind string

const (
	EventNikkah  EventKind = "nikkah"
	EventWedding EventKind = "wedding"
	EventHenna   EventKind = "henna"
)

// RSVPEvents lists the events that take an RSVP, in display order.
var RSVPEvents = []EventKind{EventWedding, EventHenna}

// ParseEventKind parses an exact, lower-case event name.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventNikkah, EventWedding, EventHenna:
		return k, nil
	}
	return "", fmt.Errorf("unknown event %q", s)
}

// AcceptsRSVP reports whether groups can respond to the event.
// The nikkah is view only.
func (k EventKind) AcceptsRSVP() bool {
	return k == EventWedding || k == EventHenna
}

// Group is one invited party sharing a single access token.
type Group struct {
	ID    int64
	Token string
	Name  string

	InvitedToNikkah  bool
	InvitedToWedding bool
	InvitedToHenna   bool

	WeddingLimit GuestLimit
	HennaLimit   GuestLimit

	Wedding EventState
	Henna   EventState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Invited reports whether the group may see the event.
func (g Group) Invited(kind EventKind) bool {
	switch kind {
	case EventNikkah:
		return g.InvitedToNikkah
	case EventWedding:
		return g.InvitedToWedding
	case EventHenna:
		return g.InvitedToHenna
	}
	return false
}

// Limit returns the guest cap for an RSVP-capable event.
func (g Group) Limit(kind EventKind) (GuestLimit, bool) {
	switch kind {
	case EventWedding:
		return g.WeddingLimit, true
	case EventHenna:
		return g.HennaLimit, true
	}
	return GuestLimit{}, false
}

// State returns the RSVP state of an RSVP-capable event.
func (g Group) State(kind EventKind) (EventState, bool) {
	switch kind {
	case EventWedding:
		return g.Wedding, true
	case EventHenna:
		return g.Henna, true
	}
	return EventState{}, false
}
