package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"wedding-rsvp/internal/models"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type guestResponse struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// groupResponse is the group snapshot shown to token holders. The token itself is never echoed.
type groupResponse struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	InvitedToNikkah    bool            `json:"invited_to_nikkah"`
	InvitedToWedding   bool            `json:"invited_to_wedding"`
	InvitedToHenna     bool            `json:"invited_to_henna"`
	MaxGuestsWedding   int             `json:"max_guests_wedding"`
	MaxGuestsHenna     int             `json:"max_guests_henna"`
	HasAcceptedWedding bool            `json:"has_accepted_wedding"`
	HasAcceptedHenna   bool            `json:"has_accepted_henna"`
	HasRSVPedWedding   bool            `json:"has_rsvped_wedding"`
	HasRSVPedHenna     bool            `json:"has_rsvped_henna"`
	WeddingGuests      []guestResponse `json:"wedding_guests"`
	HennaGuests        []guestResponse `json:"henna_guests"`
}

type rsvpResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Group   *groupResponse `json:"group,omitempty"`
}

func newGroupResponse(g models.Group) groupResponse {
	return groupResponse{
		ID:                 g.ID,
		Name:               g.Name,
		InvitedToNikkah:    g.InvitedToNikkah,
		InvitedToWedding:   g.InvitedToWedding,
		InvitedToHenna:     g.InvitedToHenna,
		MaxGuestsWedding:   g.WeddingLimit.Int(),
		MaxGuestsHenna:     g.HennaLimit.Int(),
		HasAcceptedWedding: g.Wedding.HasAccepted(),
		HasAcceptedHenna:   g.Henna.HasAccepted(),
		HasRSVPedWedding:   g.Wedding.HasResponded(),
		HasRSVPedHenna:     g.Henna.HasResponded(),
		WeddingGuests:      newGuestResponses(g.Wedding.Guests),
		HennaGuests:        newGuestResponses(g.Henna.Guests),
	}
}

func newGuestResponses(guests []models.Guest) []guestResponse {
	out := make([]guestResponse, 0, len(guests))
	for _, g := range guests {
		out = append(out, guestResponse{
			ID:        g.ID,
			GroupID:   g.GroupID,
			Name:      g.Name,
			CreatedAt: g.CreatedAt,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
