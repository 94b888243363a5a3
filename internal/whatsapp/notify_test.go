package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

type sentMessage struct {
	phone, text string
}

type fakeSender struct {
	sent    []sentMessage
	failFor map[string]bool
}

func (f *fakeSender) SendMessage(_ context.Context, phone, text string) error {
	if f.failFor[phone] {
		return errors.New("not on whatsapp")
	}
	f.sent = append(f.sent, sentMessage{phone: phone, text: text})
	return nil
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := map[string]string{
		"+972 50-123-4567": "972501234567",
		"0501234567":       "972501234567",
		"9720501234567":    "972501234567",
		"(555) 123-4567":   "5551234567",
		"+1 555 123 4567":  "15551234567",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhoneNumber(in), "input %q", in)
	}
}

func TestFormatRSVPNotification(t *testing.T) {
	g := models.Group{
		Name: "The Smiths",
		Wedding: models.EventState{
			Status: models.RSVPAccepted,
			Guests: []models.Guest{{Name: "Alice"}, {Name: "Bob"}},
		},
		Henna: models.EventState{Status: models.RSVPDeclined},
	}

	wedding := FormatRSVPNotification(g, models.EventWedding)
	assert.Contains(t, wedding, "*The Smiths* accepted the Reception")
	assert.Contains(t, wedding, "2 additional guest(s)")
	assert.Contains(t, wedding, "• Alice")
	assert.Contains(t, wedding, "• Bob")

	assert.Equal(t, "❌ *The Smiths* declined the Henna.", FormatRSVPNotification(g, models.EventHenna))

	g.Wedding.Guests = nil
	assert.Contains(t, FormatRSVPNotification(g, models.EventWedding), "with no additional guests.")
}

func TestHostNotifierSendsToEveryHost(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"111": true}}
	n := NewHostNotifier(sender, []string{"111", "222", "333"}, zerolog.Nop())

	g := models.Group{ID: 7, Name: "Lee", Henna: models.EventState{Status: models.RSVPDeclined}}
	err := n.NotifyRSVP(context.Background(), g, models.EventHenna)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "111")

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "222", sender.sent[0].phone)
	assert.Equal(t, "333", sender.sent[1].phone)
	assert.Equal(t, FormatRSVPNotification(g, models.EventHenna), sender.sent[0].text)
}

func TestFormatInvitation(t *testing.T) {
	msg := FormatInvitation("The Patels", "https://invite.example/abc", "Amira", "Yusuf")
	assert.Contains(t, msg, "Dear The Patels")
	assert.Contains(t, msg, "*Amira* & *Yusuf*")
	assert.Contains(t, msg, "https://invite.example/abc")
}
