package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
)

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

var eventTitles = map[models.EventKind]string{
	models.EventNikkah:  "Nikkah",
	models.EventWedding: "Reception",
	models.EventHenna:   "Henna",
}

// HostNotifier messages the hosts whenever a group responds.
type HostNotifier struct {
	sender MessageSender
	hosts  []string
	log    zerolog.Logger
}

// NewHostNotifier creates a notifier sending to every host number.
func NewHostNotifier(sender MessageSender, hosts []string, log zerolog.Logger) *HostNotifier {
	return &HostNotifier{
		sender: sender,
		hosts:  hosts,
		log:    log.With().Str("component", "HostNotifier").Logger(),
	}
}

// NotifyRSVP sends the RSVP summary to each host, attempting all of them.
func (n *HostNotifier) NotifyRSVP(ctx context.Context, group models.Group, kind models.EventKind) error {
	message := FormatRSVPNotification(group, kind)
	var errs []error
	for _, host := range n.hosts {
		if err := n.sender.SendMessage(ctx, host, message); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", host, err))
			continue
		}
		n.log.Debug().Str("host", host).Int64("group_id", group.ID).Msg("Host notified")
	}
	return errors.Join(errs...)
}

// FormatRSVPNotification renders the message hosts receive for one RSVP.
func FormatRSVPNotification(group models.Group, kind models.EventKind) string {
	state, _ := group.State(kind)
	title := eventTitles[kind]

	var b strings.Builder
	if state.HasAccepted() {
		fmt.Fprintf(&b, "✅ *%s* accepted the %s", group.Name, title)
		if len(state.Guests) == 0 {
			b.WriteString(" with no additional guests.")
		} else {
			fmt.Fprintf(&b, " with %d additional guest(s):", len(state.Guests))
			for _, guest := range state.Guests {
				fmt.Fprintf(&b, "\n• %s", guest.Name)
			}
		}
	} else {
		fmt.Fprintf(&b, "❌ *%s* declined the %s.", group.Name, title)
	}
	return b.String()
}

// FormatInvitation renders the invitation message carrying a group's personal link.
func FormatInvitation(groupName, link, brideName, groomName string) string {
	return fmt.Sprintf(
		"🎉 *Wedding Invitation*\n\n"+
			"Dear %s,\n\n"+
			"You are cordially invited to celebrate the wedding of\n\n"+
			"*%s* & *%s*\n\n"+
			"Please view the details and RSVP using your personal link:\n%s",
		groupName, brideName, groomName, link,
	)
}
