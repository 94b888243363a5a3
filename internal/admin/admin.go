// Package admin provisions groups and hands out their invitation links.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/token"
	"wedding-rsvp/internal/whatsapp"
)

// maxTokenAttempts bounds retries when a generated token collides.
const maxTokenAttempts = 5

// AddGroupInput describes a group to provision. Caps use 0 for no extra
// guests, -1 for unlimited and n > 0 for at most n.
type AddGroupInput struct {
	Name             string `validate:"required,max=200"`
	MaxGuestsWedding int    `validate:"min=-1"`
	MaxGuestsHenna   int    `validate:"min=-1"`
	InvitedToNikkah  bool
	InvitedToWedding bool
	InvitedToHenna   bool
}

type Config struct {
	InvitationBaseURL string
	BrideName         string
	GroomName         string
}

type Service struct {
	store    storage.Store
	cfg      *Config
	validate *validator.Validate
	newToken func() (string, error)
	log      zerolog.Logger
}

// NewService creates the admin service
func NewService(store storage.Store, cfg *Config, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		newToken: token.Generate,
		log:      log.With().Str("component", "Admin").Logger(),
	}
}

// CreateGroup validates the input and stores a new group under a fresh token.
func (s *Service) CreateGroup(ctx context.Context, in AddGroupInput) (models.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return models.Group{}, fmt.Errorf("invalid group: %w", err)
	}
	wedding, err := models.ParseGuestLimit(in.MaxGuestsWedding)
	if err != nil {
		return models.Group{}, fmt.Errorf("wedding: %w", err)
	}
	henna, err := models.ParseGuestLimit(in.MaxGuestsHenna)
	if err != nil {
		return models.Group{}, fmt.Errorf("henna: %w", err)
	}

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		tok, err := s.newToken()
		if err != nil {
			return models.Group{}, fmt.Errorf("generate token: %w", err)
		}
		group, err := s.store.CreateGroup(ctx, storage.NewGroup{
			Name:             in.Name,
			Token:            tok,
			InvitedToNikkah:  in.InvitedToNikkah,
			InvitedToWedding: in.InvitedToWedding,
			InvitedToHenna:   in.InvitedToHenna,
			WeddingLimit:     wedding,
			HennaLimit:       henna,
		})
		if errors.Is(err, storage.ErrAlreadyExists) {
			s.log.Warn().Int("attempt", attempt).Msg("Token collision, retrying")
			continue
		}
		if err != nil {
			return models.Group{}, fmt.Errorf("failed to add group: %w", err)
		}
		s.log.Info().Int64("group_id", group.ID).Str("name", group.Name).Msg("Group created")
		return group, nil
	}
	return models.Group{}, fmt.Errorf("failed to add group: no unique token after %d attempts", maxTokenAttempts)
}

// ListGroups returns all groups.
func (s *Service) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.store.ListGroups(ctx)
}

// InvitationURL returns the shareable link for a group.
func (s *Service) InvitationURL(g models.Group) string {
	return strings.TrimRight(s.cfg.InvitationBaseURL, "/") + "/" + g.Token
}

// SendInvitation messages a group's invitation link to a phone number.
func (s *Service) SendInvitation(ctx context.Context, sender whatsapp.MessageSender, phoneNumber string, g models.Group) error {
	msg := whatsapp.FormatInvitation(g.Name, s.InvitationURL(g), s.cfg.BrideName, s.cfg.GroomName)
	if err := sender.SendMessage(ctx, phoneNumber, msg); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	s.log.Info().Int64("group_id", g.ID).Msg("Invitation sent")
	return nil
}

// InvitationQR renders url as a QR code for a terminal.
func InvitationQR(url string) (string, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return q.ToSmallString(false), nil
}

// WriteGroupTable prints one row per group.
func WriteGroupTable(w io.Writer, groups []models.Group) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tNikkah\tWedding\tHenna\tMaxW\tMaxH\tRSVP W\tRSVP H\tToken")
	for _, g := range groups {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			g.ID, g.Name,
			yesNo(g.InvitedToNikkah), yesNo(g.InvitedToWedding), yesNo(g.InvitedToHenna),
			g.WeddingLimit.Int(), g.HennaLimit.Int(),
			rsvpLabel(g.Wedding), rsvpLabel(g.Henna),
			g.Token,
		)
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func rsvpLabel(s models.EventState) string {
	switch s.Status {
	case models.RSVPAccepted:
		return fmt.Sprintf("Yes (+%d)", len(s.Guests))
	case models.RSVPDeclined:
		return "No"
	default:
		return "-"
	}
}
