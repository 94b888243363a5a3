package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/admin"
	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage/sqlite"
	"wedding-rsvp/internal/whatsapp"
)

type cli struct {
	scanner *bufio.Scanner
	admin   *admin.Service
	cfg     *config.Config
	log     zerolog.Logger
	wa      *whatsapp.Service
}

func main() {
	fmt.Println("🎉 Wedding RSVP Admin")
	fmt.Println("=====================")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(cfg.Level()).
		With().Timestamp().Str("service", "rsvp-admin").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.DatabasePath, log)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	c := &cli{
		scanner: bufio.NewScanner(os.Stdin),
		admin: admin.NewService(store, &admin.Config{
			InvitationBaseURL: cfg.InvitationBaseURL,
			BrideName:         cfg.BrideName,
			GroomName:         cfg.GroomName,
		}, log),
		cfg: cfg,
		log: log,
	}
	defer func() {
		if c.wa != nil {
			c.wa.Disconnect()
		}
	}()

	c.run(ctx)
	fmt.Println("Goodbye! 👋")
}

func (c *cli) run(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Println("\nCommands:")
		fmt.Println("  1. Add group")
		fmt.Println("  2. List groups")
		fmt.Println("  3. Show invitation link")
		fmt.Println("  4. Send invitation via WhatsApp")
		fmt.Println("  5. Exit")
		fmt.Print("\nEnter command (1-5): ")

		if !c.scanner.Scan() {
			return
		}

		switch strings.TrimSpace(c.scanner.Text()) {
		case "1":
			c.addGroup(ctx)
		case "2":
			c.listGroups(ctx)
		case "3":
			c.showInvitation(ctx)
		case "4":
			c.sendInvitation(ctx)
		case "5":
			fmt.Println("Exiting...")
			return
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func (c *cli) prompt(label string) (string, bool) {
	fmt.Print(label)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *cli) promptYesNo(label string) (bool, bool) {
	answer, ok := c.prompt(label + " (y/n): ")
	if !ok {
		return false, false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", true
}

func (c *cli) promptLimit(label string) (int, bool) {
	for {
		answer, ok := c.prompt(label + " (0 = none, -1 = unlimited): ")
		if !ok {
			return 0, false
		}
		if answer == "" {
			return 0, true
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= -1 {
			return n, true
		}
		fmt.Println("Please enter -1, 0 or a positive number.")
	}
}

func (c *cli) addGroup(ctx context.Context) {
	var in admin.AddGroupInput
	var ok bool
	if in.Name, ok = c.prompt("Enter group name: "); !ok {
		return
	}
	if in.InvitedToNikkah, ok = c.promptYesNo("Invited to the Nikkah?"); !ok {
		return
	}
	if in.InvitedToWedding, ok = c.promptYesNo("Invited to the Reception?"); !ok {
		return
	}
	if in.InvitedToWedding {
		if in.MaxGuestsWedding, ok = c.promptLimit("Max additional guests for the Reception"); !ok {
			return
		}
	}
	if in.InvitedToHenna, ok = c.promptYesNo("Invited to the Henna?"); !ok {
		return
	}
	if in.InvitedToHenna {
		if in.MaxGuestsHenna, ok = c.promptLimit("Max additional guests for the Henna"); !ok {
			return
		}
	}

	group, err := c.admin.CreateGroup(ctx, in)
	if err != nil {
		fmt.Printf("❌ Error adding group: %v\n", err)
		return
	}
	fmt.Printf("✅ Added group %q (ID %d)\n", group.Name, group.ID)
	fmt.Printf("Invitation link: %s\n", c.admin.InvitationURL(group))
}

func (c *cli) listGroups(ctx context.Context) {
	groups, err := c.admin.ListGroups(ctx)
	if err != nil {
		fmt.Printf("❌ Error listing groups: %v\n", err)
		return
	}
	if len(groups) == 0 {
		fmt.Println("\nNo groups found.")
		return
	}
	fmt.Printf("\n📋 All Groups (%d total):\n", len(groups))
	if err := admin.WriteGroupTable(os.Stdout, groups); err != nil {
		fmt.Printf("❌ Error printing groups: %v\n", err)
	}
}

func (c *cli) selectGroup(ctx context.Context) (models.Group, bool) {
	answer, ok := c.prompt("Enter group ID: ")
	if !ok {
		return models.Group{}, false
	}
	id, err := strconv.ParseInt(answer, 10, 64)
	if err != nil {
		fmt.Println("Invalid group ID.")
		return models.Group{}, false
	}
	groups, err := c.admin.ListGroups(ctx)
	if err != nil {
		fmt.Printf("❌ Error loading groups: %v\n", err)
		return models.Group{}, false
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	fmt.Printf("No group with ID %d.\n", id)
	return models.Group{}, false
}

func (c *cli) showInvitation(ctx context.Context) {
	group, ok := c.selectGroup(ctx)
	if !ok {
		return
	}
	link := c.admin.InvitationURL(group)
	fmt.Printf("\n%s\n%s\n", group.Name, link)
	qr, err := admin.InvitationQR(link)
	if err != nil {
		fmt.Printf("❌ Error rendering QR code: %v\n", err)
		return
	}
	fmt.Println(qr)
}

func (c *cli) sendInvitation(ctx context.Context) {
	if !c.cfg.WhatsAppEnabled {
		fmt.Println("WhatsApp is disabled. Set WHATSAPP_ENABLED=true to send invitations.")
		return
	}
	group, ok := c.selectGroup(ctx)
	if !ok {
		return
	}
	phoneNumber, ok := c.prompt("Enter phone number (with country code, e.g., 972501234567): ")
	if !ok || phoneNumber == "" {
		return
	}

	if c.wa == nil {
		wa, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: c.cfg.WhatsAppDataDir, QROut: os.Stdout}, c.log)
		if err != nil {
			fmt.Printf("❌ Error initializing WhatsApp: %v\n", err)
			return
		}
		fmt.Println("Connecting to WhatsApp...")
		if err := wa.Connect(ctx); err != nil {
			fmt.Printf("❌ Error connecting to WhatsApp: %v\n", err)
			return
		}
		c.wa = wa
	}

	fmt.Printf("\nSending invitation to %s (%s)...\n", group.Name, phoneNumber)
	if err := c.admin.SendInvitation(ctx, c.wa, phoneNumber, group); err != nil {
		fmt.Printf("❌ Error sending invitation: %v\n", err)
		return
	}
	fmt.Println("✅ Invitation sent successfully!")
}
