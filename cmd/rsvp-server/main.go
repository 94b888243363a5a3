package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage/sqlite"
	"wedding-rsvp/internal/whatsapp"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "rsvp-server").Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = log.Level(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// run serves the API until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := sqlite.Open(ctx, cfg.DatabasePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var opts []rsvp.Option
	if cfg.NotifiesHosts() {
		wa, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: cfg.WhatsAppDataDir, QROut: os.Stdout}, log)
		if err != nil {
			return err
		}
		log.Info().Msg("Connecting to WhatsApp...")
		if err := wa.Connect(ctx); err != nil {
			return err
		}
		defer wa.Disconnect()
		opts = append(opts, rsvp.WithNotifier(whatsapp.NewHostNotifier(wa, cfg.WhatsAppHostNumbers, log)))
	} else if cfg.WhatsAppEnabled {
		log.Warn().Msg("WHATSAPP_HOST_NUMBERS is empty, RSVP notifications are disabled")
	}

	processor := rsvp.NewProcessor(store, log, opts...)
	resolver := rsvp.NewResolver(store)
	h := handler.NewRSVPHandler(resolver, processor, &handler.Config{AllowedOrigins: cfg.AllowedOrigins}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
