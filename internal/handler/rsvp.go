package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
)

const maxBodyBytes = 64 << 10

// GroupResolver looks a group up by its invitation token.
type GroupResolver interface {
	Resolve(ctx context.Context, token string) (models.Group, error)
}

// RSVPSubmitter records one RSVP and returns the updated group.
type RSVPSubmitter interface {
	Submit(ctx context.Context, s rsvp.Submission) (models.Group, error)
}

type Config struct {
	AllowedOrigins []string
}

type RSVPHandler struct {
	resolver  GroupResolver
	submitter RSVPSubmitter
	validate  *validator.Validate
	config    *Config
	log       zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(resolver GroupResolver, submitter RSVPSubmitter, cfg *Config, log zerolog.Logger) *RSVPHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if cfg == nil {
		cfg = &Config{}
	}
	return &RSVPHandler{
		resolver:  resolver,
		submitter: submitter,
		validate:  v,
		config:    cfg,
		log:       log.With().Str("component", "HTTP").Logger(),
	}
}

// Routes returns the API mounted under /api with logging and CORS applied.
func (h *RSVPHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/groups/verify/{token}", h.handleGroup)
	mux.HandleFunc("GET /api/groups/status/{token}", h.handleGroup)
	mux.HandleFunc("POST /api/groups/rsvp/{token}", h.handleRSVP)
	mux.HandleFunc("/api/", h.handleNotFound)

	return withLogging(h.log, cors(h.config.AllowedOrigins, mux))
}

type rsvpRequest struct {
	Event  string   `json:"event" validate:"required"`
	Accept *bool    `json:"accept" validate:"required"`
	Guests []string `json:"guests"`
}

func (h *RSVPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleNotFound catches unknown routes and wrong methods under /api.
func (h *RSVPHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not found"})
}

// handleGroup serves both verify and status; they share one contract.
func (h *RSVPHandler) handleGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.resolver.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupResponse(group))
}

func (h *RSVPHandler) handleRSVP(w http.ResponseWriter, r *http.Request) {
	var req rsvpRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: validationMessage(err)})
		return
	}

	group, err := h.submitter.Submit(r.Context(), rsvp.Submission{
		Token:  r.PathValue("token"),
		Event:  req.Event,
		Accept: *req.Accept,
		Guests: req.Guests,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := newGroupResponse(group)
	writeJSON(w, http.StatusOK, rsvpResponse{
		Success: true,
		Message: fmt.Sprintf("RSVP for %s submitted successfully", req.Event),
		Group:   &resp,
	})
}

// writeError maps RSVP failures to 404/400 and hides everything else behind a 500.
func (h *RSVPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rsvpErr *rsvp.Error
	if errors.As(err, &rsvpErr) {
		status := http.StatusBadRequest
		if rsvpErr.Code == rsvp.CodeTokenNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Detail: rsvpErr.Message})
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fmt.Sprintf("Missing required field: %s", strings.Join(fields, ", "))
}
