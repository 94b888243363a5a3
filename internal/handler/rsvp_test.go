package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/sqlite"
)

type testServer struct {
	handler http.Handler
	store   *sqlite.Store
	group   models.Group
}

func newTestServer(t *testing.T, origins ...string) *testServer {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "rsvp.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	wedding, err := models.Capped(2)
	require.NoError(t, err)
	group, err := store.CreateGroup(context.Background(), storage.NewGroup{
		Name:             "The Khan Family",
		Token:            "secret-token",
		InvitedToNikkah:  false,
		InvitedToWedding: true,
		InvitedToHenna:   true,
		WeddingLimit:     wedding,
		HennaLimit:       models.NoGuests(),
	})
	require.NoError(t, err)

	h := NewRSVPHandler(
		rsvp.NewResolver(store),
		rsvp.NewProcessor(store, zerolog.Nop()),
		&Config{AllowedOrigins: origins},
		zerolog.Nop(),
	)
	return &testServer{handler: h.Routes(), store: store, group: group}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestVerifyAndStatusReturnSnapshot(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/groups/verify/secret-token", "/api/groups/status/secret-token"} {
		rec := srv.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		raw := decode[map[string]any](t, rec)
		assert.Equal(t, "The Khan Family", raw["name"])
		assert.Equal(t, false, raw["invited_to_nikkah"])
		assert.Equal(t, true, raw["invited_to_wedding"])
		assert.EqualValues(t, 2, raw["max_guests_wedding"])
		assert.EqualValues(t, 0, raw["max_guests_henna"])
		assert.Equal(t, false, raw["has_rsvped_wedding"])
		assert.Equal(t, []any{}, raw["wedding_guests"])
		assert.Equal(t, []any{}, raw["henna_guests"])
		assert.NotContains(t, raw, "token")
	}
}

func TestUnknownTokenIs404Everywhere(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/groups/verify/nope", ""},
		{http.MethodGet, "/api/groups/status/nope", ""},
		{http.MethodPost, "/api/groups/rsvp/nope", `{"event":"wedding","accept":true,"guests":[]}`},
		{http.MethodGet, "/api/groups/verify/SECRET-TOKEN", ""},
	} {
		rec := srv.do(t, tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Equal(t, "Invalid invitation token", decode[errorResponse](t, rec).Detail)
	}

	g, err := srv.store.GetGroup(context.Background(), srv.group.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPNotResponded, g.Wedding.Status)
}

func TestSubmitRSVP(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/groups/rsvp/secret-token",
		`{"event":"wedding","accept":true,"guests":[" Alice ","Bob"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[rsvpResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "RSVP for wedding submitted successfully", resp.Message)
	require.NotNil(t, resp.Group)
	assert.True(t, resp.Group.HasAcceptedWedding)
	assert.True(t, resp.Group.HasRSVPedWedding)
	assert.False(t, resp.Group.HasRSVPedHenna)
	require.Len(t, resp.Group.WeddingGuests, 2)
	assert.Equal(t, "Alice", resp.Group.WeddingGuests[0].Name)
	assert.Equal(t, srv.group.ID, resp.Group.WeddingGuests[0].GroupID)
	assert.False(t, resp.Group.WeddingGuests[0].CreatedAt.IsZero())

	status := decode[groupResponse](t, srv.do(t, http.MethodGet, "/api/groups/status/secret-token", ""))
	assert.Equal(t, *resp.Group, status)
}

func TestSubmitRSVPDecline(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/groups/rsvp/secret-token", `{"event":"henna","accept":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[rsvpResponse](t, rec)
	assert.True(t, resp.Group.HasRSVPedHenna)
	assert.False(t, resp.Group.HasAcceptedHenna)
	assert.Empty(t, resp.Group.HennaGuests)
}

func TestSubmitRSVPBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"nikkah", `{"event":"nikkah","accept":true}`, "Event must be either 'wedding' or 'henna'"},
		{"unknown event", `{"event":"party","accept":true}`, "Event must be either 'wedding' or 'henna'"},
		{"over cap", `{"event":"wedding","accept":true,"guests":["a","b","c"]}`, "Cannot add 3 guests. Maximum allowed: 2"},
		{"no guests allowed", `{"event":"henna","accept":true,"guests":["a"]}`, "This invitation does not allow additional guests (maximum 0, got 1)"},
		{"blank name", `{"event":"wedding","accept":true,"guests":["Alice","  "]}`, "Guest names cannot be empty"},
		{"missing accept", `{"event":"wedding"}`, "Missing required field: accept"},
		{"missing event", `{"accept":true}`, "Missing required field: event"},
		{"malformed", `{"event":`, "Invalid request body"},
		{"wrong type", `{"event":"wedding","accept":"yes"}`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/groups/rsvp/secret-token", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.detail, decode[errorResponse](t, rec).Detail)
		})
	}

	g, err := srv.store.GetGroup(context.Background(), srv.group.ID)
	require.NoError(t, err)
	assert.False(t, g.Wedding.HasResponded())
	assert.False(t, g.Henna.HasResponded())
}

type failingStore struct{}

func (failingStore) Resolve(context.Context, string) (models.Group, error) {
	return models.Group{}, errors.New("disk I/O error")
}

func (failingStore) Submit(context.Context, rsvp.Submission) (models.Group, error) {
	return models.Group{}, errors.New("database is locked")
}

func TestStoreFailuresAre500(t *testing.T) {
	h := NewRSVPHandler(failingStore{}, failingStore{}, nil, zerolog.Nop()).Routes()

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/groups/verify/tok", ""},
		{http.MethodPost, "/api/groups/rsvp/tok", `{"event":"wedding","accept":false}`},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decode[errorResponse](t, rec).Detail)
		assert.NotContains(t, rec.Body.String(), "disk")
	}
}

func TestUnknownRoutesAreJSON(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/nope"},
		{http.MethodGet, "/api/groups/rsvp/secret-token"},
		{http.MethodPost, "/api/groups/verify/secret-token"},
	} {
		rec := srv.do(t, tc.method, tc.path, "")
		require.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "Not found", decode[errorResponse](t, rec).Detail)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/health", "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, "https://invite.example")

	preflight := httptest.NewRequest(http.MethodOptions, "/api/groups/rsvp/secret-token", nil)
	preflight.Header.Set("Origin", "https://invite.example")
	preflight.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://invite.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/api/groups/verify/secret-token", nil)
	other.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	srv := newTestServer(t, "*")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
