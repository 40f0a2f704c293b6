package rest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripquorum/tripquorum/internal/app/search"
	"github.com/tripquorum/tripquorum/internal/app/session"
	"github.com/tripquorum/tripquorum/internal/domain/planning"
	"github.com/tripquorum/tripquorum/internal/infra/config"
)

const (
	participantToken = "participant_token"
	adminToken       = "admin_token"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubResolver struct {
	err error
}

func (s *stubResolver) ResolveHotel(ctx context.Context, rawText string) (planning.HotelInfo, error) {
	if s.err != nil {
		return planning.HotelInfo{}, s.err
	}
	return planning.HotelInfo{
		RawInput:   rawText,
		Name:       "Grand Lagoi Hotel",
		Area:       "Lagoi Bay",
		Confidence: planning.ConfidenceHigh,
	}, nil
}

type stubSearcher struct {
	err error
}

func (s *stubSearcher) SearchOptions(ctx context.Context, query search.Query) ([]planning.Option, error) {
	if s.err != nil {
		return nil, s.err
	}
	label := "Activity"
	if query.Category == planning.CategoryEatery {
		label = "Eatery"
	}
	options := make([]planning.Option, 0, query.Count)
	for i := 1; i <= query.Count; i++ {
		options = append(options, planning.NewOption(fmt.Sprintf("%s %d", label, i), query.Category, planning.SourceRecord{Provider: "stub"}))
	}
	return options, nil
}

type stubNarrator struct {
	err error
}

func (s *stubNarrator) NarrateItinerary(ctx context.Context, hotel planning.HotelInfo, days []planning.DayPlan) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "A wonderful trip awaits...", nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{APIToken: participantToken},
		Admin:  config.AdminConfig{Token: adminToken},
		Trip: config.TripConfig{
			Place:       "Bintan",
			StartDate:   "2026-03-14",
			EndDate:     "2026-03-17",
			Preferences: []string{"kid-friendly"},
		},
	}
}

func newTestRouter(cfg *config.Config, resolver session.HotelResolver, searcher session.OptionSearcher, narrator *stubNarrator) *gin.Engine {
	return NewRouter(cfg, session.NewEngine(cfg, resolver, searcher, narrator))
}

func defaultRouter() *gin.Engine {
	return newTestRouter(testConfig(), &stubResolver{}, &stubSearcher{}, &stubNarrator{})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func participantBody(id string) map[string]any {
	return map[string]any{"participant_id": id}
}

// advanceToVoting drives a chat to the activity voting stage and returns
// the voting state.
func advanceToVoting(t *testing.T, router *gin.Engine, chat string, days int) Response {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/chats/"+chat+"/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "grand lagoi"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/"+chat+"/hotel/confirm", participantToken, participantBody("alice"))
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/"+chat+"/days", participantToken,
		map[string]any{"participant_id": "alice", "days": days})
	require.Equal(t, http.StatusOK, w.Code)
	return decodeResponse(t, w)
}

func TestHealthWithoutAuth(t *testing.T) {
	w := doJSON(t, defaultRouter(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestBearerAuth(t *testing.T) {
	router := defaultRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/chats/c1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/chats/c1", "wrong_token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid token reaches the handler (404, the chat does not exist yet)
	w = doJSON(t, router, http.MethodGet, "/api/v1/chats/c1", participantToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBearerAuthDisabledWhenUnset(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIToken = ""
	router := newTestRouter(cfg, &stubResolver{}, &stubSearcher{}, &stubNarrator{})

	w := doJSON(t, router, http.MethodGet, "/api/v1/chats/c1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code) // past auth, unknown chat
}

func TestSubmitHotel(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubResolver{}, &stubSearcher{}, &stubNarrator{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "grand lagoi"})
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "hotel_found", resp.Code)
	assert.Equal(t, "Found a hotel match. Is this the one?", resp.Message)
	require.NotNil(t, resp.State)
	assert.Equal(t, "confirming_hotel", resp.State.Stage)
	require.NotNil(t, resp.State.Hotel)
	assert.Equal(t, "Grand Lagoi Hotel", resp.State.Hotel.Name)
	assert.Equal(t, "high", resp.State.Hotel.Confidence)
}

func TestSubmitHotelValidation(t *testing.T) {
	router := defaultRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/hotel", participantToken,
		map[string]any{"participant_id": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid_request", resp.Code)
}

func TestHotelNotFoundStatus(t *testing.T) {
	resolver := &stubResolver{err: errors.Wrap(planning.ErrHotelNotFound, "nothing matched")}
	router := newTestRouter(testConfig(), resolver, &stubSearcher{}, &stubNarrator{})

	w := doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "???"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "hotel_not_found", resp.Code)
	assert.Equal(t, "awaiting_hotel", resp.State.Stage)
}

func TestSearchUnavailableStatus(t *testing.T) {
	searcher := &stubSearcher{err: errors.Wrap(planning.ErrProviderUnavailable, "search down")}
	router := newTestRouter(testConfig(), &stubResolver{}, searcher, &stubNarrator{})

	doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "grand lagoi"})
	doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/hotel/confirm", participantToken, participantBody("alice"))

	w := doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/days", participantToken,
		map[string]any{"participant_id": "alice", "days": 2})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "provider_unavailable", resp.Code)
	assert.Equal(t, "awaiting_days", resp.State.Stage)
}

func TestRejectionStatuses(t *testing.T) {
	router := defaultRouter()

	// Wrong stage: day selection before any hotel
	w := doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/days", participantToken,
		map[string]any{"participant_id": "alice", "days": 2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "wrong_stage", decodeResponse(t, w).Code)

	// Invalid day count
	doJSON(t, router, http.MethodPost, "/api/v1/chats/c2/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "grand lagoi"})
	doJSON(t, router, http.MethodPost, "/api/v1/chats/c2/hotel/confirm", participantToken, participantBody("alice"))
	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/c2/days", participantToken,
		map[string]any{"participant_id": "alice", "days": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_days", decodeResponse(t, w).Code)

	// Unknown option id during voting
	advanceToVoting(t, router, "c3", 2)
	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/c3/votes", participantToken,
		map[string]any{"participant_id": "alice", "option_id": "no-such-option"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "invalid_option", decodeResponse(t, w).Code)
}

func TestGetState(t *testing.T) {
	router := defaultRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/chats/c1", participantToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_chat", decodeResponse(t, w).Code)

	doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "grand lagoi"})

	w = doJSON(t, router, http.MethodGet, "/api/v1/chats/c1", participantToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.State)
	assert.Equal(t, "confirming_hotel", resp.State.Stage)
}

func TestFullFlowOverHTTP(t *testing.T) {
	router := defaultRouter()

	resp := advanceToVoting(t, router, "c1", 2)
	assert.Equal(t, "activity_voting", resp.Code)
	require.Len(t, resp.State.Options, 6)

	// Vote an activity, then close the round
	w := doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/votes", participantToken,
		map[string]any{"participant_id": "alice", "option_id": resp.State.Options[0].Option.ID})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vote_added", decodeResponse(t, w).Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/done", participantToken, participantBody("alice"))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeResponse(t, w)
	assert.Equal(t, "food_voting", resp.Code)
	require.Len(t, resp.State.Options, 6)
	assert.Len(t, resp.State.FrozenActivities, 1)

	// Close food voting without votes: defaults kick in
	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/done", participantToken, participantBody("bob"))
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeResponse(t, w)
	assert.Equal(t, "plan_ready", resp.Code)
	assert.NotEmpty(t, resp.Defaults)
	assert.Equal(t, "review", resp.State.Stage)
	require.NotNil(t, resp.State.Itinerary)
	assert.Len(t, resp.State.Itinerary.Days, 2)
	assert.Equal(t, "A wonderful trip awaits...", resp.State.Itinerary.Text)
	assert.Contains(t, resp.State.Itinerary.Plain, "Day 1")

	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/accept", participantToken, participantBody("alice"))
	assert.Equal(t, http.StatusOK, w.Code)
	resp = decodeResponse(t, w)
	assert.Equal(t, "accepted", resp.Code)
	assert.Equal(t, "complete", resp.State.Stage)

	// The accepted session rejects further mutation
	w = doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/done", participantToken, participantBody("alice"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_completed", decodeResponse(t, w).Code)
}

func TestAdminAuth(t *testing.T) {
	router := defaultRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/chats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/chats", nil)
	req.Header.Set(AdminTokenHeader, "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/chats", nil)
	req.Header.Set(AdminTokenHeader, adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminListAndReset(t *testing.T) {
	router := defaultRouter()

	doJSON(t, router, http.MethodPost, "/api/v1/chats/beta/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "grand lagoi"})
	doJSON(t, router, http.MethodPost, "/api/v1/chats/alpha/hotel", participantToken,
		map[string]any{"participant_id": "zoe", "text": "grand lagoi"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/chats", nil)
	req.Header.Set(AdminTokenHeader, adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Chats []ChatSummary `json:"chats"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, 2, listing.Count)
	assert.Equal(t, "alpha", listing.Chats[0].ChatID) // sorted by chat id
	assert.Equal(t, "beta", listing.Chats[1].ChatID)
	assert.Equal(t, "confirming_hotel", listing.Chats[0].Stage)
	assert.Equal(t, "Grand Lagoi Hotel", listing.Chats[0].Hotel)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/chats/alpha/reset", nil)
	req.Header.Set(AdminTokenHeader, adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "reset_done", resp.Code)
	assert.Equal(t, "awaiting_hotel", resp.State.Stage)

	// Resetting an unknown chat must not create it
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/chats/nope/reset", nil)
	req.Header.Set(AdminTokenHeader, adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_chat", decodeResponse(t, w).Code)
}

func TestStreamEventsUnknownChat(t *testing.T) {
	router := defaultRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/chats/nope/events", participantToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_chat", decodeResponse(t, w).Code)
}

func TestStreamEventsInitialState(t *testing.T) {
	router := defaultRouter()

	doJSON(t, router, http.MethodPost, "/api/v1/chats/c1/hotel", participantToken,
		map[string]any{"participant_id": "alice", "text": "grand lagoi"})

	// A pre-cancelled context lets the handler write the initial event and
	// return without blocking on the stream loop.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/c1/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+participantToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "initial_state")
	assert.Contains(t, body, `"stage":"confirming_hotel"`)
	assert.Contains(t, body, `"chat_id":"c1"`)
	assert.Contains(t, body, "Grand Lagoi Hotel") // initial event carries state
}

func TestStreamEventsReceivesUpdates(t *testing.T) {
	router := defaultRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	postJSON := func(path string, body any) {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+participantToken)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	postJSON("/api/v1/chats/c1/hotel", map[string]any{"participant_id": "alice", "text": "grand lagoi"})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/chats/c1/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+participantToken)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Watchdog so a missing event fails the test instead of hanging it
	watchdog := time.AfterFunc(5*time.Second, func() { resp.Body.Close() })
	defer watchdog.Stop()

	scanner := bufio.NewScanner(resp.Body)
	var seen strings.Builder
	readUntil := func(marker string) bool {
		for scanner.Scan() {
			seen.WriteString(scanner.Text())
			seen.WriteString("\n")
			if strings.Contains(seen.String(), marker) {
				return true
			}
		}
		return false
	}

	require.True(t, readUntil("initial_state"), "no initial event, got: %s", seen.String())

	// A stage change after the stream opened must arrive as an event
	postJSON("/api/v1/chats/c1/hotel/confirm", participantBody("bob"))
	require.True(t, readUntil("stage_changed"), "no stage event, got: %s", seen.String())
	assert.Contains(t, seen.String(), `"stage":"awaiting_days"`)
}
