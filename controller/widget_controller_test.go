package controller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"igensys-backend/config"
	"igensys-backend/registry"
	"igensys-backend/scoring"
	"igensys-backend/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLeadStore struct {
	mock.Mock
}

func (m *mockLeadStore) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockLeadStore) InsertLead(ctx context.Context, lead *store.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *mockLeadStore) ListLeadsByTenant(ctx context.Context, tenantID string, limit int) ([]store.Lead, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Lead), args.Error(1)
}

func (m *mockLeadStore) CountLeads(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockLeadStore) CountEvents(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockLeadStore) InsertEvent(ctx context.Context, evt store.Event) error {
	return m.Called(ctx, evt).Error(0)
}

func (m *mockLeadStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func testTenants() map[string]registry.Tenant {
	return map[string]registry.Tenant{
		"acme": {
			Active:         true,
			BusinessName:   "Acme Corp",
			BusinessType:   "Manufacturing",
			KeyServices:    "Widgets",
			TargetAudience: "Factories",
			BusinessInfo:   "Family business since 1950",
			OwnerEmail:     "owner@acme.test",
		},
		"expired": {Active: false, BusinessName: "Expired Inc", OwnerEmail: "owner@expired.test"},
	}
}

func newTestController(t *testing.T, cfg config.Config, leads LeadStore) *Controller {
	t.Helper()
	reg := registry.New(filepath.Join(t.TempDir(), "tenants.json"))
	require.NoError(t, reg.Save(registry.Document{Tenants: testTenants()}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, leads, reg, nil, logger)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestBotStatusMissingTenantID(t *testing.T) {
	c := newTestController(t, config.Config{}, &mockLeadStore{})
	rr := httptest.NewRecorder()
	c.BotStatus(rr, httptest.NewRequest(http.MethodGet, "/bot_status", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing tenant_id", decodeBody(t, rr)["error"])
}

func TestBotStatusUnregisteredTenant(t *testing.T) {
	c := newTestController(t, config.Config{}, &mockLeadStore{})
	rr := httptest.NewRecorder()
	c.BotStatus(rr, httptest.NewRequest(http.MethodGet, "/bot_status?tenant_id=ghost", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "inactive", body["status"])
	assert.Equal(t, "Tenant not registered", body["message"])
}

func TestBotStatusExpiredTenant(t *testing.T) {
	c := newTestController(t, config.Config{}, &mockLeadStore{})
	rr := httptest.NewRecorder()
	c.BotStatus(rr, httptest.NewRequest(http.MethodGet, "/bot_status?tenant_id=expired", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "inactive", body["status"])
	assert.Equal(t, "Subscription expired", body["message"])
}

func TestBotStatusActiveTenant(t *testing.T) {
	c := newTestController(t, config.Config{}, &mockLeadStore{})
	rr := httptest.NewRecorder()
	c.BotStatus(rr, httptest.NewRequest(http.MethodGet, "/bot_status?tenant_id=acme", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "active", decodeBody(t, rr)["status"])
}

func postJSON(path, payload string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChatMessageValidation(t *testing.T) {
	c := newTestController(t, config.Config{}, &mockLeadStore{})
	for _, payload := range []string{
		`{}`,
		`{"tenant_id":"acme"}`,
		`{"message":"hi"}`,
		`{"tenant_id":"acme","message":"   "}`,
	} {
		rr := httptest.NewRecorder()
		c.ChatMessage(rr, postJSON("/chat_message", payload))
		assert.Equal(t, http.StatusBadRequest, rr.Code, payload)
		assert.Equal(t, "Missing required fields", decodeBody(t, rr)["error"], payload)
	}
}

func TestChatMessageInactiveTenantGetsUnavailableReply(t *testing.T) {
	c := newTestController(t, config.Config{}, &mockLeadStore{})
	for _, tenantID := range []string{"ghost", "expired"} {
		rr := httptest.NewRecorder()
		c.ChatMessage(rr, postJSON("/chat_message", `{"tenant_id":"`+tenantID+`","message":"I want to buy now"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, unavailableReply, body["reply"])
		assert.NotContains(t, body, "next_step")
	}
}

func TestChatMessageWithoutAPIKeyFallsBack(t *testing.T) {
	c := newTestController(t, config.Config{}, &mockLeadStore{})
	rr := httptest.NewRecorder()
	c.ChatMessage(rr, postJSON("/chat_message", `{"tenant_id":"acme","message":"I want to buy now"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, fallbackReply, body["reply"])
	assert.Equal(t, nextStepContinue, body["next_step"])
}

func TestChatMessageReturnsModelReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "command", payload["model"])
		assert.Contains(t, payload["preamble"], "Acme Corp")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "We have three plans."})
	}))
	defer srv.Close()

	c := newTestController(t, config.Config{CohereAPIKey: "test-key", CohereModel: "command"}, &mockLeadStore{})
	c.cohereEndpoint = srv.URL

	rr := httptest.NewRecorder()
	c.ChatMessage(rr, postJSON("/chat_message", `{"tenant_id":"acme","message":"what plans do you have?"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "We have three plans.", body["reply"])
	assert.Equal(t, nextStepContinue, body["next_step"])
}

func TestChatMessageHighIntentOverridesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "Sure, let me help."})
	}))
	defer srv.Close()

	c := newTestController(t, config.Config{CohereAPIKey: "test-key", CohereModel: "command"}, &mockLeadStore{})
	c.cohereEndpoint = srv.URL

	rr := httptest.NewRecorder()
	c.ChatMessage(rr, postJSON("/chat_message", `{"tenant_id":"acme","message":"I am ready to buy"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, collectInfoReply, body["reply"])
	assert.Equal(t, nextStepCollectInfo, body["next_step"])
}

func TestChatMessageEmptyReplyStillCollectsHighIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	}))
	defer srv.Close()

	c := newTestController(t, config.Config{CohereAPIKey: "test-key", CohereModel: "command"}, &mockLeadStore{})
	c.cohereEndpoint = srv.URL

	// A successful call with an unusable reply: high-intent messages get
	// the collect-info override, the rest get the canned fallback.
	rr := httptest.NewRecorder()
	c.ChatMessage(rr, postJSON("/chat_message", `{"tenant_id":"acme","message":"I am ready to buy"}`))
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, collectInfoReply, body["reply"])
	assert.Equal(t, nextStepCollectInfo, body["next_step"])

	rr = httptest.NewRecorder()
	c.ChatMessage(rr, postJSON("/chat_message", `{"tenant_id":"acme","message":"what are your opening hours?"}`))
	assert.Equal(t, http.StatusOK, rr.Code)
	body = decodeBody(t, rr)
	assert.Equal(t, fallbackReply, body["reply"])
	assert.Equal(t, nextStepContinue, body["next_step"])
}

func TestChatMessageRemoteFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestController(t, config.Config{CohereAPIKey: "test-key", CohereModel: "command"}, &mockLeadStore{})
	c.cohereEndpoint = srv.URL

	rr := httptest.NewRecorder()
	c.ChatMessage(rr, postJSON("/chat_message", `{"tenant_id":"acme","message":"I am ready to buy"}`))

	// Upstream failures never surface; high intent does not apply without
	// a successful remote reply.
	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, fallbackReply, body["reply"])
	assert.Equal(t, nextStepContinue, body["next_step"])
}

func TestCaptureLeadValidation(t *testing.T) {
	leads := &mockLeadStore{}
	c := newTestController(t, config.Config{}, leads)
	for _, payload := range []string{
		`{}`,
		`{"tenant_id":"acme","name":"Ada","message":"hi"}`,
		`{"tenant_id":"acme","email":"ada@example.com","message":"hi"}`,
		`{"tenant_id":"acme","name":"Ada","email":"ada@example.com"}`,
	} {
		rr := httptest.NewRecorder()
		c.CaptureLead(rr, postJSON("/capture_lead", payload))
		assert.Equal(t, http.StatusBadRequest, rr.Code, payload)
		assert.Equal(t, "Missing required fields", decodeBody(t, rr)["error"], payload)
	}
	leads.AssertNotCalled(t, "InsertLead", mock.Anything, mock.Anything)
}

func TestCaptureLeadInactiveTenant(t *testing.T) {
	leads := &mockLeadStore{}
	c := newTestController(t, config.Config{}, leads)
	for _, tenantID := range []string{"ghost", "expired"} {
		rr := httptest.NewRecorder()
		c.CaptureLead(rr, postJSON("/capture_lead",
			`{"tenant_id":"`+tenantID+`","name":"Ada","email":"ada@example.com","message":"hi"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Tenant not active", decodeBody(t, rr)["error"])
	}
	leads.AssertNotCalled(t, "InsertLead", mock.Anything, mock.Anything)
}

func TestCaptureLeadSuccess(t *testing.T) {
	message := "I want to buy now, what is the price?"
	leads := &mockLeadStore{}
	leads.On("InsertLead", mock.Anything, mock.AnythingOfType("*store.Lead")).
		Run(func(args mock.Arguments) {
			lead := args.Get(1).(*store.Lead)
			lead.ID = 42
			lead.CreatedAt = time.Now()
		}).Return(nil).Once()

	// SMTP credentials unset: notification skips silently and the request
	// still succeeds.
	c := newTestController(t, config.Config{}, leads)

	rr := httptest.NewRecorder()
	c.CaptureLead(rr, postJSON("/capture_lead",
		`{"tenant_id":"acme","name":"Ada","email":"ada@example.com","phone":"+123","message":"`+message+`"}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "We'll contact you shortly!", body["message"])
	assert.Equal(t, float64(scoring.ScoreLead(message, "Ada", "ada@example.com", "+123")), body["score"])
	assert.Equal(t, float64(42), body["lead_id"])
	leads.AssertExpectations(t)

	inserted := leads.Calls[0].Arguments.Get(1).(*store.Lead)
	assert.Equal(t, "acme", inserted.TenantID)
	assert.Equal(t, scoring.ScoreLead(message, "Ada", "ada@example.com", "+123"), inserted.Score)
}

func TestCaptureLeadInsertFailureIsServerError(t *testing.T) {
	leads := &mockLeadStore{}
	leads.On("InsertLead", mock.Anything, mock.Anything).Return(assert.AnError).Once()
	c := newTestController(t, config.Config{}, leads)

	rr := httptest.NewRecorder()
	c.CaptureLead(rr, postJSON("/capture_lead",
		`{"tenant_id":"acme","name":"Ada","email":"ada@example.com","message":"hello there"}`))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to save lead", decodeBody(t, rr)["error"])
	leads.AssertExpectations(t)
}
