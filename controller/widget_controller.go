package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"igensys-backend/scoring"
	"igensys-backend/store"
	"igensys-backend/utils"
)

const (
	// Visitor-facing fixed replies. These never change per tenant.
	unavailableReply = "Our chat service is currently unavailable. Please contact us directly."
	fallbackReply    = "Thanks for your message! How can I assist you today?"
	collectInfoReply = "Great! To help you quickly, could you please share your name and email address?"

	nextStepContinue    = "continue"
	nextStepCollectInfo = "collect_info"

	eventBufferKey = "widget:events:buffer"
)

func (c *Controller) BotStatus(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenant_id"))
	if tenantID == "" {
		utils.JSONErr(w, http.StatusBadRequest, "Missing tenant_id")
		return
	}
	tenant, ok, err := c.tenants.Lookup(tenantID)
	if err != nil {
		c.logRequestError(r, "bot status registry read failed", err, "tenant_id", tenantID)
		utils.JSONErr(w, http.StatusInternalServerError, "Failed to read tenant registry")
		return
	}
	if !ok {
		utils.JSONOK(w, map[string]interface{}{"status": "inactive", "message": "Tenant not registered"})
		return
	}
	if tenant.Active {
		utils.JSONOK(w, map[string]interface{}{"status": "active"})
		return
	}
	utils.JSONOK(w, map[string]interface{}{"status": "inactive", "message": "Subscription expired"})
}

func (c *Controller) ChatMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TenantID string `json:"tenant_id"`
		Message  string `json:"message"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.JSONErr(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	tenantID := strings.TrimSpace(body.TenantID)
	message := strings.TrimSpace(body.Message)
	if tenantID == "" || message == "" {
		utils.JSONErr(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	tenant, ok, err := c.tenants.Lookup(tenantID)
	if err != nil {
		// The visitor-facing flow never surfaces an internal error.
		c.logRequestError(r, "chat registry read failed", err, "tenant_id", tenantID)
	}
	if err != nil || !ok || !tenant.Active {
		utils.JSONOK(w, map[string]interface{}{"reply": unavailableReply})
		return
	}

	reply, nextStep := c.respondToChat(r, tenant, message)
	c.pushEvent(r, tenantID, "message_sent")
	utils.JSONOK(w, map[string]interface{}{"reply": reply, "next_step": nextStep})
}

func (c *Controller) CaptureLead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TenantID string `json:"tenant_id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Message  string `json:"message"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.JSONErr(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	tenantID := strings.TrimSpace(body.TenantID)
	name := strings.TrimSpace(body.Name)
	email := strings.TrimSpace(body.Email)
	phone := strings.TrimSpace(body.Phone)
	message := strings.TrimSpace(body.Message)
	if tenantID == "" || name == "" || email == "" || message == "" {
		utils.JSONErr(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	tenant, ok, err := c.tenants.Lookup(tenantID)
	if err != nil {
		c.logRequestError(r, "capture lead registry read failed", err, "tenant_id", tenantID)
		utils.JSONErr(w, http.StatusInternalServerError, "Failed to read tenant registry")
		return
	}
	if !ok || !tenant.Active {
		utils.JSONErr(w, http.StatusBadRequest, "Tenant not active")
		return
	}

	lead := &store.Lead{
		TenantID: tenantID,
		Name:     name,
		Email:    email,
		Phone:    phone,
		Message:  message,
		Score:    scoring.ScoreLead(message, name, email, phone),
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := c.leads.InsertLead(ctx, lead); err != nil {
		c.logRequestError(r, "lead insert failed", err, "tenant_id", tenantID)
		utils.JSONErr(w, http.StatusInternalServerError, "Failed to save lead")
		return
	}

	// Capture succeeded; notification is best effort from here on.
	c.notifyLeadEmail(r, tenant, lead)
	c.pushEvent(r, tenantID, "lead_captured")

	utils.JSONOK(w, map[string]interface{}{
		"status":  "success",
		"message": "We'll contact you shortly!",
		"score":   lead.Score,
		"lead_id": lead.ID,
	})
}

// WidgetScript serves the embeddable widget bundle verbatim.
func (c *Controller) WidgetScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	http.ServeFile(w, r, c.cfg.WidgetScript)
}

// pushEvent buffers a widget analytics event in redis; the background
// worker drains the buffer into Postgres. No redis, no analytics.
func (c *Controller) pushEvent(r *http.Request, tenantID, eventType string) {
	if c.redis == nil {
		return
	}
	b, err := json.Marshal(store.Event{
		TenantID:  tenantID,
		EventType: eventType,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return
	}
	if err := c.redis.RPush(r.Context(), eventBufferKey, string(b)).Err(); err != nil {
		c.logRequestWarn(r, "widget event buffer push failed", err, "tenant_id", tenantID, "event_type", eventType)
	}
}
