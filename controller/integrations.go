package controller

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"igensys-backend/registry"
	"igensys-backend/scoring"
	"igensys-backend/store"
)

// ── Cohere chat ────────────────────────────────────────────────────────────────

const (
	cohereChatURL     = "https://api.cohere.com/v1/chat"
	cohereTemperature = 0.7
)

func buildPersonaPreamble(t registry.Tenant) string {
	businessName := coalesce(t.BusinessName, "a business")
	businessType := coalesce(t.BusinessType, "Not specified")
	keyServices := coalesce(t.KeyServices, "Not specified")
	targetAudience := coalesce(t.TargetAudience, "General audience")
	return fmt.Sprintf(`You are a sales assistant for: %s
Business Type: %s
Key Services: %s
Target Audience: %s

Conversation Guidelines:
1. Be friendly but professional
2. Qualify leads by understanding their needs
3. For high-intent users, collect contact information
4. Keep responses under 2 sentences`,
		businessName, businessType, keyServices, targetAudience)
}

// respondToChat produces the visitor-facing reply and the next_step hint.
// The hint is advisory only; nothing is persisted across turns. Any remote
// failure collapses to the canned fallback so the visitor never sees an
// upstream error.
func (c *Controller) respondToChat(r *http.Request, tenant registry.Tenant, message string) (string, string) {
	if strings.TrimSpace(c.cfg.CohereAPIKey) == "" {
		c.logger.Warn("cohere api key not configured; chat replies fall back to canned response")
		return fallbackReply, nextStepContinue
	}
	ai, err := c.cohereChat(r.Context(), message, buildPersonaPreamble(tenant))
	if err != nil {
		c.logRequestWarn(r, "chat response generation failed", err)
		return fallbackReply, nextStepContinue
	}
	// The override applies whenever the call succeeded, even when the
	// model returned nothing usable.
	if scoring.IsHighIntent(message) {
		return collectInfoReply, nextStepCollectInfo
	}
	if strings.TrimSpace(ai) == "" {
		return fallbackReply, nextStepContinue
	}
	return ai, nextStepContinue
}

// cohereChat sends one message with the persona preamble to the Cohere chat
// API. Callers check the API key first; an empty key never reaches here.
func (c *Controller) cohereChat(ctx context.Context, message, preamble string) (string, error) {
	payload := map[string]interface{}{
		"message":     message,
		"model":       c.cfg.CohereModel,
		"temperature": cohereTemperature,
		"preamble":    preamble,
	}
	b, _ := json.Marshal(payload)
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cohereEndpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.CohereAPIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("cohere status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// ── Lead notification email ────────────────────────────────────────────────────

// notifyLeadEmail emails the tenant owner about a captured lead. Missing
// credentials skip silently; delivery failure is logged and never fails the
// capture request.
func (c *Controller) notifyLeadEmail(r *http.Request, tenant registry.Tenant, lead *store.Lead) {
	if strings.TrimSpace(c.cfg.SMTPUser) == "" || strings.TrimSpace(c.cfg.SMTPPassword) == "" {
		c.requestLogger(r).Info("email not configured; skipping lead notification", "tenant_id", lead.TenantID)
		return
	}
	phone := lead.Phone
	if strings.TrimSpace(phone) == "" {
		phone = "N/A"
	}
	subject := fmt.Sprintf("New Lead: %s (Score: %d/100)", lead.Name, lead.Score)
	body := fmt.Sprintf(`New Lead from your website:

Name: %s
Email: %s
Phone: %s
Score: %d/100
Message: %s

Context:
%s
`, lead.Name, lead.Email, phone, lead.Score, lead.Message, coalesce(tenant.BusinessInfo, "No context provided"))

	if err := c.sendMail(tenant.OwnerEmail, subject, body); err != nil {
		c.logRequestError(r, "lead notification email failed", err, "to", tenant.OwnerEmail, "tenant_id", lead.TenantID)
		return
	}
	c.requestLogger(r).Info("lead notification email sent", "to", tenant.OwnerEmail, "tenant_id", lead.TenantID)
}

// sendMail delivers one plain-text message over an authenticated STARTTLS
// session with an explicit dial timeout.
func (c *Controller) sendMail(to, subject, body string) error {
	from := c.cfg.SMTPUser
	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
		body

	addr := net.JoinHostPort(c.cfg.SMTPHost, strconv.Itoa(c.cfg.SMTPPort))
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, c.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return errors.New("smtp relay does not support STARTTLS")
	}
	if err := client.StartTLS(&tls.Config{ServerName: c.cfg.SMTPHost}); err != nil {
		return err
	}
	if err := client.Auth(smtp.PlainAuth("", c.cfg.SMTPUser, c.cfg.SMTPPassword, c.cfg.SMTPHost)); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func coalesce(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
