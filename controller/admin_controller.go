package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"igensys-backend/utils"

	"github.com/golang-jwt/jwt/v5"
)

func (c *Controller) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.JSONErr(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if body.Email != c.cfg.AdminEmail || body.Password != c.cfg.AdminPassword {
		utils.JSONErr(w, http.StatusUnauthorized, "invalid admin credentials")
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		Type: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	s, err := token.SignedString([]byte(c.cfg.AdminJWTSecret))
	if err != nil {
		c.logRequestError(r, "admin token signing failed", err)
		utils.JSONErr(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	utils.JSONOK(w, map[string]interface{}{"token": s})
}

// ValidateAdminToken checks the Authorization bearer token on admin routes.
func (c *Controller) ValidateAdminToken(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return errors.New("missing bearer token")
	}
	var claims TokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(c.cfg.AdminJWTSecret), nil
	})
	if err != nil || !token.Valid {
		return errors.New("invalid admin token")
	}
	if claims.Type != "admin" {
		return errors.New("invalid admin token")
	}
	return nil
}

func (c *Controller) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	doc, err := c.tenants.Load()
	if err != nil {
		c.logRequestError(r, "admin dashboard registry read failed", err)
		utils.JSONErr(w, http.StatusInternalServerError, "failed to read tenant registry")
		return
	}
	leads, err := c.leads.CountLeads(r.Context())
	if err != nil {
		c.logRequestWarn(r, "admin dashboard lead count failed", err)
	}
	events, err := c.leads.CountEvents(r.Context())
	if err != nil {
		c.logRequestWarn(r, "admin dashboard event count failed", err)
	}
	utils.JSONOK(w, map[string]interface{}{
		"tenants": len(doc.Tenants),
		"leads":   leads,
		"events":  events,
	})
}

func (c *Controller) AdminTenants(w http.ResponseWriter, r *http.Request) {
	doc, err := c.tenants.Load()
	if err != nil {
		c.logRequestError(r, "admin tenants registry read failed", err)
		utils.JSONErr(w, http.StatusInternalServerError, "failed to read tenant registry")
		return
	}
	items := []map[string]interface{}{}
	for id, t := range doc.Tenants {
		items = append(items, map[string]interface{}{
			"tenant_id":     id,
			"active":        t.Active,
			"business_name": t.BusinessName,
			"business_type": t.BusinessType,
			"owner_email":   t.OwnerEmail,
		})
	}
	utils.JSONOK(w, map[string]interface{}{"tenants": items})
}

func (c *Controller) AdminLeads(w http.ResponseWriter, r *http.Request) {
	tenantID := strings.TrimSpace(r.URL.Query().Get("tenant_id"))
	if tenantID == "" {
		utils.JSONErr(w, http.StatusBadRequest, "Missing tenant_id")
		return
	}
	items, err := c.leads.ListLeadsByTenant(r.Context(), tenantID, 500)
	if err != nil {
		c.logRequestError(r, "admin leads query failed", err, "tenant_id", tenantID)
		utils.JSONErr(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.JSONOK(w, map[string]interface{}{"leads": items})
}
