package app

import (
	"net/http"
	"time"

	"igensys-backend/middleware"
	"igensys-backend/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

func (a *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogger(a.logger))
	r.Use(middleware.WithRecovery(a.logger))

	// Health / readiness
	r.Get("/health", a.ctrl.Health)
	r.Get("/health/detailed", a.ctrl.HealthDetailed)
	r.Get("/ready", a.ctrl.Ready)
	r.Get("/live", a.ctrl.Live)

	// Public widget API
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(a.cfg.PublicRateLimitPerMin, time.Minute))
		r.Get("/bot_status", a.ctrl.BotStatus)
		r.Post("/chat_message", a.ctrl.ChatMessage)
		r.Post("/capture_lead", a.ctrl.CaptureLead)
		r.Get("/client.js", a.ctrl.WidgetScript)
	})

	r.Route("/api/admin", a.mapAdminRoutes)
	return r
}

func (a *App) mapAdminRoutes(r chi.Router) {
	r.Post("/login", a.ctrl.AdminLogin)
	r.Get("/dashboard", a.admin(a.ctrl.AdminDashboard))
	r.Get("/tenants", a.admin(a.ctrl.AdminTenants))
	r.Get("/leads", a.admin(a.ctrl.AdminLeads))
}

func (a *App) admin(next http.HandlerFunc) http.HandlerFunc {
	return middleware.WithAdmin(a.ctrl.ValidateAdminToken, utils.JSONErr, next, a.logger)
}
