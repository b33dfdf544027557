package controller

import (
	"context"
	"log/slog"
	"net/http"

	"igensys-backend/config"
	"igensys-backend/registry"
	"igensys-backend/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// LeadStore is the persistence surface the handlers need. *store.Store
// satisfies it; tests substitute a mock.
type LeadStore interface {
	EnsureSchema(ctx context.Context) error
	InsertLead(ctx context.Context, lead *store.Lead) error
	ListLeadsByTenant(ctx context.Context, tenantID string, limit int) ([]store.Lead, error)
	CountLeads(ctx context.Context) (int, error)
	CountEvents(ctx context.Context) (int, error)
	InsertEvent(ctx context.Context, evt store.Event) error
	Ping(ctx context.Context) error
}

// TenantRegistry is the registry-file surface the handlers need.
type TenantRegistry interface {
	Load() (registry.Document, error)
	Lookup(id string) (registry.Tenant, bool, error)
}

// Controller holds all dependencies for request handlers.
type Controller struct {
	cfg     config.Config
	leads   LeadStore
	tenants TenantRegistry
	redis   *redis.Client
	logger  *slog.Logger

	cohereEndpoint string
	httpClient     *http.Client
}

func New(cfg config.Config, leads LeadStore, tenants TenantRegistry, redisClient *redis.Client, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:            cfg,
		leads:          leads,
		tenants:        tenants,
		redis:          redisClient,
		logger:         logger,
		cohereEndpoint: cohereChatURL,
		httpClient:     http.DefaultClient,
	}
}

// TokenClaims is the admin JWT payload.
type TokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}
