package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Lead is one captured-lead row. Leads are append-only: no update or
// delete path exists anywhere in the service.
type Lead struct {
	ID        int64     `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is one buffered widget analytics event, flushed from redis.
type Event struct {
	TenantID  string `json:"tenant_id"`
	EventType string `json:"event_type"`
	IP        string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if absent. Safe to call on every boot.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS leads (
		id BIGSERIAL PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		message TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS widget_events (
		id BIGSERIAL PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// InsertLead appends one lead and fills in its id and capture timestamp.
func (s *Store) InsertLead(ctx context.Context, lead *Lead) error {
	return s.db.QueryRowContext(ctx,
		`INSERT INTO leads (tenant_id,name,email,phone,message,score) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id,created_at`,
		lead.TenantID, lead.Name, lead.Email, nullable(lead.Phone), lead.Message, lead.Score,
	).Scan(&lead.ID, &lead.CreatedAt)
}

func (s *Store) ListLeadsByTenant(ctx context.Context, tenantID string, limit int) ([]Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,tenant_id,name,email,phone,message,score,created_at FROM leads WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Lead{}
	for rows.Next() {
		var l Lead
		var phone sql.NullString
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Name, &l.Email, &phone, &l.Message, &l.Score, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Phone = phone.String
		items = append(items, l)
	}
	return items, rows.Err()
}

func (s *Store) CountLeads(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	return n, err
}

func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM widget_events`).Scan(&n)
	return n, err
}

func (s *Store) InsertEvent(ctx context.Context, evt Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO widget_events (tenant_id,event_type,ip_address,user_agent) VALUES ($1,$2,$3,$4)`,
		evt.TenantID, evt.EventType, nullable(evt.IP), nullable(evt.UserAgent))
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullable(v string) interface{} {
	t := strings.TrimSpace(v)
	if t == "" {
		return nil
	}
	return t
}
