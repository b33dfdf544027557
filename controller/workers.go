package controller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"igensys-backend/store"

	"github.com/redis/go-redis/v9"
)

// flushWidgetEvents drains the redis event buffer into Postgres. Bounded
// per tick so a burst cannot monopolize the worker.
func (c *Controller) flushWidgetEvents(ctx context.Context) {
	if c.redis == nil {
		return
	}
	for i := 0; i < 200; i++ {
		v, err := c.redis.RPop(ctx, eventBufferKey).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				c.logger.Warn("failed to pop widget event from redis", "error", err)
			}
			return
		}
		var evt store.Event
		if err := json.Unmarshal([]byte(v), &evt); err != nil || evt.TenantID == "" {
			if err != nil {
				c.logger.Warn("failed to decode buffered widget event", "error", err)
			}
			continue
		}
		if err := c.leads.InsertEvent(ctx, evt); err != nil {
			c.logger.Warn("failed to persist widget event", "tenant_id", evt.TenantID, "event_type", evt.EventType, "error", err)
		}
	}
}

func (c *Controller) StartBackgroundWorkers(ctx context.Context) {
	interval := c.cfg.EventFlushIntervalSec
	if interval <= 0 {
		interval = 60
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	c.logger.Info("background workers started", "event_flush_interval_sec", interval)

	go func() {
		defer ticker.Stop()
		defer c.logger.Info("background workers stopped")
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.flushWidgetEvents(context.Background())
			}
		}
	}()
}
