package controller

import (
	"context"
	"net/http"
	"time"

	"igensys-backend/utils"
)

var startedAt = time.Now()

func (c *Controller) Health(w http.ResponseWriter, _ *http.Request) {
	utils.JSONOK(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(startedAt).Seconds(),
	})
}

func (c *Controller) HealthDetailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	dbStatus := "healthy"
	if err := c.leads.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
		c.logRequestWarn(r, "health check database ping failed", err)
	}
	redisStatus := "disabled"
	if c.redis != nil {
		redisStatus = "healthy"
		if err := c.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
			c.logRequestWarn(r, "health check redis ping failed", err)
		}
	}
	status := "healthy"
	code := http.StatusOK
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, map[string]interface{}{
		"status":       status,
		"dependencies": map[string]string{"database": dbStatus, "redis": redisStatus},
		"timestamp":    time.Now().UTC(),
	})
}

func (c *Controller) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := c.leads.Ping(ctx); err != nil {
		c.logRequestWarn(r, "readiness database ping failed", err)
		utils.JSONErr(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	utils.JSONOK(w, map[string]interface{}{"status": "ready", "timestamp": time.Now().UTC()})
}

func (c *Controller) Live(w http.ResponseWriter, _ *http.Request) {
	utils.JSONOK(w, map[string]interface{}{"status": "alive", "timestamp": time.Now().UTC()})
}
