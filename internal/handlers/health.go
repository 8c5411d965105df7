package handlers

import (
	"context"
	"time"

	"insurecow/internal/repositories/cache"
	"insurecow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	db    *gorm.DB
	cache *cache.CacheService
}

func NewHealthHandler(db *gorm.DB, cacheSvc *cache.CacheService) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheSvc}
}

// Check reports the state of the database and the credential cache. A missing
// cache degrades the service but does not fail the check.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status, state := fiber.StatusOK, "ok"
	database := "connected"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		database = "unavailable"
		status, state = fiber.StatusServiceUnavailable, "degraded"
	}

	redis := "connected"
	switch {
	case h.cache == nil:
		redis = "disabled"
	case h.cache.HealthCheck(ctx) != nil:
		redis = "unavailable"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  state,
		"version": "1.0.0",
		"services": fiber.Map{
			"database": database,
			"redis":    redis,
		},
	})
}

// CacheStats exposes the redis pool counters.
func (h *HealthHandler) CacheStats(c *fiber.Ctx) error {
	poolStats := h.cache.GetStats()
	if poolStats == nil {
		return utils.Success(c, fiber.StatusOK, "cache disabled", nil)
	}

	return utils.Success(c, fiber.StatusOK, "", fiber.Map{
		"pool_stats": fiber.Map{
			"hits":        poolStats.Hits,
			"misses":      poolStats.Misses,
			"timeouts":    poolStats.Timeouts,
			"total_conns": poolStats.TotalConns,
			"idle_conns":  poolStats.IdleConns,
			"stale_conns": poolStats.StaleConns,
		},
	})
}
