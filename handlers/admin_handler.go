package handlers

import (
	"crypto/subtle"

	"github.com/dealhound/coupon-backend/database"
	"github.com/dealhound/coupon-backend/services"
	"github.com/dealhound/coupon-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	AdminToken string
	Metrics    *shared.ServiceMetrics
	Cache      *services.CouponCacheService
	Quota      *services.QuotaService
}

func NewAdminHandler(adminToken string, metrics *shared.ServiceMetrics, cache *services.CouponCacheService, quota *services.QuotaService) *AdminHandler {
	return &AdminHandler{
		AdminToken: adminToken,
		Metrics:    metrics,
		Cache:      cache,
		Quota:      quota,
	}
}

// RequireAdmin guards the admin group with the static admin token.
func (h *AdminHandler) RequireAdmin(c *fiber.Ctx) error {
	token := c.Get("X-Admin-Token")
	if h.AdminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.AdminToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}
	return c.Next()
}

func (h *AdminHandler) GetMetrics(c *fiber.Ctx) error {
	dbStats := database.GetConnectionStats()

	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Metrics.Snapshot(),
		"database": fiber.Map{
			"open_connections": dbStats.OpenConnections,
			"in_use":           dbStats.InUse,
			"idle":             dbStats.Idle,
			"wait_count":       dbStats.WaitCount,
		},
	})
}

func (h *AdminHandler) TriggerCacheCleanup(c *fiber.Ctx) error {
	deleted, err := h.Cache.CleanupExpired(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageOf(err),
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"deleted_rows": deleted,
	})
}

func (h *AdminHandler) GetUserQuota(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	quota, err := h.Quota.CheckQuota(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageOf(err),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    quota,
	})
}
