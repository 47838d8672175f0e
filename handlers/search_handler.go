package handlers

import (
	"context"
	"strings"

	"github.com/dealhound/coupon-backend/auth"
	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/shared"
	"github.com/gofiber/fiber/v2"
)

// CouponSearcher is the orchestrator surface the handler depends on.
type CouponSearcher interface {
	Search(ctx context.Context, userID string, req *models.CouponSearchRequest) (*models.CouponSearchResponse, error)
}

type SearchHandler struct {
	Service  CouponSearcher
	Identity auth.TokenVerifier
}

func NewSearchHandler(service CouponSearcher, identity auth.TokenVerifier) *SearchHandler {
	return &SearchHandler{Service: service, Identity: identity}
}

// SearchCoupons handles POST /search-coupons. Auth failures map to 401,
// quota exhaustion to 429, every other failure to 500 with a human-readable
// error and an empty coupon list.
func (h *SearchHandler) SearchCoupons(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")

	user, err := h.Identity.VerifyToken(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageOf(err),
			"coupons": []models.CouponRecord{},
		})
	}

	var req models.CouponSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
			"coupons": []models.CouponRecord{},
		})
	}

	resp, err := h.Service.Search(c.Context(), user.ID, &req)
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(resp)
}

func (h *SearchHandler) errorResponse(c *fiber.Ctx, err error) error {
	switch shared.CodeOf(err) {
	case shared.CodeQuotaExceeded:
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":   "Quota exceeded",
			"message": shared.MessageOf(err),
		})
	case shared.CodeUnauthorized:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageOf(err),
			"coupons": []models.CouponRecord{},
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   shared.MessageOf(err),
			"coupons": []models.CouponRecord{},
		})
	}
}
