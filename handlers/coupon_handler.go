package handlers

import (
	"time"

	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/services"
	"github.com/gofiber/fiber/v2"
)

// rawCouponBatchTTL is the cache window for externally supplied coupons,
// which arrive without a provider confidence signal and get a longer window
// than AI-sourced ones.
const rawCouponBatchTTL = 48 * time.Hour

type CouponHandler struct {
	Cache *services.CouponCacheService
}

func NewCouponHandler(cache *services.CouponCacheService) *CouponHandler {
	return &CouponHandler{Cache: cache}
}

// CreateCoupons handles POST /coupons: a raw batch insert of externally
// supplied coupons. Every item must carry a code; rows land in the same
// cache table the search flow reads.
func (h *CouponHandler) CreateCoupons(c *fiber.Ctx) error {
	type submission struct {
		Code          string  `json:"code"`
		Restrictions  *string `json:"restrictions"`
		Description   string  `json:"description"`
		WebsiteDomain string  `json:"website_domain"`
	}

	var items []submission
	if err := c.BodyParser(&items); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body must be a JSON array of coupon objects",
		})
	}

	for _, item := range items {
		if item.Code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "One or more items missing required field: code",
			})
		}
	}

	now := time.Now()
	expiresAt := now.Add(rawCouponBatchTTL)

	// Dedup within the batch on (domain, code), later item wins, so the
	// single upsert statement never touches a row twice.
	records := make([]models.CouponRecord, 0, len(items))
	indexByKey := make(map[string]int, len(items))
	for _, item := range items {
		record := models.CouponRecord{
			WebsiteDomain:  item.WebsiteDomain,
			Code:           item.Code,
			Description:    item.Description,
			Restrictions:   item.Restrictions,
			CacheExpiresAt: expiresAt,
			LastSeenAt:     now,
		}
		key := item.WebsiteDomain + "_" + item.Code
		if i, seen := indexByKey[key]; seen {
			records[i] = record
		} else {
			indexByKey[key] = len(records)
			records = append(records, record)
		}
	}

	persisted, err := h.Cache.UpsertAll(c.Context(), records)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":  "Database insert failed",
			"detail": err.Error(),
		})
	}

	results := make([]fiber.Map, 0, len(persisted))
	for _, record := range persisted {
		results = append(results, fiber.Map{
			"code":    record.Code,
			"success": true,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"results": results,
	})
}
