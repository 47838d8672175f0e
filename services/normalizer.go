package services

import (
	"time"

	"github.com/dealhound/coupon-backend/models"
)

// CouponNormalizer reshapes raw provider output into persistable cache
// records. Pure transformation: no I/O, no clock reads beyond the supplied
// now.
type CouponNormalizer struct {
	cacheTTL time.Duration
}

func NewCouponNormalizer(cacheTTL time.Duration) *CouponNormalizer {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &CouponNormalizer{cacheTTL: cacheTTL}
}

// Normalize deduplicates raw coupons on the (domain, code) key and stamps the
// batch with a uniform freshness window. When two raw entries share a key the
// later entry in the input wins, overwriting in place; first-seen order is
// preserved. Entries with an empty code still participate in the key.
func (n *CouponNormalizer) Normalize(websiteDomain string, raw []models.RawCoupon, now time.Time) []models.CouponRecord {
	expiresAt := now.Add(n.cacheTTL)

	records := make([]models.CouponRecord, 0, len(raw))
	indexByKey := make(map[string]int, len(raw))

	for _, coupon := range raw {
		record := models.CouponRecord{
			WebsiteDomain:   websiteDomain,
			Code:            coupon.Code,
			Discount:        coupon.Discount,
			Description:     coupon.Description,
			ExpiresIn:       coupon.ExpiresIn,
			Verified:        coupon.Verified,
			Restrictions:    coupon.Restrictions,
			ConfidenceScore: coupon.ConfidenceScore,
			SourceURL:       coupon.SourceURL,
			CacheExpiresAt:  expiresAt,
			LastSeenAt:      now,
		}

		key := websiteDomain + "_" + coupon.Code
		if i, seen := indexByKey[key]; seen {
			records[i] = record
		} else {
			indexByKey[key] = len(records)
			records = append(records, record)
		}
	}

	return records
}
