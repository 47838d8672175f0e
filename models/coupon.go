package models

import (
	"time"

	"github.com/google/uuid"
)

// CouponRecord is one cached coupon offer for a merchant domain.
// The pair (website_domain, code) is unique; a later write for the same
// pair fully replaces the earlier row.
type CouponRecord struct {
	ID              uuid.UUID `json:"id"`
	WebsiteDomain   string    `json:"website_domain"`
	Code            string    `json:"code"`
	Discount        string    `json:"discount"`
	Description     string    `json:"description"`
	ExpiresIn       string    `json:"expires_in"`
	Verified        bool      `json:"verified"`
	Restrictions    *string   `json:"restrictions,omitempty"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty"`
	SourceURL       *string   `json:"source_url,omitempty"`
	CacheExpiresAt  time.Time `json:"cache_expires_at"`
	LastSeenAt      time.Time `json:"last_seen_at"`
}

// IsFresh reports whether the record's cache window is still open.
func (r *CouponRecord) IsFresh(now time.Time) bool {
	return r.CacheExpiresAt.After(now)
}

// RawCoupon is one candidate coupon as emitted by a search provider,
// before deduplication and persistence shaping.
type RawCoupon struct {
	Code            string   `json:"code"`
	Discount        string   `json:"discount"`
	Description     string   `json:"description"`
	ExpiresIn       string   `json:"expiresIn"`
	Verified        bool     `json:"verified"`
	Restrictions    *string  `json:"restrictions,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	SourceURL       *string  `json:"source_url,omitempty"`
}

// ProviderSearchResult is the structured payload a provider's raw text
// response must parse into.
type ProviderSearchResult struct {
	Coupons       []RawCoupon `json:"coupons"`
	SearchSummary *string     `json:"search_summary,omitempty"`
}
