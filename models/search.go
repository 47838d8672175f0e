package models

import (
	"time"

	"github.com/google/uuid"
)

type CouponSearchRequest struct {
	WebsiteDomain string `json:"website_domain"`
	WebsiteName   string `json:"website_name,omitempty"`
	FromCache     bool   `json:"from_cache,omitempty"`
}

type CouponSearchResponse struct {
	Success       bool           `json:"success"`
	Coupons       []CouponRecord `json:"coupons"`
	FromCache     bool           `json:"from_cache"`
	WebsiteDomain string         `json:"website_domain"`
	TotalFound    int            `json:"total_found"`
}

// SearchLogEntry is an append-only record of one search attempt outcome.
type SearchLogEntry struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"user_id"`
	WebsiteDomain    string    `json:"website_domain"`
	WebsiteName      string    `json:"website_name"`
	CouponsFound     int       `json:"coupons_found"`
	SearchSuccessful bool      `json:"search_successful"`
	AIModelUsed      string    `json:"ai_model_used"`
	SearchDurationMS int64     `json:"search_duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
