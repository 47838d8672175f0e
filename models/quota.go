package models

import "time"

// UserQuota is a user's daily search allowance as reported by the quota gate.
// CanSearch=false is a normal decision outcome, not a failure.
type UserQuota struct {
	UserID          string `json:"user_id"`
	SearchesUsed    int    `json:"searches_used"`
	SearchesAllowed int    `json:"searches_allowed"`
	CanSearch       bool   `json:"can_search"`
}

// PopularWebsite is the rolling per-domain search aggregate. The database
// function update_popular_websites owns the aggregation; the core only
// supplies deltas.
type PopularWebsite struct {
	WebsiteDomain     string    `json:"website_domain"`
	WebsiteName       string    `json:"website_name"`
	SearchCount       int64     `json:"search_count"`
	SuccessCount      int64     `json:"success_count"`
	TotalCouponsFound int64     `json:"total_coupons_found"`
	LastSearchedAt    time.Time `json:"last_searched_at"`
}
