package services

import (
	"context"
	"database/sql"

	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/shared"
	"github.com/google/uuid"
)

// UsageService records search outcomes for analytics and popularity ranking.
// Both operations are fire-and-forget relative to the search response; the
// orchestrator only logs their failures.
type UsageService struct {
	DB *sql.DB
}

func NewUsageService(db *sql.DB) *UsageService {
	return &UsageService{DB: db}
}

// RecordSearch appends one search attempt outcome. Entries are write-once and
// never mutated.
func (s *UsageService) RecordSearch(ctx context.Context, entry *models.SearchLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO coupon_searches (
			id, user_id, website_domain, website_name, coupons_found,
			search_successful, ai_model_used, search_duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID, entry.UserID, entry.WebsiteDomain, entry.WebsiteName,
		entry.CouponsFound, entry.SearchSuccessful, entry.AIModelUsed,
		entry.SearchDurationMS,
	)
	if err != nil {
		return s.recordError("RecordSearch", err)
	}
	return nil
}

// RecordPopularity feeds one search delta into the per-domain aggregate. The
// update_popular_websites function owns the aggregation.
func (s *UsageService) RecordPopularity(ctx context.Context, websiteDomain, websiteName string, couponsFound int, successful bool) error {
	_, err := s.DB.ExecContext(ctx,
		`SELECT update_popular_websites($1, $2, $3, $4)`,
		websiteDomain, websiteName, couponsFound, successful,
	)
	if err != nil {
		return s.recordError("RecordPopularity", err)
	}
	return nil
}

func (s *UsageService) recordError(operation string, cause error) *shared.ServiceError {
	return shared.NewServiceError(
		shared.ErrorCategoryDatabase,
		shared.CodeUsageRecordFailed,
		"Failed to record search usage",
		"usage-service",
		operation,
		true,
		cause,
	)
}
