package services

import (
	"context"
	"database/sql"

	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/shared"
)

// QuotaService is the quota gate over the per-user daily search budget. Both
// operations are single atomic calls into database functions; CheckQuota
// never mutates state, IncrementUsage is the only mutator.
type QuotaService struct {
	DB *sql.DB
}

func NewQuotaService(db *sql.DB) *QuotaService {
	return &QuotaService{DB: db}
}

// CheckQuota returns the user's quota decision for today. A backing-check
// failure is QUOTA_CHECK_FAILED, distinct from a normal CanSearch=false
// decision.
func (s *QuotaService) CheckQuota(ctx context.Context, userID string) (*models.UserQuota, error) {
	quota := &models.UserQuota{UserID: userID}

	err := s.DB.QueryRowContext(ctx,
		`SELECT searches_used, searches_allowed, can_search FROM get_user_quota($1)`,
		userID,
	).Scan(&quota.SearchesUsed, &quota.SearchesAllowed, &quota.CanSearch)
	if err != nil {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryDatabase,
			shared.CodeQuotaCheckFailed,
			"Failed to check quota",
			"quota-service",
			"CheckQuota",
			true,
			err,
		)
	}

	return quota, nil
}

// IncrementUsage consumes one search from today's budget. Called exactly once
// per dispatched search; the caller treats failures as best-effort.
func (s *QuotaService) IncrementUsage(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `SELECT increment_search_count($1)`, userID)
	if err != nil {
		return shared.NewServiceError(
			shared.ErrorCategoryDatabase,
			shared.CodeQuotaCheckFailed,
			"Failed to increment search count",
			"quota-service",
			"IncrementUsage",
			true,
			err,
		)
	}
	return nil
}
