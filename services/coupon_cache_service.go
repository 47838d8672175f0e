package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/shared"
	"github.com/sirupsen/logrus"
)

const couponColumns = `id, website_domain, code, discount, description, expires_in,
	verified, restrictions, confidence_score, source_url, cache_expires_at, last_seen_at`

// CouponCacheService is the keyed, time-expiring coupon store backed by the
// coupon_cache table. Reads filter on cache_expires_at; writes upsert on the
// (website_domain, code) uniqueness constraint with last-write-wins
// semantics.
type CouponCacheService struct {
	DB *sql.DB
}

func NewCouponCacheService(db *sql.DB) *CouponCacheService {
	return &CouponCacheService{DB: db}
}

// ReadFresh returns all unexpired records for a domain, highest confidence
// first; records without a score sort last.
func (s *CouponCacheService) ReadFresh(ctx context.Context, websiteDomain string) ([]models.CouponRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM coupon_cache
		WHERE website_domain = $1 AND cache_expires_at > NOW()
		ORDER BY confidence_score DESC NULLS LAST
	`, couponColumns)

	rows, err := s.DB.QueryContext(ctx, query, websiteDomain)
	if err != nil {
		return nil, s.readError(err)
	}
	defer rows.Close()

	records, err := scanCouponRecords(rows)
	if err != nil {
		return nil, s.readError(err)
	}

	return records, nil
}

// UpsertAll writes a batch of records keyed by (website_domain, code). On
// conflict the incoming record fully replaces the existing row, no
// field-level merge. The whole batch is one atomic statement; no multi-step
// transaction spans the surrounding orchestration. Returns the rows actually
// persisted.
func (s *CouponCacheService) UpsertAll(ctx context.Context, records []models.CouponRecord) ([]models.CouponRecord, error) {
	if len(records) == 0 {
		return []models.CouponRecord{}, nil
	}

	var (
		placeholders strings.Builder
		args         = make([]interface{}, 0, len(records)*10)
	)
	for i, r := range records {
		if i > 0 {
			placeholders.WriteString(", ")
		}
		base := i * 10
		fmt.Fprintf(&placeholders, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args,
			r.WebsiteDomain, r.Code, r.Discount, r.Description, r.ExpiresIn,
			r.Verified, r.Restrictions, r.ConfidenceScore, r.SourceURL, r.CacheExpiresAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO coupon_cache (
			website_domain, code, discount, description, expires_in,
			verified, restrictions, confidence_score, source_url, cache_expires_at
		) VALUES %s
		ON CONFLICT (website_domain, code) DO UPDATE SET
			discount = EXCLUDED.discount,
			description = EXCLUDED.description,
			expires_in = EXCLUDED.expires_in,
			verified = EXCLUDED.verified,
			restrictions = EXCLUDED.restrictions,
			confidence_score = EXCLUDED.confidence_score,
			source_url = EXCLUDED.source_url,
			cache_expires_at = EXCLUDED.cache_expires_at,
			last_seen_at = NOW()
		RETURNING %s
	`, placeholders.String(), couponColumns)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.writeError(err)
	}
	defer rows.Close()

	persisted, err := scanCouponRecords(rows)
	if err != nil {
		return nil, s.writeError(err)
	}

	return persisted, nil
}

// CleanupExpired deletes rows whose cache window has passed. Storage hygiene
// only; read paths already filter on expiry.
func (s *CouponCacheService) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.DB.ExecContext(ctx, `DELETE FROM coupon_cache WHERE cache_expires_at < NOW()`)
	if err != nil {
		return 0, s.writeError(err)
	}

	rowsAffected, _ := result.RowsAffected()
	logrus.WithField("deleted_rows", rowsAffected).Info("Cleaned up expired coupon cache entries")

	return rowsAffected, nil
}

func scanCouponRecords(rows *sql.Rows) ([]models.CouponRecord, error) {
	records := make([]models.CouponRecord, 0)
	for rows.Next() {
		var r models.CouponRecord
		if err := rows.Scan(
			&r.ID, &r.WebsiteDomain, &r.Code, &r.Discount, &r.Description,
			&r.ExpiresIn, &r.Verified, &r.Restrictions, &r.ConfidenceScore,
			&r.SourceURL, &r.CacheExpiresAt, &r.LastSeenAt,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *CouponCacheService) readError(cause error) *shared.ServiceError {
	return shared.NewServiceError(
		shared.ErrorCategoryDatabase,
		shared.CodeCacheReadFailed,
		"Failed to read coupon cache",
		"coupon-cache-service",
		"ReadFresh",
		true,
		cause,
	)
}

func (s *CouponCacheService) writeError(cause error) *shared.ServiceError {
	return shared.NewServiceError(
		shared.ErrorCategoryDatabase,
		shared.CodeCacheWriteFailed,
		"Failed to write coupon cache",
		"coupon-cache-service",
		"UpsertAll",
		true,
		cause,
	)
}
