package services

import (
	"context"
	"strings"
	"time"

	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/providers"
	"github.com/dealhound/coupon-backend/shared"
	"github.com/sirupsen/logrus"
)

// CouponCache is the cache store the orchestrator reads and persists through.
type CouponCache interface {
	ReadFresh(ctx context.Context, websiteDomain string) ([]models.CouponRecord, error)
	UpsertAll(ctx context.Context, records []models.CouponRecord) ([]models.CouponRecord, error)
}

// QuotaGate decides whether a user may dispatch a live search today.
type QuotaGate interface {
	CheckQuota(ctx context.Context, userID string) (*models.UserQuota, error)
	IncrementUsage(ctx context.Context, userID string) error
}

// UsageRecorder captures search outcomes for analytics.
type UsageRecorder interface {
	RecordSearch(ctx context.Context, entry *models.SearchLogEntry) error
	RecordPopularity(ctx context.Context, websiteDomain, websiteName string, couponsFound int, successful bool) error
}

// SearchService orchestrates one coupon search: cache check, quota gate,
// provider invocation, normalization, persistence and usage accounting. Each
// step is strictly sequential; the only concurrency is the benign last-write-
// wins race between searches for the same domain at the storage layer.
type SearchService struct {
	cache      CouponCache
	quota      QuotaGate
	usage      UsageRecorder
	normalizer *CouponNormalizer
	provider   providers.SearchProvider
	metrics    *shared.ServiceMetrics

	// Side effects run detached from the request; this bounds them.
	sideEffectTimeout time.Duration
}

func NewSearchService(
	cache CouponCache,
	quota QuotaGate,
	usage UsageRecorder,
	normalizer *CouponNormalizer,
	provider providers.SearchProvider,
) *SearchService {
	metrics := shared.NewServiceMetrics("search-service")
	metrics.SetCustomMetric("provider", string(provider.Name()))

	return &SearchService{
		cache:             cache,
		quota:             quota,
		usage:             usage,
		normalizer:        normalizer,
		provider:          provider,
		metrics:           metrics,
		sideEffectTimeout: 10 * time.Second,
	}
}

// Metrics exposes the service's request metrics for the admin surface.
func (s *SearchService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// Search runs the full search flow for an authenticated user.
//
// Cached-only mode is a hard switch: the cache lookup is the only operation
// performed, a miss is a success with zero coupons, and it never falls
// through to quota or the provider. Live mode consults the quota gate, calls
// the fixed provider, normalizes, persists (non-fatal on failure), records
// usage fire-and-forget and increments quota best-effort.
func (s *SearchService) Search(ctx context.Context, userID string, req *models.CouponSearchRequest) (*models.CouponSearchResponse, error) {
	start := time.Now()

	if userID == "" {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryAuthentication, shared.CodeUnauthorized,
			"Unauthorized", "search-service", "Search", false, nil,
		)
	}
	if strings.TrimSpace(req.WebsiteDomain) == "" {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryValidation, shared.CodeInvalidRequest,
			"website_domain is required", "search-service", "Search", false, nil,
		)
	}

	logrus.WithFields(logrus.Fields{
		"website_domain": req.WebsiteDomain,
		"user_id":        userID,
		"from_cache":     req.FromCache,
	}).Info("Searching coupons")

	if req.FromCache {
		return s.searchCached(ctx, req, start)
	}
	return s.searchLive(ctx, userID, req, start)
}

func (s *SearchService) searchCached(ctx context.Context, req *models.CouponSearchRequest, start time.Time) (*models.CouponSearchResponse, error) {
	coupons, err := s.cache.ReadFresh(ctx, req.WebsiteDomain)
	if err != nil {
		s.metrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	s.metrics.RecordRequest(true, time.Since(start))

	// A miss is a success with zero results, never an error.
	return &models.CouponSearchResponse{
		Success:       true,
		Coupons:       coupons,
		FromCache:     true,
		WebsiteDomain: req.WebsiteDomain,
		TotalFound:    len(coupons),
	}, nil
}

func (s *SearchService) searchLive(ctx context.Context, userID string, req *models.CouponSearchRequest, start time.Time) (*models.CouponSearchResponse, error) {
	quota, err := s.quota.CheckQuota(ctx, userID)
	if err != nil {
		s.metrics.RecordRequest(false, time.Since(start))
		return nil, err
	}
	if !quota.CanSearch {
		s.metrics.RecordRequest(false, time.Since(start))
		return nil, shared.NewServiceError(
			shared.ErrorCategoryResource, shared.CodeQuotaExceeded,
			"You have reached your daily search limit. Upgrade to Pro for more searches!",
			"search-service", "Search", false, nil,
		)
	}

	payload, err := s.provider.SearchCoupons(ctx, req.WebsiteDomain)
	if err != nil {
		s.metrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	result, err := providers.ParsePayload(payload)
	if err != nil {
		s.metrics.RecordRequest(false, time.Since(start))
		return nil, err
	}

	records := s.normalizer.Normalize(req.WebsiteDomain, result.Coupons, time.Now())

	// Persistence failure is non-fatal: the user-visible goal is showing
	// coupons, not guaranteeing the cache write.
	coupons, persistErr := s.cache.UpsertAll(ctx, records)
	if persistErr != nil {
		logrus.WithError(persistErr).WithField("website_domain", req.WebsiteDomain).
			Warn("Failed to cache coupons, returning unpersisted results")
		coupons = records
	}

	duration := time.Since(start)

	websiteName := req.WebsiteName
	if websiteName == "" {
		websiteName = req.WebsiteDomain
	}

	s.dispatchUsageRecording(&models.SearchLogEntry{
		UserID:           userID,
		WebsiteDomain:    req.WebsiteDomain,
		WebsiteName:      websiteName,
		CouponsFound:     len(coupons),
		SearchSuccessful: len(coupons) > 0,
		AIModelUsed:      string(s.provider.Name()),
		SearchDurationMS: duration.Milliseconds(),
	})

	if err := s.quota.IncrementUsage(ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).
			Warn("Failed to increment search count")
	}

	s.metrics.RecordRequest(true, duration)

	return &models.CouponSearchResponse{
		Success:       true,
		Coupons:       coupons,
		FromCache:     false,
		WebsiteDomain: req.WebsiteDomain,
		TotalFound:    len(coupons),
	}, nil
}

// dispatchUsageRecording runs the search log and popularity writes as
// detached best-effort tasks. Their failures are logged, never surfaced to
// the caller.
func (s *SearchService) dispatchUsageRecording(entry *models.SearchLogEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.sideEffectTimeout)
		defer cancel()

		if err := s.usage.RecordSearch(ctx, entry); err != nil {
			logrus.WithError(err).Warn("Failed to log coupon search")
		}
		if err := s.usage.RecordPopularity(ctx, entry.WebsiteDomain, entry.WebsiteName, entry.CouponsFound, entry.SearchSuccessful); err != nil {
			logrus.WithError(err).Warn("Failed to update popular websites")
		}
	}()
}
