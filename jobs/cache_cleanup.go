package jobs

import (
	"context"
	"time"

	"github.com/dealhound/coupon-backend/services"
	"github.com/sirupsen/logrus"
)

// CacheCleanupJob reclaims storage from expired coupon rows. Correctness
// never depends on it: read paths filter on cache_expires_at themselves.
type CacheCleanupJob struct {
	CacheService *services.CouponCacheService
}

func NewCacheCleanupJob(cacheService *services.CouponCacheService) *CacheCleanupJob {
	return &CacheCleanupJob{CacheService: cacheService}
}

func (j *CacheCleanupJob) Run() {
	logrus.Info("Starting Cache Cleanup Job")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := j.CacheService.CleanupExpired(ctx); err != nil {
		logrus.WithError(err).Warn("Cache Cleanup Job failed")
		return
	}
	logrus.Info("Cache Cleanup Job completed")
}
