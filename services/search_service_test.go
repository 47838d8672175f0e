package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/providers"
	"github.com/dealhound/coupon-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCouponCache struct {
	mu sync.Mutex

	fresh     []models.CouponRecord
	readErr   error
	upsertErr error

	readCalls   int
	upsertCalls int
	lastUpsert  []models.CouponRecord
}

func (f *fakeCouponCache) ReadFresh(ctx context.Context, websiteDomain string) ([]models.CouponRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.fresh, nil
}

func (f *fakeCouponCache) UpsertAll(ctx context.Context, records []models.CouponRecord) ([]models.CouponRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	f.lastUpsert = records
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return records, nil
}

type fakeQuotaGate struct {
	mu sync.Mutex

	quota    *models.UserQuota
	checkErr error

	checkCalls     int
	incrementCalls int
}

func (f *fakeQuotaGate) CheckQuota(ctx context.Context, userID string) (*models.UserQuota, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.quota, nil
}

func (f *fakeQuotaGate) IncrementUsage(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrementCalls++
	return nil
}

// fakeUsageRecorder signals on recorded, letting tests wait for the detached
// recording goroutine without sleeping.
type fakeUsageRecorder struct {
	mu sync.Mutex

	recorded chan *models.SearchLogEntry

	popularityCalls int
}

func newFakeUsageRecorder() *fakeUsageRecorder {
	return &fakeUsageRecorder{recorded: make(chan *models.SearchLogEntry, 1)}
}

func (f *fakeUsageRecorder) RecordSearch(ctx context.Context, entry *models.SearchLogEntry) error {
	f.recorded <- entry
	return nil
}

func (f *fakeUsageRecorder) RecordPopularity(ctx context.Context, websiteDomain, websiteName string, couponsFound int, successful bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popularityCalls++
	return nil
}

type fakeProvider struct {
	mu sync.Mutex

	payload string
	err     error

	calls int
}

func (f *fakeProvider) Name() providers.Name {
	return providers.Mistral
}

func (f *fakeProvider) SearchCoupons(ctx context.Context, websiteDomain string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

const validProviderPayload = `{"coupons":[{"code":"SAVE10","discount":"10% off","description":"Sitewide","expiresIn":"unknown","verified":true}]}`

func newTestSearchService(cache *fakeCouponCache, quota *fakeQuotaGate, usage *fakeUsageRecorder, provider *fakeProvider) *SearchService {
	return NewSearchService(cache, quota, usage, NewCouponNormalizer(24*time.Hour), provider)
}

func TestSearchRejectsMissingUser(t *testing.T) {
	service := newTestSearchService(&fakeCouponCache{}, &fakeQuotaGate{}, newFakeUsageRecorder(), &fakeProvider{})

	_, err := service.Search(context.Background(), "", &models.CouponSearchRequest{WebsiteDomain: "acme.com"})

	require.Error(t, err)
	assert.Equal(t, shared.CodeUnauthorized, shared.CodeOf(err))
}

func TestSearchRejectsMissingDomain(t *testing.T) {
	service := newTestSearchService(&fakeCouponCache{}, &fakeQuotaGate{}, newFakeUsageRecorder(), &fakeProvider{})

	_, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{WebsiteDomain: "  "})

	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidRequest, shared.CodeOf(err))
	assert.Equal(t, "website_domain is required", shared.MessageOf(err))
}

func TestSearchCachedModeHit(t *testing.T) {
	cache := &fakeCouponCache{fresh: []models.CouponRecord{
		{WebsiteDomain: "acme.com", Code: "SAVE10"},
		{WebsiteDomain: "acme.com", Code: "FREESHIP"},
	}}
	quota := &fakeQuotaGate{}
	provider := &fakeProvider{}
	service := newTestSearchService(cache, quota, newFakeUsageRecorder(), provider)

	resp, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{
		WebsiteDomain: "acme.com",
		FromCache:     true,
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.FromCache)
	assert.Equal(t, 2, resp.TotalFound)
	assert.Len(t, resp.Coupons, 2)

	// Cached mode consults nothing beyond the cache.
	assert.Equal(t, 0, quota.checkCalls)
	assert.Equal(t, 0, quota.incrementCalls)
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 0, cache.upsertCalls)
}

func TestSearchCachedModeMissIsSuccess(t *testing.T) {
	cache := &fakeCouponCache{}
	provider := &fakeProvider{}
	service := newTestSearchService(cache, &fakeQuotaGate{}, newFakeUsageRecorder(), provider)

	resp, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{
		WebsiteDomain: "acme.com",
		FromCache:     true,
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.FromCache)
	assert.Equal(t, 0, resp.TotalFound)
	assert.Empty(t, resp.Coupons)

	// A miss never falls through to a live search.
	assert.Equal(t, 0, provider.calls)
}

func TestSearchCachedModeReadFailure(t *testing.T) {
	cache := &fakeCouponCache{readErr: shared.NewServiceError(
		shared.ErrorCategoryDatabase, shared.CodeCacheReadFailed,
		"read failed", "coupon-cache", "ReadFresh", true, errors.New("connection reset"),
	)}
	service := newTestSearchService(cache, &fakeQuotaGate{}, newFakeUsageRecorder(), &fakeProvider{})

	_, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{
		WebsiteDomain: "acme.com",
		FromCache:     true,
	})

	require.Error(t, err)
	assert.Equal(t, shared.CodeCacheReadFailed, shared.CodeOf(err))
}

func TestSearchLiveQuotaExceeded(t *testing.T) {
	quota := &fakeQuotaGate{quota: &models.UserQuota{
		UserID: "user-1", SearchesUsed: 5, SearchesAllowed: 5, CanSearch: false,
	}}
	provider := &fakeProvider{payload: validProviderPayload}
	service := newTestSearchService(&fakeCouponCache{}, quota, newFakeUsageRecorder(), provider)

	_, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{WebsiteDomain: "acme.com"})

	require.Error(t, err)
	assert.Equal(t, shared.CodeQuotaExceeded, shared.CodeOf(err))

	// An exhausted quota stops everything downstream, including the
	// increment: the refused attempt must not consume quota.
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 0, quota.incrementCalls)
}

func TestSearchLiveQuotaCheckFailure(t *testing.T) {
	quota := &fakeQuotaGate{checkErr: shared.NewServiceError(
		shared.ErrorCategoryDatabase, shared.CodeQuotaCheckFailed,
		"quota lookup failed", "quota-service", "CheckQuota", true, errors.New("timeout"),
	)}
	provider := &fakeProvider{payload: validProviderPayload}
	service := newTestSearchService(&fakeCouponCache{}, quota, newFakeUsageRecorder(), provider)

	_, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{WebsiteDomain: "acme.com"})

	require.Error(t, err)
	assert.Equal(t, shared.CodeQuotaCheckFailed, shared.CodeOf(err))
	assert.Equal(t, 0, provider.calls)
}

func TestSearchLiveHappyPath(t *testing.T) {
	cache := &fakeCouponCache{}
	quota := &fakeQuotaGate{quota: &models.UserQuota{UserID: "user-1", SearchesUsed: 1, SearchesAllowed: 5, CanSearch: true}}
	usage := newFakeUsageRecorder()
	provider := &fakeProvider{payload: validProviderPayload}
	service := newTestSearchService(cache, quota, usage, provider)

	resp, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{
		WebsiteDomain: "acme.com",
		WebsiteName:   "Acme Store",
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.FromCache)
	assert.Equal(t, "acme.com", resp.WebsiteDomain)
	require.Equal(t, 1, resp.TotalFound)
	assert.Equal(t, "SAVE10", resp.Coupons[0].Code)
	assert.Equal(t, "acme.com", resp.Coupons[0].WebsiteDomain)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 1, cache.upsertCalls)
	assert.Equal(t, 1, quota.incrementCalls)

	select {
	case entry := <-usage.recorded:
		assert.Equal(t, "user-1", entry.UserID)
		assert.Equal(t, "acme.com", entry.WebsiteDomain)
		assert.Equal(t, "Acme Store", entry.WebsiteName)
		assert.Equal(t, 1, entry.CouponsFound)
		assert.True(t, entry.SearchSuccessful)
		assert.Equal(t, "mistral", entry.AIModelUsed)
	case <-time.After(2 * time.Second):
		t.Fatal("usage recording never dispatched")
	}
}

func TestSearchLivePersistFailureStillSucceeds(t *testing.T) {
	cache := &fakeCouponCache{upsertErr: shared.NewServiceError(
		shared.ErrorCategoryDatabase, shared.CodeCacheWriteFailed,
		"write failed", "coupon-cache", "UpsertAll", true, errors.New("deadlock"),
	)}
	quota := &fakeQuotaGate{quota: &models.UserQuota{CanSearch: true}}
	usage := newFakeUsageRecorder()
	provider := &fakeProvider{payload: validProviderPayload}
	service := newTestSearchService(cache, quota, usage, provider)

	resp, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{WebsiteDomain: "acme.com"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Equal(t, 1, resp.TotalFound)

	// The in-memory normalized batch stands in for the unwritten rows.
	assert.Equal(t, "SAVE10", resp.Coupons[0].Code)
	assert.False(t, resp.Coupons[0].CacheExpiresAt.IsZero())

	select {
	case <-usage.recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("usage recording never dispatched")
	}
}

func TestSearchLiveProviderFailure(t *testing.T) {
	quota := &fakeQuotaGate{quota: &models.UserQuota{CanSearch: true}}
	provider := &fakeProvider{err: shared.NewServiceError(
		shared.ErrorCategoryNetwork, shared.CodeProviderCallFailed,
		"mistral API error: 503", "search-provider", "SearchCoupons", true, nil,
	)}
	cache := &fakeCouponCache{}
	service := newTestSearchService(cache, quota, newFakeUsageRecorder(), provider)

	_, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{WebsiteDomain: "acme.com"})

	require.Error(t, err)
	assert.Equal(t, shared.CodeProviderCallFailed, shared.CodeOf(err))
	assert.Equal(t, 0, cache.upsertCalls)
	assert.Equal(t, 0, quota.incrementCalls)
}

func TestSearchLiveMalformedPayload(t *testing.T) {
	quota := &fakeQuotaGate{quota: &models.UserQuota{CanSearch: true}}
	provider := &fakeProvider{payload: `The store has no coupons right now, sorry!`}
	cache := &fakeCouponCache{}
	service := newTestSearchService(cache, quota, newFakeUsageRecorder(), provider)

	_, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{WebsiteDomain: "acme.com"})

	require.Error(t, err)
	assert.Equal(t, shared.CodeProviderPayloadInvalid, shared.CodeOf(err))
	assert.Equal(t, 0, cache.upsertCalls)
}

func TestSearchLiveEmptyProviderResult(t *testing.T) {
	quota := &fakeQuotaGate{quota: &models.UserQuota{CanSearch: true}}
	provider := &fakeProvider{payload: `{"coupons":[]}`}
	usage := newFakeUsageRecorder()
	cache := &fakeCouponCache{}
	service := newTestSearchService(cache, quota, usage, provider)

	resp, err := service.Search(context.Background(), "user-1", &models.CouponSearchRequest{WebsiteDomain: "acme.com"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.TotalFound)

	select {
	case entry := <-usage.recorded:
		assert.Equal(t, 0, entry.CouponsFound)
		assert.False(t, entry.SearchSuccessful)
		// The request had no website_name, so the domain stands in.
		assert.Equal(t, "acme.com", entry.WebsiteName)
	case <-time.After(2 * time.Second):
		t.Fatal("usage recording never dispatched")
	}
}
