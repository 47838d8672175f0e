package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/dealhound/coupon-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	perplexityEndpoint  = "https://api.perplexity.ai/chat/completions"
	perplexityModel     = "sonar-pro"
	perplexityMaxTokens = 5000
)

// PerplexityClient searches coupons through Perplexity's web-search-backed
// chat completions API.
type PerplexityClient struct {
	apiKey     string
	httpClient *http.Client
	limiter    *shared.RequestRateLimiter
	maxRetries int
}

func NewPerplexityClient(apiKey string, opts Options) *PerplexityClient {
	return &PerplexityClient{
		apiKey:     apiKey,
		httpClient: opts.HTTPFactory.CreateOptimizedHTTPClient(60 * time.Second),
		limiter:    opts.RateLimiter,
		maxRetries: opts.MaxRetries,
	}
}

func (c *PerplexityClient) Name() Name {
	return Perplexity
}

func (c *PerplexityClient) SearchCoupons(ctx context.Context, websiteDomain string) (string, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	body := map[string]interface{}{
		"model": perplexityModel,
		"messages": []chatMessage{
			{Role: "system", Content: searchSystemPrompt(websiteDomain)},
			{Role: "user", Content: "Provide an exhaustive research to find discount codes for " + websiteDomain},
		},
		"max_tokens":  perplexityMaxTokens,
		"temperature": 0,
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "coupon_codes",
				"strict": true,
				"schema": couponJSONSchema(true),
			},
		},
		"web_search_options": map[string]interface{}{
			"search_context_size": "low",
		},
	}

	logrus.WithFields(logrus.Fields{
		"provider":       Perplexity,
		"website_domain": websiteDomain,
	}).Info("Calling search provider")

	content, err := executeChatRequest(ctx, c.httpClient, perplexityEndpoint, c.apiKey, body, c.maxRetries)
	if err != nil {
		return "", invocationError(Perplexity, err)
	}

	return content, nil
}
