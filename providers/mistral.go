package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/dealhound/coupon-backend/shared"
	"github.com/sirupsen/logrus"
)

const (
	mistralEndpoint  = "https://api.mistral.ai/v1/chat/completions"
	mistralModel     = "mistral-large-2407"
	mistralMaxTokens = 2000
)

// MistralClient searches coupons through Mistral's chat completions API.
type MistralClient struct {
	apiKey     string
	httpClient *http.Client
	limiter    *shared.RequestRateLimiter
	maxRetries int
}

func NewMistralClient(apiKey string, opts Options) *MistralClient {
	return &MistralClient{
		apiKey:     apiKey,
		httpClient: opts.HTTPFactory.CreateOptimizedHTTPClient(60 * time.Second),
		limiter:    opts.RateLimiter,
		maxRetries: opts.MaxRetries,
	}
}

func (c *MistralClient) Name() Name {
	return Mistral
}

func (c *MistralClient) SearchCoupons(ctx context.Context, websiteDomain string) (string, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	body := map[string]interface{}{
		"model": mistralModel,
		"messages": []chatMessage{
			{Role: "system", Content: searchSystemPrompt(websiteDomain)},
			{Role: "user", Content: "Make an exhaustive research to find discount codes for " + websiteDomain},
		},
		"max_tokens":  mistralMaxTokens,
		"temperature": 0,
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "coupon_codes",
				"schema": couponJSONSchema(false),
			},
		},
	}

	logrus.WithFields(logrus.Fields{
		"provider":       Mistral,
		"website_domain": websiteDomain,
	}).Info("Calling search provider")

	content, err := executeChatRequest(ctx, c.httpClient, mistralEndpoint, c.apiKey, body, c.maxRetries)
	if err != nil {
		return "", invocationError(Mistral, err)
	}

	return content, nil
}
