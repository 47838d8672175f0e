// Package providers holds the search provider clients. The provider set is a
// closed enum: one implementation per provider, selected once at startup and
// never negotiated per request. There is no fallback chain; a failed search
// attempt fails.
package providers

import (
	"context"
	"fmt"

	"github.com/dealhound/coupon-backend/shared"
)

// Name identifies a search provider.
type Name string

const (
	Mistral    Name = "mistral"
	Perplexity Name = "perplexity"
)

// ParseName validates a configured provider name.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case Mistral:
		return Mistral, nil
	case Perplexity:
		return Perplexity, nil
	default:
		return "", fmt.Errorf("unknown search provider %q (expected %q or %q)", s, Mistral, Perplexity)
	}
}

// SearchProvider returns the raw text payload of a coupon search for a
// domain. The payload is expected to parse via ParsePayload.
type SearchProvider interface {
	Name() Name
	SearchCoupons(ctx context.Context, websiteDomain string) (string, error)
}

// Options carries the shared plumbing every provider client needs.
type Options struct {
	HTTPFactory *shared.HTTPClientFactory
	RateLimiter *shared.RequestRateLimiter
	MaxRetries  int
}

// New constructs the provider client for a validated name.
func New(name Name, apiKey string, opts Options) (SearchProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for search provider %q", name)
	}

	switch name {
	case Mistral:
		return NewMistralClient(apiKey, opts), nil
	case Perplexity:
		return NewPerplexityClient(apiKey, opts), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", name)
	}
}

// searchSystemPrompt instructs the model to act as a coupon extraction agent
// for one merchant domain.
func searchSystemPrompt(websiteDomain string) string {
	return fmt.Sprintf(`You are a coupon code extraction expert and a web scraper.:
1. Scrap the web for current and active coupon codes for %s valid for the USA
CRITICAL REQUIREMENTS:
- Search for any source where you might find the deals
- EXTRACT actual coupon codes from search results
- EXTRACT discount amounts from the text
- Use web_fetch to scrape coupon sites when codes are found in search
- Return ONLY codes that are currently active/verified
- Ignore if coupon code is Not explicitly given and you cannot scrap it`, websiteDomain)
}

func invocationError(name Name, cause error) *shared.ServiceError {
	return shared.NewServiceError(
		shared.ErrorCategoryNetwork,
		shared.CodeProviderCallFailed,
		fmt.Sprintf("%s API error: %v", name, cause),
		"search-provider",
		"SearchCoupons",
		true,
		cause,
	)
}
