package providers

import (
	"encoding/json"
	"strings"

	"github.com/dealhound/coupon-backend/models"
	"github.com/dealhound/coupon-backend/shared"
)

// ParsePayload parses a provider's raw text payload into the coupon result
// shape. Reasoning models wrap the JSON in a <think> block and models often
// fence it in markdown, so both wrappers are stripped before decoding.
// Anything that still does not decode into the expected shape is a payload
// error, fatal for the search attempt.
func ParsePayload(raw string) (*models.ProviderSearchResult, error) {
	cleaned := stripThinkBlock(raw)
	cleaned = stripCodeFences(cleaned)

	decoder := json.NewDecoder(strings.NewReader(cleaned))
	decoder.DisallowUnknownFields()

	var result models.ProviderSearchResult
	if err := decoder.Decode(&result); err != nil {
		return nil, payloadError(err)
	}
	if result.Coupons == nil {
		return nil, payloadError(nil)
	}

	return &result, nil
}

func stripThinkBlock(content string) string {
	const marker = "</think>"
	if idx := strings.LastIndex(content, marker); idx != -1 {
		return content[idx+len(marker):]
	}
	return content
}

func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimSpace(content[len("```json"):])
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimSpace(content[len("```"):])
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSpace(content[:len(content)-len("```")])
	}
	return content
}

func payloadError(cause error) *shared.ServiceError {
	message := "Search provider returned a malformed coupon payload"
	if cause != nil {
		message += ": " + cause.Error()
	}
	return shared.NewServiceError(
		shared.ErrorCategoryProcessing,
		shared.CodeProviderPayloadInvalid,
		message,
		"search-provider",
		"ParsePayload",
		false,
		cause,
	)
}
