package providers

import (
	"testing"

	"github.com/dealhound/coupon-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadPlainJSON(t *testing.T) {
	result, err := ParsePayload(`{"coupons":[{"code":"SAVE10","discount":"10% off","description":"Sitewide","expiresIn":"2026-12-31","verified":true}]}`)

	require.NoError(t, err)
	require.Len(t, result.Coupons, 1)
	assert.Equal(t, "SAVE10", result.Coupons[0].Code)
	assert.Equal(t, "10% off", result.Coupons[0].Discount)
	assert.Equal(t, "2026-12-31", result.Coupons[0].ExpiresIn)
	assert.True(t, result.Coupons[0].Verified)
	assert.Nil(t, result.SearchSummary)
}

func TestParsePayloadMarkdownFenced(t *testing.T) {
	payload := "```json\n{\"coupons\":[{\"code\":\"FREESHIP\",\"discount\":\"Free shipping\",\"description\":\"Orders over $50\",\"expiresIn\":\"unknown\",\"verified\":false}]}\n```"

	result, err := ParsePayload(payload)

	require.NoError(t, err)
	require.Len(t, result.Coupons, 1)
	assert.Equal(t, "FREESHIP", result.Coupons[0].Code)
}

func TestParsePayloadBareFence(t *testing.T) {
	payload := "```\n{\"coupons\":[]}\n```"

	result, err := ParsePayload(payload)

	require.NoError(t, err)
	assert.Empty(t, result.Coupons)
}

func TestParsePayloadThinkBlock(t *testing.T) {
	payload := "<think>\nLet me search for coupons. The store seems to have a spring sale.\n</think>\n{\"coupons\":[{\"code\":\"SPRING\",\"discount\":\"20% off\",\"description\":\"Spring sale\",\"expiresIn\":\"unknown\",\"verified\":false}]}"

	result, err := ParsePayload(payload)

	require.NoError(t, err)
	require.Len(t, result.Coupons, 1)
	assert.Equal(t, "SPRING", result.Coupons[0].Code)
}

func TestParsePayloadThinkBlockAndFence(t *testing.T) {
	payload := "<think>reasoning</think>\n```json\n{\"coupons\":[]}\n```"

	result, err := ParsePayload(payload)

	require.NoError(t, err)
	assert.NotNil(t, result.Coupons)
	assert.Empty(t, result.Coupons)
}

func TestParsePayloadSearchSummary(t *testing.T) {
	result, err := ParsePayload(`{"coupons":[],"search_summary":"No active codes found for this merchant."}`)

	require.NoError(t, err)
	require.NotNil(t, result.SearchSummary)
	assert.Equal(t, "No active codes found for this merchant.", *result.SearchSummary)
}

func TestParsePayloadMalformed(t *testing.T) {
	cases := map[string]string{
		"prose":           `Sorry, I could not find any coupons for that store.`,
		"truncated":       `{"coupons":[{"code":"SAVE`,
		"missing coupons": `{"search_summary":"no coupons key"}`,
		"wrong shape":     `{"coupons":"SAVE10"}`,
		"unknown field":   `{"coupons":[],"advertisement":"buy now"}`,
		"empty":           ``,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePayload(payload)

			require.Error(t, err)
			assert.Equal(t, shared.CodeProviderPayloadInvalid, shared.CodeOf(err))
		})
	}
}
