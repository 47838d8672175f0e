package providers

import (
	"testing"
	"time"

	"github.com/dealhound/coupon-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	name, err := ParseName("mistral")
	require.NoError(t, err)
	assert.Equal(t, Mistral, name)

	name, err = ParseName("perplexity")
	require.NoError(t, err)
	assert.Equal(t, Perplexity, name)

	_, err = ParseName("gpt-4")
	assert.Error(t, err)

	_, err = ParseName("")
	assert.Error(t, err)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	opts := Options{HTTPFactory: shared.NewHTTPClientFactory(time.Second)}

	_, err := New("openai", "key", opts)
	assert.Error(t, err)
}

func TestNewRejectsMissingAPIKey(t *testing.T) {
	opts := Options{HTTPFactory: shared.NewHTTPClientFactory(time.Second)}

	_, err := New(Mistral, "", opts)
	assert.Error(t, err)
}

func TestNewConstructsKnownProviders(t *testing.T) {
	opts := Options{HTTPFactory: shared.NewHTTPClientFactory(time.Second)}

	mistral, err := New(Mistral, "key", opts)
	require.NoError(t, err)
	assert.Equal(t, Mistral, mistral.Name())

	perplexity, err := New(Perplexity, "key", opts)
	require.NoError(t, err)
	assert.Equal(t, Perplexity, perplexity.Name())
}