// Package auth is a thin client for the external token-verification service.
// This backend never issues or validates tokens itself; it only exchanges a
// bearer token for the user it belongs to.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dealhound/coupon-backend/shared"
	"github.com/sirupsen/logrus"
)

// User is the identity resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenVerifier resolves a bearer token to a user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*User, error)
}

// Client calls the identity service over HTTP. One instance per process,
// immutable after construction.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(baseURL, serviceKey string, factory *shared.HTTPClientFactory) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: factory.CreateOptimizedHTTPClient(10 * time.Second),
	}
}

// VerifyToken exchanges a bearer token for a user identity. Every failure
// mode, including transport errors, surfaces as an unauthorized decision so
// callers never mistake identity-service trouble for a server fault.
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, c.unauthorized("Missing authorization header", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, c.unauthorized("Unauthorized", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)
	shared.SetJSONHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Warn("Identity service request failed")
		return nil, c.unauthorized("Unauthorized", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.unauthorized("Unauthorized", nil)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, c.unauthorized("Unauthorized", err)
	}
	if user.ID == "" {
		return nil, c.unauthorized("Unauthorized", nil)
	}

	return &user, nil
}

func (c *Client) unauthorized(message string, cause error) *shared.ServiceError {
	return shared.NewServiceError(
		shared.ErrorCategoryAuthentication,
		shared.CodeUnauthorized,
		message,
		"identity-client",
		"VerifyToken",
		false,
		cause,
	)
}
