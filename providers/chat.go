package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dealhound/coupon-backend/shared"
)

// chatMessage is one turn of a chat-completions conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the slice of the chat-completions reply both providers
// share; everything else in the response body is ignored.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// couponJSONSchema is the structured-output schema both providers are asked
// to conform to. withSummary adds the search_summary field Perplexity
// returns alongside the coupon list.
func couponJSONSchema(withSummary bool) map[string]interface{} {
	couponProperties := map[string]interface{}{
		"code": map[string]interface{}{
			"type":        "string",
			"description": "The actual coupon code",
		},
		"discount": map[string]interface{}{
			"type":        "string",
			"description": "The discount amount",
		},
		"description": map[string]interface{}{
			"type":        "string",
			"description": "Description of what the coupon is for",
		},
		"expiresIn": map[string]interface{}{
			"type":        "string",
			"description": `When it expires or "Unknown" if not specified`,
		},
		"verified": map[string]interface{}{
			"type":        "boolean",
			"description": "Whether the source claims it is verified/working",
		},
		"restrictions": map[string]interface{}{
			"type":        "string",
			"description": `Any restrictions mentioned like "Team plan only"`,
		},
	}

	properties := map[string]interface{}{
		"coupons": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":                 "object",
				"properties":           couponProperties,
				"required":             []string{"code", "discount", "description", "expiresIn", "verified"},
				"additionalProperties": false,
			},
		},
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}

	if withSummary {
		properties["search_summary"] = map[string]interface{}{
			"type":        "string",
			"description": "Brief summary of what you found in your search",
		}
		schema["required"] = []string{"coupons", "search_summary"}
		schema["additionalProperties"] = false
	}

	return schema
}

// executeChatRequest posts a chat-completions body with the provider's auth
// header and returns the first choice's message content.
func executeChatRequest(ctx context.Context, client *http.Client, endpoint, apiKey string, body interface{}, maxRetries int) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	shared.SetJSONHeaders(req)

	resp, err := shared.ExecuteHTTPRequestWithRetry(client, req, maxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}

	return chat.Choices[0].Message.Content, nil
}
