package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ModerationClient talks to an OpenAI-compatible moderation endpoint. It
// returns the raw category→flag map; the safety filter owns the fail-closed
// interpretation of transport errors.
type ModerationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewModerationClient builds a moderation client against the same provider
// base URL as the generation client.
func NewModerationClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *ModerationClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ModerationClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// Moderate classifies text and returns the flagged category map.
func (c *ModerationClient) Moderate(ctx context.Context, text string) (map[string]bool, error) {
	body, err := json.Marshal(moderationRequest{Input: text})
	if err != nil {
		return nil, fmt.Errorf("encode moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/moderations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	var out moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(out.Results) == 0 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "no results in moderation response"}
	}
	return out.Results[0].Categories, nil
}
