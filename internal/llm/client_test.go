package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL:    url,
		APIKey:     "test-key",
		Model:      "gpt-4",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, zap.NewNop())
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Write(completionBody(t, "generated text"))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{
		System:      "be helpful",
		User:        "hello",
		Temperature: 0.7,
		MaxTokens:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated text", got)
}

func TestCompleteRetriesCapacityThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(completionBody(t, "third time lucky"))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteCapacityExhaustion(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{User: "q"})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteNonRetryableErrorPropagatesImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid model"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{User: "q"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCapacityExceeded)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.Contains(t, provErr.Message, "invalid model")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), CompletionRequest{User: "q"})
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestModerateReturnsCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderations", r.URL.Path)
		var req moderationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "some text", req.Input)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"flagged": true, "categories": map[string]bool{"violence": true, "hate": false}},
			},
		})
	}))
	defer srv.Close()

	mc := NewModerationClient(srv.URL, "test-key", time.Second, zap.NewNop())
	got, err := mc.Moderate(context.Background(), "some text")
	require.NoError(t, err)
	assert.True(t, got["violence"])
	assert.False(t, got["hate"])
}

func TestModerateTransportErrorSurfaces(t *testing.T) {
	mc := NewModerationClient("http://127.0.0.1:1", "k", 100*time.Millisecond, zap.NewNop())

	_, err := mc.Moderate(context.Background(), "text")
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestDoWithRetryBackoffWaits(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, Delay: 20 * time.Millisecond}
	var calls int

	start := time.Now()
	_, err := DoWithRetry(context.Background(), policy, zap.NewNop(), func(context.Context) (string, error) {
		calls++
		return "", ErrCapacityExceeded
	})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 3, calls)
	// Linear backoff: 1*delay after the first attempt, 2*delay after the
	// second.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestDoWithRetryHonorsContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	policy := RetryPolicy{MaxRetries: 3, Delay: time.Second}

	_, err := DoWithRetry(ctx, policy, zap.NewNop(), func(context.Context) (string, error) {
		return "", ErrCapacityExceeded
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
