package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/",
		Model:       "test-model",
		Temperature: 0.7,
		RPS:         1000,
		Burst:       1000,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	client := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.http = server.Client()
	t.Cleanup(client.Close)
	return client
}

func completion(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestClient_Summarize_Request(t *testing.T) {
	var got chatRequest
	var auth, path string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(completion("  A hobbit goes on an adventure.  ")))
	})

	summary, err := client.Summarize(context.Background(), "In a hole in the ground there lived a hobbit.")
	require.NoError(t, err)

	assert.Equal(t, "A hobbit goes on an adventure.", summary)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, systemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "approximately 100 words")
	assert.Contains(t, got.Messages[1].Content, "there lived a hobbit")
}

func TestClient_Summarize_ZeroTemperature(t *testing.T) {
	var got map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(completion("Short.")))
	}, func(c *Config) { c.Temperature = 0 })

	_, err := client.Summarize(context.Background(), "content")
	require.NoError(t, err)

	require.Contains(t, got, "temperature")
	assert.InDelta(t, 0.0, got["temperature"], 1e-9)
}

func TestClient_Summarize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, "", ErrRateLimited},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"model not found"}}`, ErrBadRequest},
		{"server error", http.StatusBadGateway, "upstream down", ErrServer},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse},
		{"blank content", http.StatusOK, completion("   "), ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Summarize(context.Background(), "content")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var aiErr *Error
			require.True(t, errors.As(err, &aiErr))
			assert.Equal(t, "summarize", aiErr.Op)
			assert.Equal(t, tt.statusCode, aiErr.Status)
		})
	}
}

func TestClient_Summarize_ProviderMessageKept(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"context length exceeded"}}`))
	})

	_, err := client.Summarize(context.Background(), "content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context length exceeded")
}

func TestClient_Summarize_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":`))
	})

	_, err := client.Summarize(context.Background(), "content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Summarize_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	client.http.Timeout = 50 * time.Millisecond

	_, err := client.Summarize(context.Background(), "content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")
}

func TestClient_Summarize_Disabled(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}, func(c *Config) { c.APIKey = "" })

	assert.False(t, client.Enabled())

	_, err := client.Summarize(context.Background(), "content")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Zero(t, calls.Load())
}

func TestClient_Summarize_NoRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Summarize(context.Background(), "content")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(c *Config) {
		c.FailureThreshold = 2
		c.Cooldown = time.Hour
	})

	for range 2 {
		_, err := client.Summarize(context.Background(), "content")
		assert.ErrorIs(t, err, ErrServer)
	}

	_, err := client.Summarize(context.Background(), "content")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_BadRequestDoesNotTrip(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, func(c *Config) {
		c.FailureThreshold = 1
		c.Cooldown = time.Hour
	})

	for range 3 {
		_, err := client.Summarize(context.Background(), "content")
		assert.ErrorIs(t, err, ErrBadRequest)
	}
	assert.Equal(t, int32(3), calls.Load())
}
