// Package ai talks to an OpenAI-compatible chat completions API to produce
// book summaries.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/metrics"
	"github.com/bookshelfapp/bookshelf-server/internal/ratelimit"
)

const (
	// Outbound pacing per model.
	defaultRPS   = 2.0
	defaultBurst = 5

	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 500

	// Circuit opens after this many consecutive failures and probes again
	// after the cooldown.
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second

	// Cap on bytes read from an error response.
	maxErrorBody = 4 << 10

	systemPrompt = "You are a professional book reviewer and summarizer. " +
		"Create engaging, accurate, and concise summaries."
)

// Config configures the client. Temperature is sent as given, so zero
// requests deterministic output.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	RPS              float64
	Burst            int
	FailureThreshold uint32
	Cooldown         time.Duration
}

// Client is a rate-limited, circuit-broken chat completions client.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// New creates a new client. An empty APIKey yields a client whose
// Summarize always fails with ErrDisabled.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		logger:  logger,
	}

	metrics.AICircuitState.Set(stateToFloat(gobreaker.StateClosed))
	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "ai-summarizer",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A request the provider refused as malformed says nothing
			// about its health; neither does a caller giving up.
			return err == nil ||
				errors.Is(err, ErrBadRequest) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.AICircuitState.Set(stateToFloat(to))
		},
	})

	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Shutdown implements do.Shutdowner.
func (c *Client) Shutdown() error {
	c.Close()
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize returns a short summary of content. It makes exactly one
// upstream attempt.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	if !c.Enabled() {
		metrics.RecordAIRequest("rejected", 0)
		return "", wrapError("summarize", c.cfg.Model, 0, ErrDisabled)
	}

	start := time.Now()
	summary, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, buildPrompt(content))
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordAIRequest("rejected", elapsed)
			return "", wrapError("summarize", c.cfg.Model, 0, fmt.Errorf("%w: %v", ErrCircuitOpen, err))
		}
		metrics.RecordAIRequest("error", elapsed)
		return "", err
	}

	metrics.RecordAIRequest("success", elapsed)
	c.logger.Debug("summary generated",
		"model", c.cfg.Model,
		"duration", elapsed,
		"chars", len(summary),
	)
	return summary, nil
}

func buildPrompt(content string) string {
	return "Provide a concise and engaging summary of the following book content\n" +
		"in approximately 100 words. Focus on the main themes, plot, and key points:\n\n" +
		content + "\n\nSummary:"
}

// complete executes one chat completion.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx, c.cfg.Model); err != nil {
		return "", wrapError("summarize", c.cfg.Model, 0, fmt.Errorf("rate limit wait: %w", err))
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", wrapError("summarize", c.cfg.Model, 0, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", wrapError("summarize", c.cfg.Model, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("User-Agent", "Bookshelf/1.0")

	c.logger.Debug("ai request",
		"model", c.cfg.Model,
		"prompt_chars", len(prompt),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", wrapError("summarize", c.cfg.Model, 0, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", wrapError("summarize", c.cfg.Model, resp.StatusCode, classifyStatus(resp.StatusCode, body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", wrapError("summarize", c.cfg.Model, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", wrapError("summarize", c.cfg.Model, resp.StatusCode, ErrEmptyResponse)
	}

	summary := strings.TrimSpace(out.Choices[0].Message.Content)
	if summary == "" {
		return "", wrapError("summarize", c.cfg.Model, resp.StatusCode, ErrEmptyResponse)
	}
	return summary, nil
}

func classifyStatus(status int, body []byte) error {
	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = ErrUnauthorized
	case status == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case status >= 500:
		sentinel = ErrServer
	case status >= 400:
		sentinel = ErrBadRequest
	default:
		return fmt.Errorf("unexpected status %d", status)
	}

	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
		return fmt.Errorf("%w: %s", sentinel, er.Error.Message)
	}
	return sentinel
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
