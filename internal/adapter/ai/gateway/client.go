// Package gateway implements the completion gateway over an
// OpenAI-compatible chat completions endpoint.
package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/quyet5603/DATN-sub002/internal/adapter/observability"
	"github.com/quyet5603/DATN-sub002/internal/config"
	"github.com/quyet5603/DATN-sub002/internal/domain"
)

// Client implements domain.CompletionClient. It is constructed once at
// process start and injected into the orchestrator; there is no shared
// global instance.
//
// One call is one attempt: generation latency is high enough that a
// blind retry doubles cost for little gain, so callers decide whether
// to retry. The HTTP client timeout is the sole bound on a stuck call.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	hc          *http.Client
}

// New constructs a gateway client from configuration.
func New(cfg config.Config) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.LLMBaseURL, "/"),
		apiKey:      cfg.LLMAPIKey,
		model:       cfg.LLMModel,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: cfg.LLMTemperature,
		hc: &http.Client{
			Timeout:   cfg.LLMTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete sends one prompt and returns the raw model text.
func (c *Client) Complete(ctx domain.Context, prompt string) (string, error) {
	body, _ := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Stream:      false,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=gateway.complete: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	observability.AIRequestsTotal.WithLabelValues("llm", "complete").Inc()
	observability.AIRequestDuration.WithLabelValues("llm", "complete").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", c.classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "read").Inc()
		return "", fmt.Errorf("op=gateway.complete: %w: %v", domain.ErrUpstreamError, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "rate_limit").Inc()
		slog.Warn("completion service rate limited", slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("op=gateway.complete: %w", domain.ErrUpstreamRateLimit)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "status").Inc()
		snippet := string(respBytes)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		slog.Error("completion service non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.model),
			slog.String("body", snippet))
		return "", fmt.Errorf("op=gateway.complete: %w: status %d", domain.ErrUpstreamError, resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "decode").Inc()
		return "", fmt.Errorf("op=gateway.complete: %w: decode: %v", domain.ErrUpstreamError, err)
	}
	if len(out.Choices) == 0 {
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "empty").Inc()
		return "", fmt.Errorf("op=gateway.complete: %w: empty choices", domain.ErrUpstreamError)
	}
	return out.Choices[0].Message.Content, nil
}

// CompleteStream sends one prompt with streaming enabled and invokes fn
// for every content delta. Used by the conversational chat feature; the
// matching pipeline only uses Complete.
func (c *Client) CompleteStream(ctx domain.Context, prompt string, fn func(chunk string) error) error {
	body, _ := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Stream:      true,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("op=gateway.stream: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	observability.AIRequestsTotal.WithLabelValues("llm", "stream").Inc()
	if err != nil {
		return c.classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "status").Inc()
		return fmt.Errorf("op=gateway.stream: %w: status %d", domain.ErrUpstreamError, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk chatResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("op=gateway.stream: %w: %v", domain.ErrUpstreamError, err)
	}
	return nil
}

// classifyTransportError maps transport failures onto the domain sentinels
// so the orchestrator can distinguish "service down" from "service slow".
func (c *Client) classifyTransportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "timeout").Inc()
		return fmt.Errorf("op=gateway.complete: %w: %v", domain.ErrUpstreamTimeout, err)
	case isTimeout(err):
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "timeout").Inc()
		return fmt.Errorf("op=gateway.complete: %w: %v", domain.ErrUpstreamTimeout, err)
	default:
		observability.AIRequestErrorsTotal.WithLabelValues("llm", "unavailable").Inc()
		return fmt.Errorf("op=gateway.complete: %w: %v", domain.ErrUpstreamUnavailable, err)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
