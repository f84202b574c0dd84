// Package tokencount provides token counting and truncation for LLM prompts.
//
// It uses tiktoken-go to approximate token usage so that prompt inputs can
// be capped to a budget before the completion call, bounding cost.
package tokencount

import (
	"strings"
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	// Embedded BPE dictionaries; no network fetch on first encode.
	tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
}

// Counter provides thread-safe token counting for LLM models.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{
		encodingCache: make(map[string]*tiktoken.Tiktoken),
	}
}

// getEncodingForModel returns the appropriate tiktoken encoding for a model.
// It caches encodings for performance.
func (c *Counter) getEncodingForModel(model string) (*tiktoken.Tiktoken, error) {
	normalizedModel := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[normalizedModel]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encodingCache[normalizedModel]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(normalizedModel)
	if err != nil {
		// cl100k_base covers GPT-4-family tokenization and is a reasonable
		// approximation for most open models.
		slog.Debug("falling back to cl100k_base encoding",
			slog.String("model", model),
			slog.String("normalized", normalizedModel),
			slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}

	c.encodingCache[normalizedModel] = enc
	return enc, nil
}

// normalizeModelName converts model IDs to tiktoken-compatible names.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)

	// Provider-prefixed IDs, e.g. "meta-llama/llama-3.1-8b-instruct:free"
	if strings.Contains(model, "/") {
		parts := strings.Split(model, "/")
		model = parts[len(parts)-1]
	}
	model = strings.TrimSuffix(model, ":free")

	switch {
	case strings.Contains(model, "gpt-4"):
		return "gpt-4"
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		// Open models (llama, qwen, mistral, ...) tokenize closely enough
		// to GPT-4 for budgeting purposes.
		return "gpt-4"
	}
}

// CountTokens counts the number of tokens in a text string for a given model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(text, nil, nil)
	return len(tokens), nil
}

// Truncate returns text capped at budget tokens for the given model.
// On encoding failure it falls back to a rough 4-chars-per-token cap so
// truncation stays deterministic.
func (c *Counter) Truncate(text, model string, budget int) string {
	if budget <= 0 {
		return text
	}
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		maxChars := budget * 4
		if len(text) > maxChars {
			return text[:maxChars]
		}
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return enc.Decode(tokens[:budget])
}
