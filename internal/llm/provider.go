// Package llm holds the hosted language-model providers used for signal
// extraction. Each provider is a plain request/response client.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	httpclient "github.com/Hopenghu/hopenghucc-sub004/internal/common/http"
)

const (
	NameGemini = "gemini"
	NameOpenAI = "openai"
)

// Provider is a text-completion service.
type Provider interface {
	// Complete sends one prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // 0 = provider default
	Temperature float64 // 0 = deterministic
	Model       string  // empty = provider default
	Format      string  // "json" for structured output
	System      string
}

// Select picks the one provider the extractor will call, by configuration
// precedence: Gemini when it has a key, otherwise OpenAI when it has a key.
// With neither it returns PROVIDER_NOT_CONFIGURED.
func Select(cfg config.ProvidersConfig, client *httpclient.Client) (Provider, error) {
	if client == nil {
		client = httpclient.NewClient(30 * time.Second)
	}
	switch {
	case cfg.Gemini.Configured():
		return NewGemini(cfg.Gemini, client), nil
	case cfg.OpenAI.Configured():
		return NewOpenAI(cfg.OpenAI, client), nil
	default:
		return nil, apperrors.NewProviderNotConfiguredError("gemini,openai")
	}
}

// classifyTransportError maps a failed round trip onto the provider error
// codes. Deadline and cancellation count as timeouts.
func classifyTransportError(ctx context.Context, provider string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return apperrors.NewProviderTimeoutError(provider, err)
	}
	return apperrors.NewProviderRequestFailedError(provider, err)
}
