package extractor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/metrics"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/observability"
	"github.com/Hopenghu/hopenghucc-sub004/internal/llm"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/heuristic"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/normalize"
)

// Strategy is one tier of the extraction cascade.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, message string) (models.SignalBundle, error)
}

// ProviderStrategy asks a hosted model for the bundle.
type ProviderStrategy struct {
	provider llm.Provider
	config   *Config
}

func NewProviderStrategy(provider llm.Provider, cfg *Config) *ProviderStrategy {
	if cfg == nil {
		cfg = &Config{}
	}
	return &ProviderStrategy{provider: provider, config: cfg}
}

func (s *ProviderStrategy) Name() string {
	return s.provider.Name()
}

func (s *ProviderStrategy) Extract(ctx context.Context, message string) (models.SignalBundle, error) {
	ctx, span := observability.StartSpan(ctx, "extractor.provider",
		attribute.String("provider", s.provider.Name()))
	defer span.End()

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.provider.Complete(ctx, BuildPrompt(message), llm.CompletionOpts{
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
		Format:      "json",
		System:      systemInstruction,
	})
	metrics.ProviderLatency.WithLabelValues(s.provider.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		return models.SignalBundle{}, err
	}

	raw, err := ParseSignals(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable response")
		return models.SignalBundle{}, err
	}

	bundle := normalize.Normalize(raw)
	bundle.Source = s.provider.Name()
	return bundle, nil
}

// HeuristicStrategy wraps the keyword extractor. It never errors.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Name() string {
	return models.SourceHeuristic
}

func (HeuristicStrategy) Extract(_ context.Context, message string) (models.SignalBundle, error) {
	return heuristic.Extract(message), nil
}
