// Package extractor runs the extraction cascade: at most one hosted model,
// then the keyword heuristic. Extraction never fails from the caller's view.
package extractor

import (
	"context"

	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/metrics"
	"github.com/Hopenghu/hopenghucc-sub004/internal/llm"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

type Cascade struct {
	strategies []Strategy
	logger     logger.Logger
}

// New builds the cascade for the selected provider. A nil provider means
// no model is configured and the heuristic runs directly.
func New(provider llm.Provider, cfg *Config, log logger.Logger) *Cascade {
	var strategies []Strategy
	if provider != nil {
		strategies = append(strategies, NewProviderStrategy(provider, cfg))
	}
	return NewWithStrategies(log, strategies...)
}

// NewWithStrategies runs the given strategies in order. The heuristic is
// always appended as the last tier.
func NewWithStrategies(log logger.Logger, strategies ...Strategy) *Cascade {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	chain := make([]Strategy, 0, len(strategies)+1)
	chain = append(chain, strategies...)
	chain = append(chain, HeuristicStrategy{})
	return &Cascade{
		strategies: chain,
		logger:     log.With(map[string]interface{}{"component": "extractor"}),
	}
}

// Extract returns the first bundle a tier produces.
func (c *Cascade) Extract(ctx context.Context, message string) models.SignalBundle {
	for _, s := range c.strategies {
		bundle, err := s.Extract(ctx, message)
		if err == nil {
			if bundle.Source == "" {
				bundle.Source = s.Name()
			}
			metrics.ExtractionsTotal.WithLabelValues(bundle.Source).Inc()
			return bundle
		}

		code := apperrors.CodeOf(err)
		metrics.ExtractionFallbacks.WithLabelValues(s.Name(), string(code)).Inc()
		c.logger.Warn("extraction tier failed, falling back", map[string]interface{}{
			"strategy":      s.Name(),
			"errorCode":     string(code),
			"errorCategory": apperrors.GetErrorCategory(code),
			"error":         err.Error(),
		})
	}

	metrics.ExtractionsTotal.WithLabelValues(models.SourceDefault).Inc()
	return models.DefaultSignalBundle()
}

// Strategies lists tier names in order.
func (c *Cascade) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}
