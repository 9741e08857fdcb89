// Package engine runs one chat turn end to end: extraction, profile merge
// and stage bookkeeping, inside the per-user and per-session critical
// sections.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/metrics"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/observability"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/merger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/stage"
	"github.com/Hopenghu/hopenghucc-sub004/internal/store"
)

// Extractor produces a bundle for a message and never fails.
type Extractor interface {
	Extract(ctx context.Context, message string) models.SignalBundle
}

type TurnInput struct {
	UserID    string
	SessionID string
	Message   string
}

type TurnResult struct {
	TurnID       string
	Bundle       models.SignalBundle
	Profile      *models.UserProfile
	State        models.ConversationState
	Transition   stage.Transition
	ProfileSaved bool
	StateSaved   bool
	Duration     time.Duration
}

type Engine struct {
	extractor Extractor
	merger    *merger.Merger
	machine   *stage.Machine
	states    store.StateStore
	notifier  stage.Notifier
	locks     *store.KeyedMutex
	obs       *observability.Observability
	logger    logger.Logger
}

type Option func(*Engine)

// WithNotifier publishes stage advances. Without it advances are only logged.
func WithNotifier(n stage.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithObservability records turn counts and durations on the otel meter.
func WithObservability(o *observability.Observability) Option {
	return func(e *Engine) { e.obs = o }
}

func WithLocks(k *store.KeyedMutex) Option {
	return func(e *Engine) { e.locks = k }
}

func New(ex Extractor, profiles store.ProfileStore, states store.StateStore, machine *stage.Machine, log logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if machine == nil {
		machine = stage.DefaultMachine()
	}
	e := &Engine{
		extractor: ex,
		merger:    merger.New(profiles, log),
		machine:   machine,
		states:    states,
		locks:     store.NewKeyedMutex(),
		logger:    log.With(map[string]interface{}{"component": "engine"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTurn never returns an error. Store failures show up as
// ProfileSaved and StateSaved being false. A state read failure still
// advances in memory but leaves the stored state untouched.
func (e *Engine) ProcessTurn(ctx context.Context, in TurnInput) TurnResult {
	start := time.Now()
	metrics.TurnsActive.Inc()
	defer metrics.TurnsActive.Dec()

	// Lock order is user, then session.
	unlockUser := e.locks.Lock("user:" + in.UserID)
	defer unlockUser()
	unlockSession := e.locks.Lock("session:" + in.SessionID)
	defer unlockSession()

	result := TurnResult{TurnID: uuid.NewString()}
	log := e.logger.With(map[string]interface{}{
		"turnId":    result.TurnID,
		"userId":    in.UserID,
		"sessionId": in.SessionID,
	})

	current, loaded := e.loadState(ctx, in, log)

	result.Bundle = e.extractor.Extract(ctx, in.Message)
	result.Profile, result.ProfileSaved = e.merger.Merge(ctx, in.UserID, result.Bundle)
	result.State, result.Transition = e.machine.Advance(current, result.Bundle)

	if !loaded {
		log.Warn("conversation state not saved, stored state could not be read", nil)
	} else if err := e.states.SetState(ctx, in.SessionID, &result.State); err != nil {
		log.Error("failed to save conversation state", map[string]interface{}{"error": err.Error()})
	} else {
		result.StateSaved = true
	}

	if result.Transition.Advanced {
		metrics.StageTransitions.WithLabelValues(string(result.Transition.From), string(result.Transition.To)).Inc()
		log.Info("conversation stage advanced", map[string]interface{}{
			"from":              string(result.Transition.From),
			"to":                string(result.Transition.To),
			"totalRounds":       result.State.TotalRounds,
			"relationshipDepth": result.State.RelationshipDepth,
		})
		e.notify(ctx, in, result, log)
	}

	result.Duration = time.Since(start)
	metrics.TurnDuration.WithLabelValues(result.Bundle.Source).Observe(result.Duration.Seconds())
	e.obs.RecordTurnProcessed(ctx, string(result.State.Stage), result.Bundle.Source)
	e.obs.RecordTurnDuration(ctx, result.Duration, result.Bundle.Source)
	log.Debug("turn processed", map[string]interface{}{
		"source":       result.Bundle.Source,
		"stage":        string(result.State.Stage),
		"depthDelta":   result.State.LastDepthDelta,
		"profileSaved": result.ProfileSaved,
		"stateSaved":   result.StateSaved,
	})
	return result
}

// loadState returns the stored state, or a fresh one when the session is
// new or the store cannot be read. loaded is false only on a read error; the
// turn must then not overwrite what is stored.
func (e *Engine) loadState(ctx context.Context, in TurnInput, log logger.Logger) (models.ConversationState, bool) {
	st, err := e.states.GetState(ctx, in.SessionID)
	if err != nil {
		log.Error("failed to load conversation state", map[string]interface{}{"error": err.Error()})
		return *models.NewConversationState(in.SessionID, in.UserID), false
	}
	if st == nil {
		st = models.NewConversationState(in.SessionID, in.UserID)
	}
	if st.UserID == "" {
		st.UserID = in.UserID
	}
	return *st, true
}

func (e *Engine) notify(ctx context.Context, in TurnInput, result TurnResult, log logger.Logger) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.NotifyTransition(ctx, stage.TransitionEvent{
		SessionID:         in.SessionID,
		UserID:            in.UserID,
		From:              result.Transition.From,
		To:                result.Transition.To,
		TotalRounds:       result.State.TotalRounds,
		RelationshipDepth: result.State.RelationshipDepth,
		OccurredAt:        time.Now().UTC(),
	})
	if err != nil {
		log.Warn("failed to publish stage transition", map[string]interface{}{"error": err.Error()})
	}
}
