// Package stage advances a conversation's relationship depth and stage
// once per round.
package stage

import (
	"context"
	"math"
	"time"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

const interestGate = 0.6

type Transition struct {
	From     models.Stage `json:"from"`
	To       models.Stage `json:"to"`
	Advanced bool         `json:"advanced"`
}

// TransitionEvent is published when a session reaches a later stage.
type TransitionEvent struct {
	SessionID         string       `json:"sessionId"`
	UserID            string       `json:"userId"`
	From              models.Stage `json:"from"`
	To                models.Stage `json:"to"`
	TotalRounds       int          `json:"totalRounds"`
	RelationshipDepth int          `json:"relationshipDepth"`
	OccurredAt        time.Time    `json:"occurredAt"`
}

type Notifier interface {
	NotifyTransition(ctx context.Context, event TransitionEvent) error
}

type threshold struct {
	stage  models.Stage
	depth  int
	rounds int
}

type Machine struct {
	cfg        config.StageConfig
	thresholds []threshold // highest stage first
}

// NewMachine fills zero thresholds and base/max deltas with defaults and
// rejects calibrations that could skip or reverse stages. Zero weights are
// kept as given.
func NewMachine(cfg config.StageConfig) (*Machine, error) {
	config.ApplyStageDefaults(&cfg)
	if err := config.ValidateStage(cfg); err != nil {
		return nil, err
	}
	return &Machine{
		cfg: cfg,
		thresholds: []threshold{
			{models.StageFriend, cfg.FriendDepth, cfg.FriendRounds},
			{models.StageFamiliar, cfg.FamiliarDepth, cfg.FamiliarRounds},
			{models.StageGettingToKnow, cfg.GettingToKnowDepth, cfg.GettingToKnowRounds},
		},
	}, nil
}

// DefaultMachine uses the default calibration.
func DefaultMachine() *Machine {
	m, err := NewMachine(config.DefaultStageConfig())
	if err != nil {
		panic(err)
	}
	return m
}

// Delta is the depth added by one round carrying bundle, between 0 and the
// max delta.
func (m *Machine) Delta(b models.SignalBundle) int {
	score := m.cfg.BaseDelta

	if b.UserType.Classification != models.ClassUnknown && b.UserType.Classification != "" {
		score += m.cfg.IdentityWeight * b.UserType.Confidence
	}

	seen := make(map[string]float64)
	for _, in := range b.Interests {
		if in.Confidence > interestGate && in.Confidence > seen[in.Tag] {
			seen[in.Tag] = in.Confidence
		}
	}
	interests := 0.0
	for _, conf := range seen {
		interests += m.cfg.InterestWeight * conf
	}
	score += math.Min(interests, m.cfg.InterestCap)

	if b.TravelPlan.IsPlanning {
		score += m.cfg.PlanningWeight
		if b.TravelPlan.Timeframe != nil {
			score += m.cfg.PlanDetailWeight
		}
		if b.TravelPlan.Duration != nil {
			score += m.cfg.PlanDetailWeight
		}
	}

	delta := int(math.Round(score))
	if delta > m.cfg.MaxDelta {
		delta = m.cfg.MaxDelta
	}
	if delta < 0 {
		delta = 0
	}
	return delta
}

// StageFor is the stage earned by depth and rounds alone.
func (m *Machine) StageFor(depth, rounds int) models.Stage {
	for _, t := range m.thresholds {
		if depth >= t.depth && rounds >= t.rounds {
			return t.stage
		}
	}
	return models.StageInitial
}

// Advance applies one round. The returned stage never regresses.
func (m *Machine) Advance(state models.ConversationState, b models.SignalBundle) (models.ConversationState, Transition) {
	from := state.Stage
	if !from.Valid() {
		from = models.StageInitial
	}

	next := state
	next.TotalRounds++
	next.LastDepthDelta = m.Delta(b)
	next.RelationshipDepth += next.LastDepthDelta
	next.Stage = models.MaxStage(from, m.StageFor(next.RelationshipDepth, next.TotalRounds))

	return next, Transition{From: from, To: next.Stage, Advanced: next.Stage != from}
}
