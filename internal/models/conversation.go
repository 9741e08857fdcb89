package models

import "time"

// Stage is an ordered conversational relationship phase.
type Stage string

const (
	StageInitial       Stage = "initial"
	StageGettingToKnow Stage = "getting_to_know"
	StageFamiliar      Stage = "familiar"
	StageFriend        Stage = "friend"
)

var stageOrder = map[Stage]int{
	StageInitial:       0,
	StageGettingToKnow: 1,
	StageFamiliar:      2,
	StageFriend:        3,
}

// Rank returns the stage's position; unknown stages rank as initial.
func (s Stage) Rank() int {
	return stageOrder[s]
}

func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// MaxStage returns whichever of a and b is further along.
func MaxStage(a, b Stage) Stage {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ConversationState tracks stage, rounds and depth for one session.
type ConversationState struct {
	SessionID         string    `json:"sessionId"`
	UserID            string    `json:"userId"`
	Stage             Stage     `json:"stage"`
	TotalRounds       int       `json:"totalRounds"`
	RelationshipDepth int       `json:"relationshipDepth"`
	LastDepthDelta    int       `json:"lastDepthDelta"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewConversationState is the state of a session before its first round.
func NewConversationState(sessionID, userID string) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		UserID:    userID,
		Stage:     StageInitial,
	}
}
