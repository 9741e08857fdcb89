// internal/workers/ai-conversation/process-chat-turn/models.go
package processchatturn

type Input struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type Output struct {
	TurnID             string   `json:"turnId"`
	Stage              string   `json:"stage"`
	TotalRounds        int      `json:"totalRounds"`
	RelationshipDepth  int      `json:"relationshipDepth"`
	UserType           string   `json:"userType"`
	Interests          []string `json:"interests"`
	EmotionalTone      string   `json:"emotionalTone"`
	NeedsFollowUp      bool     `json:"needsFollowUp"`
	SuggestedNextTopic *string  `json:"suggestedNextTopic"`
	ExtractionSource   string   `json:"extractionSource"`
	ProfileSaved       bool     `json:"profileSaved"`
	StateSaved         bool     `json:"stateSaved"`
}
