package models

// UserTypeClassification is the extraction vocabulary for who the user is.
type UserTypeClassification string

const (
	ClassResident         UserTypeClassification = "resident"
	ClassVisitor          UserTypeClassification = "visitor"
	ClassPotentialVisitor UserTypeClassification = "potential_visitor"
	ClassCurious          UserTypeClassification = "curious"
	ClassUnknown          UserTypeClassification = "unknown"
)

type EmotionalTone string

const (
	TonePositive EmotionalTone = "positive"
	ToneNeutral  EmotionalTone = "neutral"
	ToneNegative EmotionalTone = "negative"
	ToneExcited  EmotionalTone = "excited"
	ToneWorried  EmotionalTone = "worried"
)

// Interest tags emitted by the extractors.
const (
	InterestBeach       = "beach"
	InterestCulture     = "culture"
	InterestFood        = "food"
	InterestPhotography = "photography"
	InterestDiving      = "diving"
	InterestNature      = "nature"
)

// Source values record which extraction tier produced a bundle.
const (
	SourceGemini    = "gemini"
	SourceOpenAI    = "openai"
	SourceHeuristic = "heuristic"
	SourceDefault   = "default"
)

// RawSignals is an untrusted, loosely typed extraction object as decoded
// from model output. Only the normalizer reads it.
type RawSignals map[string]interface{}

// SignalBundle is the fully populated extraction result for one message.
type SignalBundle struct {
	UserType           UserTypeSignal   `json:"userType"`
	Interests          []InterestSignal `json:"interests"`
	TravelPlan         TravelPlan       `json:"travelPlan"`
	EmotionalTone      EmotionalTone    `json:"emotionalTone"`
	NeedsFollowUp      bool             `json:"needsFollowUp"`
	SuggestedNextTopic *string          `json:"suggestedNextTopic"`

	Source string `json:"-"`
}

type UserTypeSignal struct {
	Classification UserTypeClassification `json:"classification"`
	Confidence     float64                `json:"confidence"`
	Evidence       string                 `json:"evidence"`
}

type InterestSignal struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

type TravelPlan struct {
	IsPlanning bool    `json:"isPlanning"`
	Timeframe  *string `json:"timeframe"`
	Duration   *string `json:"duration"`
}

func DefaultUserType() UserTypeSignal {
	return UserTypeSignal{Classification: ClassUnknown}
}

func DefaultTravelPlan() TravelPlan {
	return TravelPlan{}
}

// DefaultSignalBundle is the bundle of pure defaults used when nothing could
// be extracted.
func DefaultSignalBundle() SignalBundle {
	return SignalBundle{
		UserType:      DefaultUserType(),
		Interests:     []InterestSignal{},
		TravelPlan:    DefaultTravelPlan(),
		EmotionalTone: ToneNeutral,
		Source:        SourceDefault,
	}
}

func StringPtr(s string) *string {
	return &s
}
