// Package normalize turns an untrusted decoded extraction object into a
// fully populated SignalBundle. Each top-level field is checked on its own;
// a field that fails its schema is replaced wholesale by its default.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/validation"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

var confidenceSchema = map[string]interface{}{
	"type":    "number",
	"minimum": 0,
	"maximum": 1,
}

var nullableString = map[string]interface{}{
	"type": []interface{}{"string", "null"},
}

var (
	userTypeSchema = validation.MustCompile("userType", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"classification", "confidence"},
		"properties": map[string]interface{}{
			"classification": map[string]interface{}{
				"enum": []interface{}{
					string(models.ClassResident),
					string(models.ClassVisitor),
					string(models.ClassPotentialVisitor),
					string(models.ClassCurious),
					string(models.ClassUnknown),
				},
			},
			"confidence": confidenceSchema,
			"evidence":   nullableString,
		},
	})

	interestsSchema = validation.MustCompile("interests", map[string]interface{}{
		"type": "array",
	})

	interestItemSchema = validation.MustCompile("interests[]", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"tag", "confidence"},
		"properties": map[string]interface{}{
			"tag":        map[string]interface{}{"type": "string", "minLength": 1},
			"confidence": confidenceSchema,
		},
	})

	travelPlanSchema = validation.MustCompile("travelPlan", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"isPlanning"},
		"properties": map[string]interface{}{
			"isPlanning": map[string]interface{}{"type": "boolean"},
			"timeframe":  nullableString,
			"duration":   nullableString,
		},
	})

	toneSchema = validation.MustCompile("emotionalTone", map[string]interface{}{
		"enum": []interface{}{
			string(models.TonePositive),
			string(models.ToneNeutral),
			string(models.ToneNegative),
			string(models.ToneExcited),
			string(models.ToneWorried),
		},
	})

	followUpSchema = validation.MustCompile("needsFollowUp", map[string]interface{}{
		"type": "boolean",
	})

	nextTopicSchema = validation.MustCompile("suggestedNextTopic", nullableString)
)

// Normalize never fails. A nil or empty input yields the default bundle.
func Normalize(raw models.RawSignals) models.SignalBundle {
	b := models.DefaultSignalBundle()
	b.Source = ""
	if raw == nil {
		return b
	}

	if v, ok := raw["userType"]; ok && userTypeSchema.Validate(v).Valid {
		var ut models.UserTypeSignal
		if decode(v, &ut) {
			b.UserType = ut
		}
	}

	if v, ok := raw["interests"]; ok && interestsSchema.Validate(v).Valid {
		var items []interface{}
		if decode(v, &items) {
			b.Interests = interests(items)
		}
	}

	if v, ok := raw["travelPlan"]; ok && travelPlanSchema.Validate(v).Valid {
		var tp models.TravelPlan
		if decode(v, &tp) {
			b.TravelPlan = tp
		}
	}

	if v, ok := raw["emotionalTone"]; ok && toneSchema.Validate(v).Valid {
		var tone models.EmotionalTone
		if decode(v, &tone) {
			b.EmotionalTone = tone
		}
	}

	if v, ok := raw["needsFollowUp"]; ok && followUpSchema.Validate(v).Valid {
		var followUp bool
		if decode(v, &followUp) {
			b.NeedsFollowUp = followUp
		}
	}

	if v, ok := raw["suggestedNextTopic"]; ok && nextTopicSchema.Validate(v).Valid {
		var topic *string
		if decode(v, &topic) && topic != nil && strings.TrimSpace(*topic) != "" {
			b.SuggestedNextTopic = models.StringPtr(strings.TrimSpace(*topic))
		}
	}

	return b
}

func interests(items []interface{}) []models.InterestSignal {
	out := make([]models.InterestSignal, 0, len(items))
	for _, item := range items {
		if !interestItemSchema.Validate(item).Valid {
			continue
		}
		var in models.InterestSignal
		if !decode(item, &in) {
			continue
		}
		in.Tag = strings.TrimSpace(in.Tag)
		if in.Tag == "" {
			continue
		}
		out = append(out, in)
	}
	return out
}

// decode moves an already validated value into its typed form.
func decode(v interface{}, dst interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}
