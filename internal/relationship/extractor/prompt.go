package extractor

import (
	"fmt"
	"strings"
)

const systemInstruction = `You extract structured signals from one chat message sent to a Penghu tourism guide.
Reply with a single JSON object and nothing else. Use only what the message states explicitly; do not guess.
When the message gives no evidence for a field, use its default value.`

const promptTemplate = `Message:
"""
%s
"""

Return JSON with exactly this shape:
{
  "userType": {
    "classification": "resident" | "visitor" | "potential_visitor" | "curious" | "unknown",
    "confidence": number between 0 and 1,
    "evidence": short quote from the message that supports the classification
  },
  "interests": [ { "tag": "beach" | "culture" | "food" | "photography" | "diving" | "nature" | other short tag, "confidence": number between 0 and 1 } ],
  "travelPlan": { "isPlanning": boolean, "timeframe": string or null, "duration": string or null },
  "emotionalTone": "positive" | "neutral" | "negative" | "excited" | "worried",
  "needsFollowUp": boolean,
  "suggestedNextTopic": string or null
}

Defaults: userType {"classification":"unknown","confidence":0,"evidence":""}, interests [], travelPlan {"isPlanning":false,"timeframe":null,"duration":null}, emotionalTone "neutral", needsFollowUp false, suggestedNextTopic null.
resident means the user lives in Penghu. visitor means the user has been there or is there now. potential_visitor means the user is planning a trip.`

// BuildPrompt interpolates the raw message into the fixed template.
func BuildPrompt(message string) string {
	return fmt.Sprintf(promptTemplate, strings.ReplaceAll(message, `"""`, `"`))
}
