// Package heuristic is the deterministic keyword extractor. It never fails
// and makes no external calls, so it terminates every extraction cascade.
package heuristic

import (
	"regexp"
	"strings"

	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

const (
	cueConfidence      = 0.8
	unknownConfidence  = 0.5
	interestConfidence = 0.7
)

type cueGroup struct {
	classification models.UserTypeClassification
	cues           []string
	planning       bool
}

// Checked in order; the first group with a matching cue wins.
var userTypeGroups = []cueGroup{
	{classification: models.ClassResident, cues: []string{"居民", "住在", "在地"}},
	{classification: models.ClassVisitor, cues: []string{"來過", "去過", "之前", "第一次"}},
	{classification: models.ClassPotentialVisitor, cues: []string{"想來", "計劃", "打算"}, planning: true},
}

type interestSet struct {
	tag      string
	keywords []string
}

var interestSets = []interestSet{
	{models.InterestBeach, []string{"海灘", "沙灘", "海邊", "游泳", "玩水", "beach", "swim"}},
	{models.InterestCulture, []string{"文化", "歷史", "古蹟", "廟", "老街", "傳統", "culture", "history", "temple"}},
	{models.InterestFood, []string{"美食", "小吃", "海鮮", "餐廳", "好吃", "吃", "food", "seafood", "restaurant"}},
	{models.InterestPhotography, []string{"拍照", "攝影", "相機", "打卡", "photo", "camera"}},
	{models.InterestDiving, []string{"潛水", "浮潛", "珊瑚", "diving", "snorkel", "coral"}},
	{models.InterestNature, []string{"自然", "夕陽", "星空", "生態", "風景", "日出", "nature", "sunset", "sunrise", "stars"}},
}

type toneSet struct {
	tone     models.EmotionalTone
	keywords []string
}

// Scanned in order; a later match overwrites an earlier one.
var toneSets = []toneSet{
	{models.TonePositive, []string{"喜歡", "好棒", "開心", "謝謝", "不錯", "讚", "love", "great", "thanks", "nice"}},
	{models.ToneWorried, []string{"擔心", "害怕", "危險", "緊張", "worried", "scared", "dangerous"}},
	{models.ToneExcited, []string{"期待", "興奮", "迫不及待", "太棒", "excited", "can't wait"}},
}

var timeframes = []string{"下個月", "暑假", "寒假", "明年", "週末", "連假", "春節", "過年"}

var (
	durationPattern = regexp.MustCompile(`([0-9]+|[一二兩三四五六七八九十]+)\s*(天|晚|日)`)
	monthPattern    = regexp.MustCompile(`([0-9]{1,2}|十一|十二|[一二三四五六七八九十])\s*月`)
)

// Extract derives a fully populated bundle from message by keyword matching.
func Extract(message string) models.SignalBundle {
	text := strings.ToLower(message)

	bundle := models.DefaultSignalBundle()
	bundle.Source = models.SourceHeuristic
	bundle.UserType = classify(text)
	bundle.Interests = interests(text)
	bundle.EmotionalTone = tone(text)

	if bundle.UserType.Classification == models.ClassPotentialVisitor {
		bundle.TravelPlan = travelPlan(text)
	}

	bundle.NeedsFollowUp = bundle.UserType.Classification == models.ClassUnknown
	bundle.SuggestedNextTopic = nextTopic(bundle)
	return bundle
}

func classify(text string) models.UserTypeSignal {
	for _, g := range userTypeGroups {
		if cue, ok := firstMatch(text, g.cues); ok {
			return models.UserTypeSignal{
				Classification: g.classification,
				Confidence:     cueConfidence,
				Evidence:       "keyword:" + cue,
			}
		}
	}
	return models.UserTypeSignal{Classification: models.ClassUnknown, Confidence: unknownConfidence}
}

func interests(text string) []models.InterestSignal {
	out := []models.InterestSignal{}
	for _, set := range interestSets {
		if _, ok := firstMatch(text, set.keywords); ok {
			out = append(out, models.InterestSignal{Tag: set.tag, Confidence: interestConfidence})
		}
	}
	return out
}

func tone(text string) models.EmotionalTone {
	result := models.ToneNeutral
	for _, set := range toneSets {
		if _, ok := firstMatch(text, set.keywords); ok {
			result = set.tone
		}
	}
	return result
}

func travelPlan(text string) models.TravelPlan {
	plan := models.TravelPlan{IsPlanning: true}
	if m := durationPattern.FindString(text); m != "" {
		plan.Duration = models.StringPtr(strings.ReplaceAll(m, " ", ""))
	}
	if tf, ok := firstMatch(text, timeframes); ok {
		plan.Timeframe = models.StringPtr(tf)
	} else if m := monthPattern.FindString(text); m != "" {
		plan.Timeframe = models.StringPtr(strings.ReplaceAll(m, " ", ""))
	}
	return plan
}

func nextTopic(b models.SignalBundle) *string {
	switch {
	case b.UserType.Classification == models.ClassUnknown:
		return models.StringPtr("user_type")
	case len(b.Interests) == 0:
		return models.StringPtr("interests")
	case !b.TravelPlan.IsPlanning:
		return models.StringPtr("travel_plan")
	}
	return nil
}

func firstMatch(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
