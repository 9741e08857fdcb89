package models

import (
	"sort"
	"time"
)

// StoredUserType is the coarser classification persisted on a profile.
type StoredUserType string

const (
	StoredLocal            StoredUserType = "local"
	StoredVisitedTraveler  StoredUserType = "visited_traveler"
	StoredPlanningTraveler StoredUserType = "planning_traveler"
	StoredTraveler         StoredUserType = "traveler"
)

// StoredTypeFor maps an extraction classification onto the stored
// vocabulary. Anything not explicitly mapped is a traveler.
func StoredTypeFor(c UserTypeClassification) StoredUserType {
	switch c {
	case ClassResident:
		return StoredLocal
	case ClassVisitor:
		return StoredVisitedTraveler
	case ClassPotentialVisitor:
		return StoredPlanningTraveler
	default:
		return StoredTraveler
	}
}

// UserProfile is the durable per-user accumulation of extracted signals.
type UserProfile struct {
	UserID     string         `json:"userId" db:"user_id"`
	UserType   StoredUserType `json:"userType,omitempty" db:"user_type"`
	Interests  []string       `json:"interests" db:"interests"`
	TravelPlan *TravelPlan    `json:"travelPlan,omitempty" db:"travel_plan"`
	UpdatedAt  time.Time      `json:"updatedAt" db:"updated_at"`
}

// HasInterest reports whether tag is already in the profile's interest set.
func (p *UserProfile) HasInterest(tag string) bool {
	for _, t := range p.Interests {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing store
// state.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Interests = append([]string(nil), p.Interests...)
	if p.TravelPlan != nil {
		tp := CloneTravelPlan(*p.TravelPlan)
		out.TravelPlan = &tp
	}
	return &out
}

// SortInterests puts the interest set in canonical order.
func (p *UserProfile) SortInterests() {
	sort.Strings(p.Interests)
}

func CloneTravelPlan(tp TravelPlan) TravelPlan {
	out := TravelPlan{IsPlanning: tp.IsPlanning}
	if tp.Timeframe != nil {
		out.Timeframe = StringPtr(*tp.Timeframe)
	}
	if tp.Duration != nil {
		out.Duration = StringPtr(*tp.Duration)
	}
	return out
}
