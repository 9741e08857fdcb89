// Package merger folds a SignalBundle into the durable user profile.
package merger

import (
	"context"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/metrics"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
	"github.com/Hopenghu/hopenghucc-sub004/internal/store"
)

// Gates are strict: a confidence equal to the gate is not applied.
const (
	UserTypeGate = 0.7
	InterestGate = 0.6
)

// Apply returns current with bundle merged in. current is not modified and
// may be nil for a user with no profile yet.
func Apply(current *models.UserProfile, userID string, bundle models.SignalBundle) *models.UserProfile {
	next := current.Clone()
	if next == nil {
		next = &models.UserProfile{UserID: userID, Interests: []string{}}
	}
	next.UserID = userID
	if next.Interests == nil {
		next.Interests = []string{}
	}

	if bundle.UserType.Confidence > UserTypeGate {
		next.UserType = models.StoredTypeFor(bundle.UserType.Classification)
	}

	for _, in := range bundle.Interests {
		if in.Confidence > InterestGate && in.Tag != "" && !next.HasInterest(in.Tag) {
			next.Interests = append(next.Interests, in.Tag)
		}
	}
	next.SortInterests()

	if bundle.TravelPlan.IsPlanning {
		tp := models.CloneTravelPlan(bundle.TravelPlan)
		next.TravelPlan = &tp
	}

	return next
}

type Merger struct {
	store  store.ProfileStore
	logger logger.Logger
}

func New(profiles store.ProfileStore, log logger.Logger) *Merger {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Merger{
		store:  profiles,
		logger: log.With(map[string]interface{}{"component": "merger"}),
	}
}

// Merge reads the profile, applies bundle and writes the whole profile back
// once. Store failures are logged and reported as false; the returned
// profile is the merged view either way.
func (m *Merger) Merge(ctx context.Context, userID string, bundle models.SignalBundle) (*models.UserProfile, bool) {
	current, err := m.store.GetProfile(ctx, userID)
	if err != nil {
		m.logger.Error("failed to read profile", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		metrics.ProfileMerges.WithLabelValues("read_failed").Inc()
		return Apply(nil, userID, bundle), false
	}

	next := Apply(current, userID, bundle)
	if err := m.store.SetProfile(ctx, userID, next); err != nil {
		m.logger.Error("failed to write profile", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		metrics.ProfileMerges.WithLabelValues("write_failed").Inc()
		return next, false
	}

	metrics.ProfileMerges.WithLabelValues("saved").Inc()
	m.logger.Debug("profile merged", map[string]interface{}{
		"userId":    userID,
		"userType":  string(next.UserType),
		"interests": next.Interests,
	})
	return next, true
}
