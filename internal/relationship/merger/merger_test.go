package merger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
	"github.com/Hopenghu/hopenghucc-sub004/internal/store"
)

func bundle(class models.UserTypeClassification, conf float64, interests ...models.InterestSignal) models.SignalBundle {
	b := models.DefaultSignalBundle()
	b.UserType = models.UserTypeSignal{Classification: class, Confidence: conf}
	b.Interests = append(b.Interests, interests...)
	return b
}

func interest(tag string, conf float64) models.InterestSignal {
	return models.InterestSignal{Tag: tag, Confidence: conf}
}

func TestApply_UserTypeGate(t *testing.T) {
	tests := []struct {
		name string
		conf float64
		want models.StoredUserType
	}{
		{"at gate is ignored", 0.7, ""},
		{"just above gate", 0.71, models.StoredLocal},
		{"high", 0.95, models.StoredLocal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Apply(nil, "u1", bundle(models.ClassResident, tt.conf))
			assert.Equal(t, tt.want, p.UserType)
		})
	}
}

func TestApply_UserTypeMapping(t *testing.T) {
	tests := map[models.UserTypeClassification]models.StoredUserType{
		models.ClassResident:         models.StoredLocal,
		models.ClassVisitor:          models.StoredVisitedTraveler,
		models.ClassPotentialVisitor: models.StoredPlanningTraveler,
		models.ClassCurious:          models.StoredTraveler,
		models.ClassUnknown:          models.StoredTraveler,
	}
	for class, want := range tests {
		p := Apply(nil, "u1", bundle(class, 0.9))
		assert.Equal(t, want, p.UserType, string(class))
	}
}

func TestApply_LowConfidenceKeepsExistingType(t *testing.T) {
	current := &models.UserProfile{UserID: "u1", UserType: models.StoredLocal, Interests: []string{}}
	p := Apply(current, "u1", bundle(models.ClassVisitor, 0.5))
	assert.Equal(t, models.StoredLocal, p.UserType)
}

func TestApply_InterestUnion(t *testing.T) {
	current := &models.UserProfile{UserID: "u1", Interests: []string{"beach"}}
	p := Apply(current, "u1", bundle(models.ClassUnknown, 0, interest("beach", 0.9), interest("food", 0.8)))

	assert.Equal(t, []string{"beach", "food"}, p.Interests)
	assert.Equal(t, []string{"beach"}, current.Interests, "input profile is not modified")
}

func TestApply_InterestGate(t *testing.T) {
	p := Apply(nil, "u1", bundle(models.ClassUnknown, 0,
		interest("culture", 0.6),
		interest("diving", 0.61),
		interest("diving", 0.9),
	))
	assert.Equal(t, []string{"diving"}, p.Interests)
}

func TestApply_TravelPlan(t *testing.T) {
	old := &models.TravelPlan{IsPlanning: true, Timeframe: models.StringPtr("暑假")}
	current := &models.UserProfile{UserID: "u1", Interests: []string{}, TravelPlan: old}

	notPlanning := models.DefaultSignalBundle()
	p := Apply(current, "u1", notPlanning)
	require.NotNil(t, p.TravelPlan)
	assert.Equal(t, "暑假", *p.TravelPlan.Timeframe)

	planning := models.DefaultSignalBundle()
	planning.TravelPlan = models.TravelPlan{IsPlanning: true, Duration: models.StringPtr("三天")}
	p = Apply(current, "u1", planning)
	require.NotNil(t, p.TravelPlan)
	assert.Nil(t, p.TravelPlan.Timeframe, "replaced wholesale")
	assert.Equal(t, "三天", *p.TravelPlan.Duration)
}

func TestApply_Idempotent(t *testing.T) {
	b := bundle(models.ClassPotentialVisitor, 0.8, interest("nature", 0.7), interest("beach", 0.7))
	b.TravelPlan = models.TravelPlan{IsPlanning: true, Timeframe: models.StringPtr("下個月")}

	start := &models.UserProfile{UserID: "u1", Interests: []string{"food"}}
	once := Apply(start, "u1", b)
	twice := Apply(once, "u1", b)

	assert.Equal(t, once, twice)
}

type failingStore struct {
	getErr error
	setErr error
	sets   int
}

func (f *failingStore) GetProfile(context.Context, string) (*models.UserProfile, error) {
	return nil, f.getErr
}

func (f *failingStore) SetProfile(context.Context, string, *models.UserProfile) error {
	f.sets++
	return f.setErr
}

func TestMerger_Merge(t *testing.T) {
	s := store.NewMemoryProfileStore()
	m := New(s, logger.NewTestLogger(t))
	ctx := context.Background()

	_, ok := m.Merge(ctx, "u1", bundle(models.ClassVisitor, 0.8, interest("beach", 0.7)))
	require.True(t, ok)
	p, ok := m.Merge(ctx, "u1", bundle(models.ClassUnknown, 0.5, interest("beach", 0.7), interest("food", 0.7)))
	require.True(t, ok)

	assert.Equal(t, models.StoredVisitedTraveler, p.UserType)
	assert.Equal(t, []string{"beach", "food"}, p.Interests)

	stored, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "food"}, stored.Interests)
}

func TestMerger_StoreFailures(t *testing.T) {
	ctx := context.Background()
	b := bundle(models.ClassResident, 0.9)

	readFail := &failingStore{getErr: errors.New("timeout")}
	p, ok := New(readFail, logger.NewTestLogger(t)).Merge(ctx, "u1", b)
	assert.False(t, ok)
	assert.Equal(t, models.StoredLocal, p.UserType)
	assert.Equal(t, 0, readFail.sets)

	writeFail := &failingStore{setErr: errors.New("disk full")}
	p, ok = New(writeFail, logger.NewTestLogger(t)).Merge(ctx, "u1", b)
	assert.False(t, ok)
	assert.Equal(t, models.StoredLocal, p.UserType)
	assert.Equal(t, 1, writeFail.sets)
}
