package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/database"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/engine"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/extractor"
	"github.com/Hopenghu/hopenghucc-sub004/internal/relationship/stage"
	"github.com/Hopenghu/hopenghucc-sub004/internal/store"
	pct "github.com/Hopenghu/hopenghucc-sub004/internal/workers/ai-conversation/process-chat-turn"
)

// Runs against the Postgres and Redis from configs/config.yaml.
// Enable with E2E_TESTS=1.
func TestRelationshipE2E(t *testing.T) {
	if os.Getenv("E2E_TESTS") != "1" {
		t.Skip("set E2E_TESTS=1 to run against live services")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")

	pgStore := store.NewPostgresProfileStore(pg.DB)
	require.NoError(t, pgStore.EnsureSchema(ctx))

	profiles := store.NewCachedProfileStore(pgStore, rdb.Client, time.Minute, log)
	states := store.NewRedisStateStore(rdb.Client, time.Hour)

	machine, err := stage.NewMachine(cfg.Stage)
	require.NoError(t, err)

	eng := engine.New(extractor.New(nil, extractor.LoadConfig(cfg.Extraction), log), profiles, states, machine, log)
	handler := pct.NewHandler(pct.LoadConfig(), eng, log)

	userID := "e2e-" + uuid.NewString()
	sessionID := "e2e-session-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pg.DB.Exec(`DELETE FROM user_profiles WHERE user_id = $1`, userID)
		rdb.Client.Del(context.Background(), "profile:"+userID, "conv:state:"+sessionID)
	})

	messages := []string{
		"你好",
		"我打算下個月去澎湖玩",
		"想去海邊玩水，也想吃海鮮",
	}

	var out *pct.Output
	for _, msg := range messages {
		out, err = handler.Execute(ctx, &pct.Input{UserID: userID, SessionID: sessionID, Message: msg})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, out.TotalRounds)
	assert.Equal(t, 15, out.RelationshipDepth)
	assert.Equal(t, string(models.StageGettingToKnow), out.Stage)

	stored, err := pgStore.GetProfile(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StoredPlanningTraveler, stored.UserType)
	assert.Contains(t, stored.Interests, models.InterestBeach)
	assert.Contains(t, stored.Interests, models.InterestFood)

	state, err := states.GetState(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.StageGettingToKnow, state.Stage)
	assert.Equal(t, 15, state.RelationshipDepth)
}
