package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/Hopenghu/hopenghucc-sub004/internal/common/errors"
	"github.com/Hopenghu/hopenghucc-sub004/internal/models"
)

const storePostgres = "postgres"

// ProfileSchema creates the table the Postgres store reads and writes.
const ProfileSchema = `CREATE TABLE IF NOT EXISTS user_profiles (
	user_id     TEXT PRIMARY KEY,
	user_type   TEXT,
	interests   TEXT[] NOT NULL DEFAULT '{}',
	travel_plan JSONB,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	selectProfileQuery = `SELECT user_id, user_type, interests, travel_plan, updated_at FROM user_profiles WHERE user_id = $1`
	upsertProfileQuery = `INSERT INTO user_profiles (user_id, user_type, interests, travel_plan, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
	user_type = EXCLUDED.user_type,
	interests = EXCLUDED.interests,
	travel_plan = EXCLUDED.travel_plan,
	updated_at = EXCLUDED.updated_at`
)

type PostgresProfileStore struct {
	db *sql.DB
}

func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

// EnsureSchema creates the profile table when missing.
func (s *PostgresProfileStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ProfileSchema); err != nil {
		return apperrors.NewStoreWriteFailedError(storePostgres, fmt.Errorf("ensure schema: %w", err))
	}
	return nil
}

func (s *PostgresProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var (
		p          models.UserProfile
		userType   sql.NullString
		interests  pq.StringArray
		travelPlan []byte
	)
	err := s.db.QueryRowContext(ctx, selectProfileQuery, userID).Scan(
		&p.UserID, &userType, &interests, &travelPlan, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewStoreReadFailedError(storePostgres, err)
	}

	p.UserType = models.StoredUserType(userType.String)
	p.Interests = []string(interests)
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if len(travelPlan) > 0 && string(travelPlan) != "null" {
		var tp models.TravelPlan
		if err := json.Unmarshal(travelPlan, &tp); err != nil {
			return nil, apperrors.NewStoreReadFailedError(storePostgres, fmt.Errorf("decode travel_plan: %w", err))
		}
		p.TravelPlan = &tp
	}
	return &p, nil
}

func (s *PostgresProfileStore) SetProfile(ctx context.Context, userID string, profile *models.UserProfile) error {
	var travelPlan interface{}
	if profile.TravelPlan != nil {
		data, err := json.Marshal(profile.TravelPlan)
		if err != nil {
			return apperrors.NewStoreWriteFailedError(storePostgres, err)
		}
		travelPlan = data
	}

	userType := sql.NullString{String: string(profile.UserType), Valid: profile.UserType != ""}
	interests := profile.Interests
	if interests == nil {
		interests = []string{}
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, upsertProfileQuery,
		userID, userType, pq.Array(interests), travelPlan, now,
	); err != nil {
		return apperrors.NewStoreWriteFailedError(storePostgres, err)
	}
	profile.UpdatedAt = now
	return nil
}
