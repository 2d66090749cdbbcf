package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscout/jobscout/internal/jobs"
)

// ProfileStore reads user profile snapshots. Profiles are owned by external
// profile-editing flows; this engine never writes them.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore returns a ProfileStore over the given pool.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Get fetches the profile snapshot for a user. Missing rows yield
// jobs.ErrNotFound.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*jobs.Profile, error) {
	var (
		p          jobs.Profile
		cvAnalysis []byte
	)

	err := s.pool.QueryRow(ctx,
		`SELECT user_id, preferred_job_titles, preferred_industries,
		        preferred_locations, city, salary_expectation, salary_currency,
		        company_size_preferences, career_goals, cv_analysis
		 FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(
		&p.UserID, &p.PreferredJobTitles, &p.PreferredIndustries,
		&p.PreferredLocations, &p.City, &p.SalaryExpectation, &p.SalaryCurrency,
		&p.CompanySizePreferences, &p.CareerGoals, &cvAnalysis,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if len(cvAnalysis) > 0 {
		if err := json.Unmarshal(cvAnalysis, &p.CVAnalysis); err != nil {
			return nil, fmt.Errorf("decode cv_analysis: %w", err)
		}
	}
	return &p, nil
}
