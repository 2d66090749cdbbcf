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

// PreferenceStore persists per-user search preferences. Structured fields
// (skills, enrichment, implicit preferences, feedback stats) live in jsonb
// columns.
type PreferenceStore struct {
	pool *pgxpool.Pool
}

// NewPreferenceStore returns a PreferenceStore over the given pool.
func NewPreferenceStore(pool *pgxpool.Pool) *PreferenceStore {
	return &PreferenceStore{pool: pool}
}

const preferenceColumns = `
	user_id, active, job_titles, locations, skills, company_sizes,
	remote_policies, benefits, avoid_companies, avoid_keywords,
	salary_minimum, ai_enrichment, implicit_preferences, feedback_stats,
	notification_frequency, last_run_at, total_jobs_found`

// Get fetches the preference row for a user. Missing rows yield
// jobs.ErrNotFound.
func (s *PreferenceStore) Get(ctx context.Context, userID string) (*jobs.Preferences, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+preferenceColumns+` FROM job_preferences WHERE user_id = $1`, userID)

	prefs, err := scanPreferences(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// Update writes back every mutable preference field.
func (s *PreferenceStore) Update(ctx context.Context, prefs *jobs.Preferences) error {
	skills, err := json.Marshal(prefs.Skills)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	enrichment, err := json.Marshal(prefs.AIEnrichment)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	implicit, err := json.Marshal(prefs.ImplicitPreferences)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	stats, err := json.Marshal(prefs.FeedbackStats)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE job_preferences
		 SET active = $1, job_titles = $2, locations = $3, skills = $4,
		     company_sizes = $5, remote_policies = $6, benefits = $7,
		     avoid_companies = $8, avoid_keywords = $9, salary_minimum = $10,
		     ai_enrichment = $11, implicit_preferences = $12,
		     feedback_stats = $13, notification_frequency = $14,
		     updated_at = NOW()
		 WHERE user_id = $15`,
		prefs.Active, prefs.JobTitles, prefs.Locations, skills,
		prefs.CompanySizes, prefs.RemotePolicies, prefs.Benefits,
		prefs.AvoidCompanies, prefs.AvoidKeywords, prefs.SalaryMinimum,
		enrichment, implicit, stats, prefs.NotificationFrequency,
		prefs.UserID,
	)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

// ListActive returns every preference row with the active flag set, for the
// scheduled discovery sweep.
func (s *PreferenceStore) ListActive(ctx context.Context) ([]*jobs.Preferences, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+preferenceColumns+` FROM job_preferences WHERE active`)
	if err != nil {
		return nil, fmt.Errorf("list active preferences: %w", err)
	}
	defer rows.Close()

	out := make([]*jobs.Preferences, 0)
	for rows.Next() {
		prefs, err := scanPreferences(rows)
		if err != nil {
			return nil, fmt.Errorf("list active preferences scan: %w", err)
		}
		out = append(out, prefs)
	}
	return out, rows.Err()
}

// RecordRun bumps the run bookkeeping after a discovery pass.
func (s *PreferenceStore) RecordRun(ctx context.Context, userID string, found int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_preferences
		 SET last_run_at = NOW(), total_jobs_found = total_jobs_found + $1
		 WHERE user_id = $2`,
		found, userID,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func scanPreferences(row pgx.Row) (*jobs.Preferences, error) {
	var (
		p          jobs.Preferences
		skills     []byte
		enrichment []byte
		implicit   []byte
		stats      []byte
	)

	err := row.Scan(
		&p.UserID, &p.Active, &p.JobTitles, &p.Locations, &skills,
		&p.CompanySizes, &p.RemotePolicies, &p.Benefits,
		&p.AvoidCompanies, &p.AvoidKeywords, &p.SalaryMinimum,
		&enrichment, &implicit, &stats,
		&p.NotificationFrequency, &p.LastRunAt, &p.TotalJobsFound,
	)
	if err != nil {
		return nil, err
	}

	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &p.Skills); err != nil {
			return nil, fmt.Errorf("decode skills: %w", err)
		}
	}
	if len(enrichment) > 0 {
		if err := json.Unmarshal(enrichment, &p.AIEnrichment); err != nil {
			return nil, fmt.Errorf("decode ai_enrichment: %w", err)
		}
	}
	if len(implicit) > 0 {
		if err := json.Unmarshal(implicit, &p.ImplicitPreferences); err != nil {
			return nil, fmt.Errorf("decode implicit_preferences: %w", err)
		}
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &p.FeedbackStats); err != nil {
			return nil, fmt.Errorf("decode feedback_stats: %w", err)
		}
	}
	return &p, nil
}
