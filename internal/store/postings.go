package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscout/jobscout/internal/engine/feedback"
	"github.com/jobscout/jobscout/internal/jobs"
)

// PostingStore persists discovered job postings. Postings are user-scoped;
// every mutation is keyed by both the posting id and the owning user.
type PostingStore struct {
	pool *pgxpool.Pool
}

// NewPostingStore returns a PostingStore over the given pool.
func NewPostingStore(pool *pgxpool.Pool) *PostingStore {
	return &PostingStore{pool: pool}
}

// ExistingHashes returns which of the given content hashes already have a
// posting for the user discovered after since.
func (s *PostingStore) ExistingHashes(ctx context.Context, userID string, hashes []string, since time.Time) (map[string]bool, error) {
	if len(hashes) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content_hash FROM job_postings
		 WHERE user_id = $1 AND content_hash = ANY($2) AND discovered_at >= $3`,
		userID, hashes, since,
	)
	if err != nil {
		return nil, fmt.Errorf("existingHashes query: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("existingHashes scan: %w", err)
		}
		existing[hash] = true
	}
	return existing, rows.Err()
}

// Insert persists a new posting and fills in its generated id.
func (s *PostingStore) Insert(ctx context.Context, p *jobs.JobPosting) error {
	breakdown, err := marshalNullable(p.MatchBreakdown)
	if err != nil {
		return fmt.Errorf("insert posting: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO job_postings (
		   user_id, title, company_name, source_url, description, location,
		   work_type, experience_level, salary_min, salary_max, currency,
		   skills, benefits, company_size, source_platform, posted_date,
		   content_hash, search_query, match_score, match_breakdown,
		   match_reasons, status, discovered_at
		 ) VALUES (
		   $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		   $16, $17, $18, $19, $20, $21, $22, $23
		 ) RETURNING id`,
		p.UserID, p.Title, p.CompanyName, p.SourceURL, p.Description, p.Location,
		string(p.WorkType), string(p.ExperienceLevel), p.SalaryMin, p.SalaryMax, p.Currency,
		p.Skills, p.Benefits, p.CompanySize, p.SourcePlatform, p.PostedDate,
		p.ContentHash, p.SearchQuery, p.MatchScore, breakdown,
		p.MatchReasons, string(p.Status), p.DiscoveredAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert posting: %w", err)
	}
	return nil
}

const postingColumns = `
	id, user_id, title, company_name, source_url, description, location,
	work_type, experience_level, salary_min, salary_max, currency,
	skills, benefits, company_size, source_platform, posted_date,
	content_hash, search_query, match_score, match_breakdown, match_reasons,
	status, user_feedback, feedback_reason, discarded_until, application_id,
	discovered_at`

// Get fetches a posting by id regardless of owner. Callers that need
// ownership semantics compare UserID themselves.
func (s *PostingStore) Get(ctx context.Context, id string) (*jobs.JobPosting, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id)

	posting, err := scanPosting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	return posting, nil
}

// ApplyFeedback performs the single conditional feedback update, keyed by
// posting id and owning user.
func (s *PostingStore) ApplyFeedback(ctx context.Context, update *feedback.PostingUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_postings
		 SET status = $1, user_feedback = $2, feedback_reason = $3,
		     discarded_until = $4, updated_at = NOW()
		 WHERE id = $5 AND user_id = $6`,
		string(update.Status), string(update.Feedback), update.FeedbackReason,
		update.DiscardedUntil, update.ID, update.UserID,
	)
	if err != nil {
		return fmt.Errorf("apply feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

// ListForUser returns the user's postings, best matches first. Postings
// inside an active discard window are excluded. A non-empty status narrows
// the result; limit <= 0 means no limit.
func (s *PostingStore) ListForUser(ctx context.Context, userID string, status jobs.Status, limit int) ([]*jobs.JobPosting, error) {
	query := `SELECT ` + postingColumns + ` FROM job_postings
		 WHERE user_id = $1
		   AND (discarded_until IS NULL OR discarded_until <= NOW())`
	args := []any{userID}
	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY match_score DESC, discovered_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list postings query: %w", err)
	}
	defer rows.Close()

	postings := make([]*jobs.JobPosting, 0)
	for rows.Next() {
		posting, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("list postings scan: %w", err)
		}
		postings = append(postings, posting)
	}
	return postings, rows.Err()
}

func scanPosting(row pgx.Row) (*jobs.JobPosting, error) {
	var (
		p               jobs.JobPosting
		workType        string
		experienceLevel string
		status          string
		userFeedback    *string
		breakdown       []byte
	)

	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.CompanyName, &p.SourceURL, &p.Description, &p.Location,
		&workType, &experienceLevel, &p.SalaryMin, &p.SalaryMax, &p.Currency,
		&p.Skills, &p.Benefits, &p.CompanySize, &p.SourcePlatform, &p.PostedDate,
		&p.ContentHash, &p.SearchQuery, &p.MatchScore, &breakdown, &p.MatchReasons,
		&status, &userFeedback, &p.FeedbackReason, &p.DiscardedUntil, &p.ApplicationID,
		&p.DiscoveredAt,
	)
	if err != nil {
		return nil, err
	}

	p.WorkType = jobs.WorkType(workType)
	p.ExperienceLevel = jobs.ExperienceLevel(experienceLevel)
	p.Status = jobs.Status(status)
	if userFeedback != nil && *userFeedback != "" {
		fb := jobs.Feedback(*userFeedback)
		p.UserFeedback = &fb
	}
	if len(breakdown) > 0 {
		var b jobs.MatchBreakdown
		if err := json.Unmarshal(breakdown, &b); err != nil {
			return nil, fmt.Errorf("decode match_breakdown: %w", err)
		}
		p.MatchBreakdown = &b
	}
	return &p, nil
}

// marshalNullable encodes the breakdown as jsonb, mapping nil to SQL NULL.
func marshalNullable(b *jobs.MatchBreakdown) (any, error) {
	if b == nil {
		return nil, nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return data, nil
}
