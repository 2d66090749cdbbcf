// Package feedback records explicit user verdicts on job postings and adapts
// the user's search preferences from them.
//
// The learner performs two independent writes. The posting write is
// authoritative and its failure fails the call. The preferences write is
// advisory: a missing row, a write failure or any adaptive-rule problem is
// logged and swallowed because the verdict is already durably recorded on
// the posting.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/jobs"
)

// discardWindow is how long a dismissed posting stays suppressed.
const discardWindow = 30 * 24 * time.Hour

// salaryAdjustmentStep is added to the implicit salary adjustment on every
// "Salary too low" dislike.
const salaryAdjustmentStep = 10

// PostingStore is the slice of the job store the learner needs.
type PostingStore interface {
	// Get fetches a posting by id regardless of owner, so the learner can
	// distinguish a missing posting from a foreign one.
	Get(ctx context.Context, id string) (*jobs.JobPosting, error)
	// ApplyFeedback performs a single conditional update keyed by the
	// posting id and owning user.
	ApplyFeedback(ctx context.Context, update *PostingUpdate) error
}

// PreferenceStore is the slice of the preference store the learner needs.
// Get must return jobs.ErrNotFound for a missing row.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (*jobs.Preferences, error)
	Update(ctx context.Context, prefs *jobs.Preferences) error
}

// PostingUpdate is the authoritative mutation applied to one posting.
type PostingUpdate struct {
	ID             string
	UserID         string
	Status         jobs.Status
	Feedback       jobs.Feedback
	FeedbackReason *string
	DiscardedUntil *time.Time
}

// Input is a raw, not-yet-validated feedback request.
type Input struct {
	JobPostingID string
	UserID       string
	Feedback     string
	Reason       *string
}

// Learner applies feedback to postings and preferences.
type Learner struct {
	postings PostingStore
	prefs    PreferenceStore
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Learner.
func New(postings PostingStore, prefs PreferenceStore, logger *zap.Logger) *Learner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Learner{
		postings: postings,
		prefs:    prefs,
		logger:   logger,
		now:      time.Now,
	}
}

// Apply validates the input, mutates the posting and then adapts the user's
// preferences. It returns the posting as it looks after the update.
//
// Error classification: malformed input yields a jobs.ValidationError, a
// missing posting jobs.ErrNotFound, a foreign posting jobs.ErrForbidden, and
// a failed posting write the store's error. All of these happen before or
// instead of the advisory preferences write.
func (l *Learner) Apply(ctx context.Context, in Input) (*jobs.JobPosting, error) {
	verdict, err := l.validate(in)
	if err != nil {
		return nil, err
	}

	posting, err := l.postings.Get(ctx, in.JobPostingID)
	if err != nil {
		return nil, err
	}
	if posting.UserID != in.UserID {
		return nil, jobs.ErrForbidden
	}

	update := l.buildUpdate(posting, verdict, in.Reason)
	if err := l.postings.ApplyFeedback(ctx, update); err != nil {
		return nil, fmt.Errorf("apply feedback to posting %s: %w", update.ID, err)
	}

	posting.Status = update.Status
	posting.UserFeedback = &update.Feedback
	posting.FeedbackReason = update.FeedbackReason
	posting.DiscardedUntil = update.DiscardedUntil

	l.adaptPreferences(ctx, posting, verdict, in.Reason)

	return posting, nil
}

func (l *Learner) validate(in Input) (jobs.Feedback, error) {
	if _, err := uuid.Parse(in.JobPostingID); err != nil {
		return "", jobs.NewValidationError("job posting id must be a valid uuid")
	}
	verdict, err := jobs.ParseFeedback(in.Feedback)
	if err != nil {
		return "", jobs.NewValidationError(err.Error())
	}
	if in.Reason != nil && !jobs.ValidFeedbackReason(*in.Reason) {
		return "", jobs.NewValidationError(fmt.Sprintf("unknown feedback reason %q", *in.Reason))
	}
	return verdict, nil
}

func (l *Learner) buildUpdate(posting *jobs.JobPosting, verdict jobs.Feedback, reason *string) *PostingUpdate {
	update := &PostingUpdate{
		ID:       posting.ID,
		UserID:   posting.UserID,
		Feedback: verdict,
	}

	switch verdict {
	case jobs.FeedbackLike:
		update.Status = jobs.StatusLiked
		// DiscardedUntil stays nil: a like always clears the window.
	case jobs.FeedbackDislike:
		update.Status = jobs.StatusDismissed
		until := l.now().Add(discardWindow)
		update.DiscardedUntil = &until
		update.FeedbackReason = reason
	case jobs.FeedbackHide:
		update.Status = jobs.StatusDismissed
		until := l.now().Add(discardWindow)
		update.DiscardedUntil = &until
		// Hides never record a reason even when the client sends one.
	}

	return update
}

// adaptPreferences runs the advisory half: counters, the dislike-reason
// histogram and the adaptive rules. Every failure is logged and swallowed.
func (l *Learner) adaptPreferences(ctx context.Context, posting *jobs.JobPosting, verdict jobs.Feedback, reason *string) {
	prefs, err := l.prefs.Get(ctx, posting.UserID)
	if err != nil {
		level := l.logger.Warn
		if errors.Is(err, jobs.ErrNotFound) {
			level = l.logger.Debug
		}
		level("skipping preference adaptation",
			zap.String("user_id", posting.UserID),
			zap.Error(err),
		)
		return
	}

	if verdict == jobs.FeedbackDislike && reason != nil &&
		*reason == jobs.ReasonNotInterestedInCompany &&
		containsFold(prefs.AvoidCompanies, posting.CompanyName) {
		l.logger.Debug("company already avoided; skipping preference write",
			zap.String("user_id", posting.UserID),
			zap.String("company", posting.CompanyName),
		)
		return
	}

	switch verdict {
	case jobs.FeedbackLike:
		prefs.FeedbackStats.Likes++
	case jobs.FeedbackDislike:
		prefs.FeedbackStats.Dislikes++
		if reason != nil {
			if prefs.FeedbackStats.Reasons == nil {
				prefs.FeedbackStats.Reasons = make(map[string]int)
			}
			prefs.FeedbackStats.Reasons[*reason]++
		}
	case jobs.FeedbackHide:
		prefs.FeedbackStats.Hides++
	}

	if verdict == jobs.FeedbackDislike && reason != nil {
		switch *reason {
		case jobs.ReasonSalaryTooLow:
			raiseSalaryAdjustment(prefs)
		case jobs.ReasonNotInterestedInCompany:
			prefs.AvoidCompanies = append(prefs.AvoidCompanies, posting.CompanyName)
		}
	}

	if err := l.prefs.Update(ctx, prefs); err != nil {
		l.logger.Warn("advisory preference write failed",
			zap.String("user_id", posting.UserID),
			zap.Error(err),
		)
	}
}

func raiseSalaryAdjustment(prefs *jobs.Preferences) {
	if prefs.ImplicitPreferences == nil {
		prefs.ImplicitPreferences = make(map[string]float64)
	}
	adj := prefs.ImplicitPreferences[jobs.ImplicitPreferenceSalaryAdjustment] + salaryAdjustmentStep
	if adj > jobs.MaxSalaryAdjustment {
		adj = jobs.MaxSalaryAdjustment
	}
	prefs.ImplicitPreferences[jobs.ImplicitPreferenceSalaryAdjustment] = adj
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
