package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/jobs"
)

const (
	postingID = "0f8fad5b-d9cb-469f-a165-70867728950e"
	ownerID   = "user-1"
)

type stubPostingStore struct {
	posting  *jobs.JobPosting
	getErr   error
	applyErr error
	applied  *PostingUpdate
}

func (s *stubPostingStore) Get(_ context.Context, id string) (*jobs.JobPosting, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.posting == nil || s.posting.ID != id {
		return nil, jobs.ErrNotFound
	}
	copied := *s.posting
	return &copied, nil
}

func (s *stubPostingStore) ApplyFeedback(_ context.Context, update *PostingUpdate) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = update
	return nil
}

type stubPrefStore struct {
	prefs     *jobs.Preferences
	getErr    error
	updateErr error
	updates   int
}

func (s *stubPrefStore) Get(_ context.Context, _ string) (*jobs.Preferences, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.prefs == nil {
		return nil, jobs.ErrNotFound
	}
	return s.prefs, nil
}

func (s *stubPrefStore) Update(_ context.Context, prefs *jobs.Preferences) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.prefs = prefs
	s.updates++
	return nil
}

func strptr(s string) *string { return &s }

func newFixture() (*Learner, *stubPostingStore, *stubPrefStore) {
	until := time.Now().Add(24 * time.Hour)
	postings := &stubPostingStore{posting: &jobs.JobPosting{
		ID:     postingID,
		UserID: ownerID,
		DiscoveredJob: jobs.DiscoveredJob{
			Title:       "Backend Engineer",
			CompanyName: "BadCorp",
		},
		Status:         jobs.StatusNew,
		DiscardedUntil: &until,
	}}
	prefs := &stubPrefStore{prefs: &jobs.Preferences{UserID: ownerID}}
	return New(postings, prefs, zap.NewNop()), postings, prefs
}

func TestApplyRejectsMalformedInput(t *testing.T) {
	learner, postings, _ := newFixture()

	tests := []struct {
		name string
		in   Input
	}{
		{"bad uuid", Input{JobPostingID: "not-a-uuid", UserID: ownerID, Feedback: "like"}},
		{"unknown feedback", Input{JobPostingID: postingID, UserID: ownerID, Feedback: "love"}},
		{"unknown reason", Input{JobPostingID: postingID, UserID: ownerID, Feedback: "dislike", Reason: strptr("Too far away")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := learner.Apply(context.Background(), tt.in)
			if !jobs.IsValidation(err) {
				t.Fatalf("got %v, want a validation error", err)
			}
			if postings.applied != nil {
				t.Error("validation failures must not mutate the posting")
			}
		})
	}
}

func TestApplyNotFoundVersusForbidden(t *testing.T) {
	learner, postings, prefs := newFixture()

	_, err := learner.Apply(context.Background(), Input{
		JobPostingID: "11111111-2222-3333-4444-555555555555",
		UserID:       ownerID,
		Feedback:     "like",
	})
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("missing posting: got %v, want ErrNotFound", err)
	}

	_, err = learner.Apply(context.Background(), Input{
		JobPostingID: postingID,
		UserID:       "someone-else",
		Feedback:     "like",
	})
	if !errors.Is(err, jobs.ErrForbidden) {
		t.Fatalf("foreign posting: got %v, want ErrForbidden", err)
	}

	if postings.applied != nil || prefs.updates != 0 {
		t.Error("rejected calls must perform no mutation at all")
	}
}

func TestApplyLikeClearsDiscardWindow(t *testing.T) {
	learner, postings, prefs := newFixture()

	posting, err := learner.Apply(context.Background(), Input{
		JobPostingID: postingID,
		UserID:       ownerID,
		Feedback:     "like",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if posting.Status != jobs.StatusLiked {
		t.Errorf("status = %q, want %q", posting.Status, jobs.StatusLiked)
	}
	if posting.DiscardedUntil != nil {
		t.Error("like must clear discarded_until")
	}
	if postings.applied == nil || postings.applied.DiscardedUntil != nil {
		t.Error("posting update must carry a nil discard window")
	}
	if prefs.prefs.FeedbackStats.Likes != 1 {
		t.Errorf("likes counter = %d, want 1", prefs.prefs.FeedbackStats.Likes)
	}
}

func TestApplyDislikeSetsDiscardWindowAndReason(t *testing.T) {
	learner, postings, prefs := newFixture()

	posting, err := learner.Apply(context.Background(), Input{
		JobPostingID: postingID,
		UserID:       ownerID,
		Feedback:     "dislike",
		Reason:       strptr(jobs.ReasonSkillsMismatch),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if posting.Status != jobs.StatusDismissed {
		t.Errorf("status = %q, want %q", posting.Status, jobs.StatusDismissed)
	}
	if posting.FeedbackReason == nil || *posting.FeedbackReason != jobs.ReasonSkillsMismatch {
		t.Errorf("feedback reason = %v, want %q", posting.FeedbackReason, jobs.ReasonSkillsMismatch)
	}
	assertDiscardWindow(t, postings.applied.DiscardedUntil)

	stats := prefs.prefs.FeedbackStats
	if stats.Dislikes != 1 {
		t.Errorf("dislikes counter = %d, want 1", stats.Dislikes)
	}
	if stats.Reasons[jobs.ReasonSkillsMismatch] != 1 {
		t.Errorf("reason histogram = %v, want one %q entry", stats.Reasons, jobs.ReasonSkillsMismatch)
	}
}

func TestApplyHideDropsReason(t *testing.T) {
	learner, _, prefs := newFixture()

	posting, err := learner.Apply(context.Background(), Input{
		JobPostingID: postingID,
		UserID:       ownerID,
		Feedback:     "hide",
		Reason:       strptr(jobs.ReasonOther),
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if posting.Status != jobs.StatusDismissed {
		t.Errorf("status = %q, want %q", posting.Status, jobs.StatusDismissed)
	}
	if posting.FeedbackReason != nil {
		t.Errorf("hide must store a nil reason, got %q", *posting.FeedbackReason)
	}
	assertDiscardWindow(t, posting.DiscardedUntil)
	if prefs.prefs.FeedbackStats.Hides != 1 {
		t.Errorf("hides counter = %d, want 1", prefs.prefs.FeedbackStats.Hides)
	}
}

func TestApplySalaryAdjustmentStepAndCap(t *testing.T) {
	learner, _, prefs := newFixture()
	in := Input{
		JobPostingID: postingID,
		UserID:       ownerID,
		Feedback:     "dislike",
		Reason:       strptr(jobs.ReasonSalaryTooLow),
	}

	if _, err := learner.Apply(context.Background(), in); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := prefs.prefs.ImplicitPreferences[jobs.ImplicitPreferenceSalaryAdjustment]; got != 10 {
		t.Errorf("first dislike: adjustment = %v, want 10", got)
	}

	prefs.prefs.ImplicitPreferences[jobs.ImplicitPreferenceSalaryAdjustment] = 45
	if _, err := learner.Apply(context.Background(), in); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := prefs.prefs.ImplicitPreferences[jobs.ImplicitPreferenceSalaryAdjustment]; got != jobs.MaxSalaryAdjustment {
		t.Errorf("capped dislike: adjustment = %v, want %d", got, jobs.MaxSalaryAdjustment)
	}
}

func TestApplyAvoidCompanyAppendOnce(t *testing.T) {
	learner, _, prefs := newFixture()
	in := Input{
		JobPostingID: postingID,
		UserID:       ownerID,
		Feedback:     "dislike",
		Reason:       strptr(jobs.ReasonNotInterestedInCompany),
	}

	if _, err := learner.Apply(context.Background(), in); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(prefs.prefs.AvoidCompanies) != 1 || prefs.prefs.AvoidCompanies[0] != "BadCorp" {
		t.Fatalf("avoid_companies = %v, want [BadCorp]", prefs.prefs.AvoidCompanies)
	}
	if prefs.updates != 1 {
		t.Fatalf("updates = %d, want 1", prefs.updates)
	}

	// Repeat: no duplicate and no second preferences write at all.
	if _, err := learner.Apply(context.Background(), in); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(prefs.prefs.AvoidCompanies) != 1 {
		t.Errorf("avoid_companies = %v, want no duplicate", prefs.prefs.AvoidCompanies)
	}
	if prefs.updates != 1 {
		t.Errorf("updates = %d, want the repeat to skip the write", prefs.updates)
	}
	if prefs.prefs.FeedbackStats.Dislikes != 1 {
		t.Errorf("dislikes = %d, want the skipped write to leave counters alone", prefs.prefs.FeedbackStats.Dislikes)
	}
}

func TestApplyAuthoritativeWriteFailureFailsCall(t *testing.T) {
	learner, postings, prefs := newFixture()
	postings.applyErr = errors.New("db down")

	_, err := learner.Apply(context.Background(), Input{
		JobPostingID: postingID,
		UserID:       ownerID,
		Feedback:     "like",
	})
	if err == nil {
		t.Fatal("posting write failure must fail the call")
	}
	if prefs.updates != 0 {
		t.Error("preferences must stay untouched when the posting write fails")
	}
}

func TestApplyAdvisoryFailuresAreSwallowed(t *testing.T) {
	in := Input{JobPostingID: postingID, UserID: ownerID, Feedback: "like"}

	t.Run("missing preferences row", func(t *testing.T) {
		learner, _, prefs := newFixture()
		prefs.prefs = nil
		if _, err := learner.Apply(context.Background(), in); err != nil {
			t.Fatalf("missing preferences must not fail the call: %v", err)
		}
	})

	t.Run("preferences write failure", func(t *testing.T) {
		learner, _, prefs := newFixture()
		prefs.updateErr = errors.New("conflict")
		if _, err := learner.Apply(context.Background(), in); err != nil {
			t.Fatalf("advisory write failure must not fail the call: %v", err)
		}
	})
}

func assertDiscardWindow(t *testing.T, until *time.Time) {
	t.Helper()
	if until == nil {
		t.Fatal("discarded_until must be set")
	}
	want := time.Now().Add(discardWindow)
	if diff := until.Sub(want); diff < -24*time.Hour || diff > 24*time.Hour {
		t.Errorf("discarded_until = %v, want about %v", until, want)
	}
}
