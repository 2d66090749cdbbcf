package jobs

import "fmt"

// WorkType is the closed set of work arrangements. Free-text values coming
// from the AI collaborator are fuzzy-normalized at the parsing boundary;
// inside the engine only these values (or empty for unknown) appear.
type WorkType string

const (
	WorkTypeRemote   WorkType = "remote"
	WorkTypeHybrid   WorkType = "hybrid"
	WorkTypeOnsite   WorkType = "onsite"
	WorkTypeFlexible WorkType = "flexible"
)

// ExperienceLevel is the closed set of seniority levels.
type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceExecutive ExperienceLevel = "executive"
)

// Status is the lifecycle state of a persisted posting.
type Status string

const (
	StatusNew       Status = "new"
	StatusViewed    Status = "viewed"
	StatusApplied   Status = "applied"
	StatusDismissed Status = "dismissed"
	StatusLiked     Status = "liked"
)

// Feedback is an explicit user verdict on a posting.
type Feedback string

const (
	FeedbackLike    Feedback = "like"
	FeedbackDislike Feedback = "dislike"
	FeedbackHide    Feedback = "hide"
)

// ParseFeedback converts a raw string to a Feedback, returning an error for
// unknown values.
func ParseFeedback(s string) (Feedback, error) {
	fb := Feedback(s)
	switch fb {
	case FeedbackLike, FeedbackDislike, FeedbackHide:
		return fb, nil
	}
	return "", fmt.Errorf("unknown feedback %q", s)
}

// Dislike reasons a client may attach to negative feedback. The adaptive
// rules in the feedback learner key off these exact strings.
const (
	ReasonSalaryTooLow           = "Salary too low"
	ReasonWrongLocation          = "Wrong location"
	ReasonNotInterestedInCompany = "Not interested in company"
	ReasonSkillsMismatch         = "Skills mismatch"
	ReasonOther                  = "Other"
)

// ValidFeedbackReason reports whether s is one of the accepted reasons.
func ValidFeedbackReason(s string) bool {
	switch s {
	case ReasonSalaryTooLow, ReasonWrongLocation, ReasonNotInterestedInCompany,
		ReasonSkillsMismatch, ReasonOther:
		return true
	}
	return false
}
