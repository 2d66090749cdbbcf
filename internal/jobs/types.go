// Package jobs defines the domain model shared by the discovery, scoring and
// feedback components: profiles, preferences, discovered jobs and persisted
// postings.
package jobs

import "time"

// CVAnalysis holds the CV-derived part of a profile. It is produced by an
// external analysis flow and read-only here.
type CVAnalysis struct {
	Skills            []string `json:"skills,omitempty"`
	YearsOfExperience int      `json:"years_of_experience,omitempty"`
	Industries        []string `json:"industries,omitempty"`
	Seniority         string   `json:"seniority,omitempty"`
}

// Profile is a read-only snapshot of a user profile. It is owned and updated
// only by external profile-editing flows.
type Profile struct {
	UserID                 string     `json:"user_id"`
	PreferredJobTitles     []string   `json:"preferred_job_titles,omitempty"`
	PreferredIndustries    []string   `json:"preferred_industries,omitempty"`
	PreferredLocations     []string   `json:"preferred_locations,omitempty"`
	City                   string     `json:"city,omitempty"`
	SalaryExpectation      *int       `json:"salary_expectation,omitempty"`
	SalaryCurrency         string     `json:"salary_currency,omitempty"`
	CompanySizePreferences []string   `json:"company_size_preferences,omitempty"`
	CareerGoals            []string   `json:"career_goals,omitempty"`
	CVAnalysis             CVAnalysis `json:"cv_analysis,omitempty"`
}

// SkillPreference is an explicit skill requirement with a proficiency label.
type SkillPreference struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency,omitempty"`
}

// AIEnrichment holds AI-generated search hints attached to preferences.
type AIEnrichment struct {
	Keywords  []string   `json:"keywords,omitempty"`
	Boards    []string   `json:"boards,omitempty"`
	Insights  string     `json:"insights,omitempty"`
	Strategy  string     `json:"strategy,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FeedbackStats accumulates per-user feedback counters and a histogram of
// dislike reasons.
type FeedbackStats struct {
	Likes    int            `json:"likes"`
	Dislikes int            `json:"dislikes"`
	Hides    int            `json:"hides"`
	Reasons  map[string]int `json:"reasons,omitempty"`
}

// Total returns the overall number of recorded feedback events.
func (s FeedbackStats) Total() int {
	return s.Likes + s.Dislikes + s.Hides
}

// ImplicitPreferenceSalaryAdjustment is the knob raised when the user keeps
// disliking postings for low salary. Value range is [0, 50] percent.
const ImplicitPreferenceSalaryAdjustment = "salary_adjustment"

// MaxSalaryAdjustment caps the implicit salary adjustment knob.
const MaxSalaryAdjustment = 50

// Preferences is the mutable, per-user search preference row.
type Preferences struct {
	UserID                string             `json:"user_id"`
	Active                bool               `json:"active"`
	JobTitles             []string           `json:"job_titles,omitempty"`
	Locations             []string           `json:"locations,omitempty"`
	Skills                []SkillPreference  `json:"skills,omitempty"`
	CompanySizes          []string           `json:"company_sizes,omitempty"`
	RemotePolicies        []string           `json:"remote_policies,omitempty"`
	Benefits              []string           `json:"benefits,omitempty"`
	AvoidCompanies        []string           `json:"avoid_companies,omitempty"`
	AvoidKeywords         []string           `json:"avoid_keywords,omitempty"`
	SalaryMinimum         *int               `json:"salary_minimum,omitempty"`
	AIEnrichment          AIEnrichment       `json:"ai_enrichment,omitempty"`
	ImplicitPreferences   map[string]float64 `json:"implicit_preferences,omitempty"`
	FeedbackStats         FeedbackStats      `json:"feedback_stats,omitempty"`
	NotificationFrequency string             `json:"notification_frequency,omitempty"`
	LastRunAt             *time.Time         `json:"last_run_at,omitempty"`
	TotalJobsFound        int                `json:"total_jobs_found"`
}

// SalaryAdjustment returns the implicit salary adjustment in percent,
// clamped to [0, MaxSalaryAdjustment]. Missing knob reads as zero.
func (p *Preferences) SalaryAdjustment() float64 {
	if p == nil || p.ImplicitPreferences == nil {
		return 0
	}
	adj := p.ImplicitPreferences[ImplicitPreferenceSalaryAdjustment]
	if adj < 0 {
		return 0
	}
	if adj > MaxSalaryAdjustment {
		return MaxSalaryAdjustment
	}
	return adj
}

// SkillNames returns the names of the explicit skill preferences.
func (p *Preferences) SkillNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// DiscoveredJob is a freshly parsed, not-yet-persisted job candidate.
// Once produced by the pipeline ContentHash is always present and is a
// deterministic function of the normalized title and company name.
type DiscoveredJob struct {
	Title           string          `json:"title"`
	CompanyName     string          `json:"company_name"`
	SourceURL       string          `json:"source_url"`
	Description     string          `json:"description,omitempty"`
	Location        string          `json:"location,omitempty"`
	WorkType        WorkType        `json:"work_type,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty"`
	SalaryMin       *int            `json:"salary_min,omitempty"`
	SalaryMax       *int            `json:"salary_max,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	Skills          []string        `json:"skills,omitempty"`
	Benefits        []string        `json:"benefits,omitempty"`
	CompanySize     string          `json:"company_size,omitempty"`
	SourcePlatform  string          `json:"source_platform,omitempty"`
	PostedDate      string          `json:"posted_date,omitempty"`
	ContentHash     string          `json:"content_hash,omitempty"`
}

// MatchBreakdown carries the per-component contributions of a match score.
// Behavioral is nil when the user has no feedback history yet.
type MatchBreakdown struct {
	Skills      float64  `json:"skills"`
	Experience  float64  `json:"experience"`
	Location    float64  `json:"location"`
	Salary      float64  `json:"salary"`
	Preferences float64  `json:"preferences"`
	Behavioral  *float64 `json:"behavioral,omitempty"`
}

// MatchResult is the outcome of scoring a single job against a profile and
// preference set. TotalScore is always within [0, 100] and PassesThreshold
// and IsBorderline are never both true.
type MatchResult struct {
	TotalScore      float64        `json:"total_score"`
	Breakdown       MatchBreakdown `json:"breakdown"`
	MatchReasons    []string       `json:"match_reasons,omitempty"`
	PassesThreshold bool           `json:"passes_threshold"`
	IsBorderline    bool           `json:"is_borderline"`
}

// JobPosting is a persisted, user-scoped job candidate. Postings are created
// by the discovery orchestrator, mutated by the feedback learner and never
// hard-deleted by this engine.
type JobPosting struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	DiscoveredJob

	SearchQuery    string          `json:"search_query,omitempty"`
	MatchScore     float64         `json:"match_score"`
	MatchBreakdown *MatchBreakdown `json:"match_breakdown,omitempty"`
	MatchReasons   []string        `json:"match_reasons,omitempty"`
	Status         Status          `json:"status"`
	UserFeedback   *Feedback       `json:"user_feedback,omitempty"`
	FeedbackReason *string         `json:"feedback_reason,omitempty"`
	DiscardedUntil *time.Time      `json:"discarded_until,omitempty"`
	ApplicationID  *string         `json:"application_id,omitempty"`
	DiscoveredAt   time.Time       `json:"discovered_at"`
}
