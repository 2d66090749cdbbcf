// Package score computes the weighted fit score of a job candidate against a
// user profile and preference set. Scoring is pure and deterministic: no
// randomness, no wall-clock reads, identical input always yields identical
// output, so it is safe for unsynchronized concurrent use.
package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jobscout/jobscout/internal/jobs"
)

// Component caps. The behavioral component is omitted entirely for users
// without feedback history, which caps cold-start totals at 92.
const (
	maxSkills      = 36
	maxExperience  = 20
	maxLocation    = 12
	maxSalary      = 15
	maxPreferences = 9
	maxBehavioral  = 8
)

// DefaultThreshold is the pass mark used when no threshold is configured.
const DefaultThreshold = 70

// borderlineMargin is how far below the threshold a score still counts as
// borderline.
const borderlineMargin = 10

// Scorer evaluates jobs against a fixed pass threshold.
type Scorer struct {
	threshold float64
}

// New returns a Scorer with the given pass threshold. Non-positive values
// fall back to DefaultThreshold.
func New(threshold float64) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{threshold: threshold}
}

// Score computes the match result for a single job.
func (s *Scorer) Score(job *jobs.DiscoveredJob, profile *jobs.Profile, prefs *jobs.Preferences) *jobs.MatchResult {
	if job == nil {
		job = &jobs.DiscoveredJob{}
	}

	breakdown := jobs.MatchBreakdown{
		Skills:      skillsScore(job, profile, prefs),
		Experience:  experienceScore(job, profile),
		Location:    locationScore(job, profile, prefs),
		Salary:      salaryScore(job, profile, prefs),
		Preferences: preferencesScore(job, prefs),
	}

	total := breakdown.Skills + breakdown.Experience + breakdown.Location +
		breakdown.Salary + breakdown.Preferences

	if prefs != nil && prefs.FeedbackStats.Total() > 0 {
		behavioral := behavioralScore(prefs)
		breakdown.Behavioral = &behavioral
		total += behavioral
	}

	total = math.Round(clamp(total, 0, 100)*10) / 10

	passes := total >= s.threshold
	return &jobs.MatchResult{
		TotalScore:      total,
		Breakdown:       breakdown,
		MatchReasons:    reasons(breakdown),
		PassesThreshold: passes,
		IsBorderline:    !passes && total >= s.threshold-borderlineMargin,
	}
}

// skillsScore measures how much of the desired skill set the job mentions.
// With no desired skills on file the component scores half credit.
func skillsScore(job *jobs.DiscoveredJob, profile *jobs.Profile, prefs *jobs.Preferences) float64 {
	desired := make([]string, 0)
	if profile != nil {
		desired = append(desired, profile.CVAnalysis.Skills...)
	}
	if prefs != nil {
		desired = append(desired, prefs.SkillNames()...)
	}
	desired = dedupLower(desired)
	if len(desired) == 0 {
		return maxSkills / 2
	}

	haystack := strings.ToLower(job.Title + " " + job.Description + " " + strings.Join(job.Skills, " "))
	matched := 0
	for _, skill := range desired {
		if strings.Contains(haystack, skill) {
			matched++
		}
	}

	return round1(maxSkills * float64(matched) / float64(len(desired)))
}

// experienceRanks orders the closed experience levels for distance checks.
var experienceRanks = map[jobs.ExperienceLevel]int{
	jobs.ExperienceEntry:     0,
	jobs.ExperienceMid:       1,
	jobs.ExperienceSenior:    2,
	jobs.ExperienceExecutive: 3,
}

func experienceScore(job *jobs.DiscoveredJob, profile *jobs.Profile) float64 {
	if job.ExperienceLevel == "" {
		return maxExperience / 2
	}
	jobRank, ok := experienceRanks[job.ExperienceLevel]
	if !ok {
		return maxExperience / 2
	}

	userRank := profileRank(profile)
	switch diff := abs(jobRank - userRank); diff {
	case 0:
		return maxExperience
	case 1:
		return 12
	case 2:
		return 5
	default:
		return 0
	}
}

// profileRank derives the user's seniority rank from the CV analysis,
// preferring the explicit seniority label over years of experience.
func profileRank(profile *jobs.Profile) int {
	if profile == nil {
		return 1
	}
	switch strings.ToLower(strings.TrimSpace(profile.CVAnalysis.Seniority)) {
	case "entry", "junior":
		return 0
	case "mid", "middle", "intermediate":
		return 1
	case "senior", "lead", "staff", "principal":
		return 2
	case "executive", "director":
		return 3
	}

	years := profile.CVAnalysis.YearsOfExperience
	switch {
	case years >= 12:
		return 3
	case years >= 6:
		return 2
	case years >= 3:
		return 1
	default:
		return 0
	}
}

func locationScore(job *jobs.DiscoveredJob, profile *jobs.Profile, prefs *jobs.Preferences) float64 {
	wanted := make([]string, 0)
	if prefs != nil {
		wanted = append(wanted, prefs.Locations...)
	}
	if profile != nil {
		wanted = append(wanted, profile.PreferredLocations...)
		if profile.City != "" {
			wanted = append(wanted, profile.City)
		}
	}

	if job.Location == "" {
		if job.WorkType == jobs.WorkTypeRemote {
			return maxLocation
		}
		return maxLocation / 2
	}

	jobLoc := strings.ToLower(job.Location)
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if strings.Contains(jobLoc, w) || strings.Contains(w, jobLoc) {
			return maxLocation
		}
	}

	if job.WorkType == jobs.WorkTypeRemote {
		return 10
	}
	if len(wanted) == 0 {
		return maxLocation / 2
	}
	return 3
}

// salaryScore compares the job's advertised range against the expected
// salary, raised by the implicit salary adjustment knob.
func salaryScore(job *jobs.DiscoveredJob, profile *jobs.Profile, prefs *jobs.Preferences) float64 {
	var expected *int
	if prefs != nil && prefs.SalaryMinimum != nil {
		expected = prefs.SalaryMinimum
	} else if profile != nil {
		expected = profile.SalaryExpectation
	}

	offered := job.SalaryMax
	if offered == nil {
		offered = job.SalaryMin
	}

	if expected == nil || offered == nil {
		// Unknown on either side: neutral credit.
		return 8
	}

	want := float64(*expected)
	if prefs != nil {
		want *= 1 + prefs.SalaryAdjustment()/100
	}

	got := float64(*offered)
	switch {
	case got >= want:
		return maxSalary
	case got >= 0.9*want:
		return 10
	case got >= 0.75*want:
		return 6
	default:
		return 2
	}
}

func preferencesScore(job *jobs.DiscoveredJob, prefs *jobs.Preferences) float64 {
	if prefs == nil {
		return maxPreferences / 3
	}

	// Avoided companies and keywords zero out the whole component.
	if containsFold(prefs.AvoidCompanies, job.CompanyName) {
		return 0
	}
	haystack := strings.ToLower(job.Title + " " + job.Description)
	for _, kw := range prefs.AvoidKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return 0
		}
	}

	var score float64

	switch {
	case job.WorkType == "" || len(prefs.RemotePolicies) == 0:
		score += 2
	case containsFold(prefs.RemotePolicies, string(job.WorkType)):
		score += 4
	}

	switch {
	case len(prefs.CompanySizes) == 0 || job.CompanySize == "":
		score++
	case containsFold(prefs.CompanySizes, job.CompanySize):
		score += 2
	}

	switch {
	case len(prefs.Benefits) == 0 || len(job.Benefits) == 0:
		score++
	case anyOverlapFold(prefs.Benefits, job.Benefits):
		score += 3
	}

	return clamp(score, 0, maxPreferences)
}

// behavioralScore rewards users whose feedback history skews positive. Only
// called when history exists.
func behavioralScore(prefs *jobs.Preferences) float64 {
	stats := prefs.FeedbackStats
	total := stats.Total()
	if total == 0 {
		return 0
	}
	return round1(maxBehavioral * float64(stats.Likes) / float64(total))
}

// reasons renders the top contributing components as short human-readable
// strings, ordered by contribution.
func reasons(b jobs.MatchBreakdown) []string {
	type entry struct {
		label string
		value float64
		max   float64
	}
	entries := []entry{
		{"skills", b.Skills, maxSkills},
		{"experience", b.Experience, maxExperience},
		{"location", b.Location, maxLocation},
		{"salary", b.Salary, maxSalary},
		{"preferences", b.Preferences, maxPreferences},
	}
	if b.Behavioral != nil {
		entries = append(entries, entry{"behavioral", *b.Behavioral, maxBehavioral})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri := entries[i].value / entries[i].max
		rj := entries[j].value / entries[j].max
		if ri != rj {
			return ri > rj
		}
		return entries[i].label < entries[j].label
	})

	result := make([]string, 0, 3)
	for _, e := range entries {
		if len(result) == 3 {
			break
		}
		if e.value <= 0 {
			continue
		}
		result = append(result, fmt.Sprintf("%s match: %.0f/%.0f", e.label, e.value, e.max))
	}
	return result
}

func dedupLower(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

func anyOverlapFold(a, b []string) bool {
	for _, item := range b {
		if containsFold(a, item) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
