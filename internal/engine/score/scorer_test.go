package score

import (
	"reflect"
	"testing"

	"github.com/jobscout/jobscout/internal/jobs"
)

func intPtr(v int) *int { return &v }

func sampleProfile() *jobs.Profile {
	return &jobs.Profile{
		PreferredLocations: []string{"Berlin"},
		SalaryExpectation:  intPtr(80000),
		CVAnalysis: jobs.CVAnalysis{
			Skills:            []string{"Go", "Postgres", "Kubernetes"},
			YearsOfExperience: 7,
		},
	}
}

func sampleJob() *jobs.DiscoveredJob {
	return &jobs.DiscoveredJob{
		Title:           "Senior Go Developer",
		CompanyName:     "Acme",
		SourceURL:       "https://acme.dev/jobs/1",
		Description:     "Building backend services in Go with Postgres and Kubernetes.",
		Location:        "Berlin, Germany",
		WorkType:        jobs.WorkTypeRemote,
		ExperienceLevel: jobs.ExperienceSenior,
		SalaryMax:       intPtr(95000),
	}
}

func TestScoreBounds(t *testing.T) {
	s := New(DefaultThreshold)

	inputs := []struct {
		job     *jobs.DiscoveredJob
		profile *jobs.Profile
		prefs   *jobs.Preferences
	}{
		{nil, nil, nil},
		{&jobs.DiscoveredJob{}, nil, nil},
		{sampleJob(), sampleProfile(), nil},
		{sampleJob(), sampleProfile(), &jobs.Preferences{
			AvoidCompanies: []string{"Acme"},
			AvoidKeywords:  []string{"go"},
		}},
	}
	for i, in := range inputs {
		result := s.Score(in.job, in.profile, in.prefs)
		if result.TotalScore < 0 || result.TotalScore > 100 {
			t.Errorf("case %d: total %.1f outside [0,100]", i, result.TotalScore)
		}
		if result.PassesThreshold && result.IsBorderline {
			t.Errorf("case %d: passesThreshold and isBorderline are both true", i)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := New(DefaultThreshold)
	job, profile := sampleJob(), sampleProfile()
	prefs := &jobs.Preferences{RemotePolicies: []string{"remote"}}

	first := s.Score(job, profile, prefs)
	second := s.Score(job, profile, prefs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical input produced different results:\n%+v\n%+v", first, second)
	}
}

func TestScoreGoodMatchPasses(t *testing.T) {
	s := New(DefaultThreshold)
	result := s.Score(sampleJob(), sampleProfile(), nil)

	if !result.PassesThreshold {
		t.Errorf("strong match scored %.1f, expected pass above %d", result.TotalScore, DefaultThreshold)
	}
	if result.Breakdown.Skills != 36 {
		t.Errorf("all skills present, want full 36, got %.1f", result.Breakdown.Skills)
	}
	if result.Breakdown.Experience != 20 {
		t.Errorf("matching seniority, want full 20, got %.1f", result.Breakdown.Experience)
	}
	if result.Breakdown.Location != 12 {
		t.Errorf("matching location, want full 12, got %.1f", result.Breakdown.Location)
	}
	if result.Breakdown.Salary != 15 {
		t.Errorf("offer above expectation, want full 15, got %.1f", result.Breakdown.Salary)
	}
	if len(result.MatchReasons) == 0 {
		t.Error("expected human-readable match reasons")
	}
}

func TestScoreColdStartOmitsBehavioral(t *testing.T) {
	s := New(DefaultThreshold)

	result := s.Score(sampleJob(), sampleProfile(), &jobs.Preferences{})
	if result.Breakdown.Behavioral != nil {
		t.Errorf("no feedback history, behavioral should be omitted, got %v", *result.Breakdown.Behavioral)
	}

	withHistory := &jobs.Preferences{
		FeedbackStats: jobs.FeedbackStats{Likes: 3, Dislikes: 1},
	}
	result = s.Score(sampleJob(), sampleProfile(), withHistory)
	if result.Breakdown.Behavioral == nil {
		t.Fatal("feedback history present, behavioral should be scored")
	}
	if *result.Breakdown.Behavioral <= 0 || *result.Breakdown.Behavioral > 8 {
		t.Errorf("behavioral %.1f outside (0,8]", *result.Breakdown.Behavioral)
	}
}

func TestScoreBorderlineWindow(t *testing.T) {
	s := New(DefaultThreshold)

	// A mediocre job: wrong level, far location, low salary.
	job := &jobs.DiscoveredJob{
		Title:           "Go Developer",
		CompanyName:     "Acme",
		SourceURL:       "https://acme.dev/jobs/2",
		Description:     "Go and Postgres and Kubernetes",
		Location:        "Sydney",
		ExperienceLevel: jobs.ExperienceEntry,
		SalaryMax:       intPtr(50000),
	}
	result := s.Score(job, sampleProfile(), nil)
	if result.PassesThreshold {
		t.Fatalf("weak match scored %.1f, should not pass", result.TotalScore)
	}
	wantBorderline := result.TotalScore >= DefaultThreshold-10
	if result.IsBorderline != wantBorderline {
		t.Errorf("isBorderline = %v for score %.1f with threshold %d",
			result.IsBorderline, result.TotalScore, DefaultThreshold)
	}
}

func TestScoreSalaryAdjustmentRaisesTheBar(t *testing.T) {
	s := New(DefaultThreshold)
	job := sampleJob()
	job.SalaryMax = intPtr(82000) // just above the raw expectation

	base := s.Score(job, sampleProfile(), &jobs.Preferences{})
	if base.Breakdown.Salary != 15 {
		t.Fatalf("offer above expectation should score 15, got %.1f", base.Breakdown.Salary)
	}

	adjusted := s.Score(job, sampleProfile(), &jobs.Preferences{
		ImplicitPreferences: map[string]float64{jobs.ImplicitPreferenceSalaryAdjustment: 30},
	})
	if adjusted.Breakdown.Salary >= base.Breakdown.Salary {
		t.Errorf("salary adjustment should lower the component: base %.1f, adjusted %.1f",
			base.Breakdown.Salary, adjusted.Breakdown.Salary)
	}
}

func TestScoreAvoidedCompanyZeroesPreferences(t *testing.T) {
	s := New(DefaultThreshold)
	prefs := &jobs.Preferences{AvoidCompanies: []string{"acme"}}

	result := s.Score(sampleJob(), sampleProfile(), prefs)
	if result.Breakdown.Preferences != 0 {
		t.Errorf("avoided company should zero the preferences component, got %.1f",
			result.Breakdown.Preferences)
	}
}
