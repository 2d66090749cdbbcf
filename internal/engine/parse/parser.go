// Package parse converts raw generative-collaborator text into validated job
// candidates. It never fails: malformed input degrades to fewer (or zero)
// candidates, and a candidate failing validation drops only itself.
package parse

import (
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jobscout/jobscout/internal/engine/fingerprint"
	"github.com/jobscout/jobscout/internal/jobs"
)

// maxDescriptionLen is the hard cap applied to candidate descriptions.
const maxDescriptionLen = 500

// candidate is the loose shape decoded from a single AI-produced map before
// validation. Weak typing lets numeric strings and floats land here.
type candidate struct {
	Title           string   `mapstructure:"title"`
	CompanyName     string   `mapstructure:"company_name"`
	SourceURL       string   `mapstructure:"source_url"`
	Description     string   `mapstructure:"description"`
	Location        string   `mapstructure:"location"`
	WorkType        string   `mapstructure:"work_type"`
	ExperienceLevel string   `mapstructure:"experience_level"`
	SalaryMin       *float64 `mapstructure:"salary_min"`
	SalaryMax       *float64 `mapstructure:"salary_max"`
	Currency        string   `mapstructure:"currency"`
	Skills          []string `mapstructure:"skills"`
	Benefits        []string `mapstructure:"benefits"`
	CompanySize     string   `mapstructure:"company_size"`
	SourcePlatform  string   `mapstructure:"source_platform"`
	PostedDate      string   `mapstructure:"posted_date"`
}

// Jobs parses raw collaborator text into an ordered list of validated
// discovered jobs. Output order matches input order. Unparsable input yields
// an empty slice, never an error.
func Jobs(raw string) []jobs.DiscoveredJob {
	items, ok := extractCandidates(raw)
	if !ok {
		return []jobs.DiscoveredJob{}
	}

	result := make([]jobs.DiscoveredJob, 0, len(items))
	for _, item := range items {
		job, ok := buildJob(item)
		if !ok {
			continue
		}
		result = append(result, job)
	}
	return result
}

// buildJob validates and normalizes a single raw candidate. A false return
// drops only this candidate.
func buildJob(item any) (jobs.DiscoveredJob, bool) {
	var c candidate
	cfg := &mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return jobs.DiscoveredJob{}, false
	}
	if err := decoder.Decode(item); err != nil {
		return jobs.DiscoveredJob{}, false
	}

	title := strings.TrimSpace(c.Title)
	company := strings.TrimSpace(c.CompanyName)
	sourceURL := strings.TrimSpace(c.SourceURL)
	if title == "" || company == "" {
		return jobs.DiscoveredJob{}, false
	}

	parsed, err := url.Parse(sourceURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return jobs.DiscoveredJob{}, false
	}

	job := jobs.DiscoveredJob{
		Title:           title,
		CompanyName:     company,
		SourceURL:       sourceURL,
		Description:     truncate(c.Description, maxDescriptionLen),
		Location:        strings.TrimSpace(c.Location),
		WorkType:        NormalizeWorkType(c.WorkType),
		ExperienceLevel: NormalizeExperienceLevel(c.ExperienceLevel),
		SalaryMin:       positiveSalary(c.SalaryMin),
		SalaryMax:       positiveSalary(c.SalaryMax),
		Currency:        strings.TrimSpace(c.Currency),
		Skills:          trimAll(c.Skills),
		Benefits:        trimAll(c.Benefits),
		CompanySize:     strings.TrimSpace(c.CompanySize),
		SourcePlatform:  strings.TrimSpace(c.SourcePlatform),
		PostedDate:      NormalizePostedDate(c.PostedDate),
	}

	if job.SourcePlatform == "" {
		job.SourcePlatform = inferPlatform(parsed.Host)
	}

	// Any hash the collaborator supplied is untrusted; recompute it.
	job.ContentHash = fingerprint.Hash(job.Title, job.CompanyName)

	return job, true
}

// positiveSalary nulls out negative values individually instead of rejecting
// the whole candidate.
func positiveSalary(v *float64) *int {
	if v == nil || *v < 0 {
		return nil
	}
	n := int(*v)
	return &n
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
