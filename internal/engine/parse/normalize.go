package parse

import (
	"strings"
	"time"

	"github.com/jobscout/jobscout/internal/jobs"
)

// Fuzzy normalization of free-text enum values lives here, at the parsing
// boundary. The rest of the engine only sees the closed types from the jobs
// package; unrecognized input maps to the empty value, never to an error.

var workTypeSynonyms = map[string]jobs.WorkType{
	"remote":           jobs.WorkTypeRemote,
	"fully remote":     jobs.WorkTypeRemote,
	"100% remote":      jobs.WorkTypeRemote,
	"work from home":   jobs.WorkTypeRemote,
	"wfh":              jobs.WorkTypeRemote,
	"telecommute":      jobs.WorkTypeRemote,
	"home office":      jobs.WorkTypeRemote,
	"hybrid":           jobs.WorkTypeHybrid,
	"partially remote": jobs.WorkTypeHybrid,
	"remote friendly":  jobs.WorkTypeHybrid,
	"onsite":           jobs.WorkTypeOnsite,
	"on-site":          jobs.WorkTypeOnsite,
	"on site":          jobs.WorkTypeOnsite,
	"in office":        jobs.WorkTypeOnsite,
	"in-office":        jobs.WorkTypeOnsite,
	"office":           jobs.WorkTypeOnsite,
	"in person":        jobs.WorkTypeOnsite,
	"flexible":         jobs.WorkTypeFlexible,
	"flex":             jobs.WorkTypeFlexible,
}

// NormalizeWorkType maps free text to a closed WorkType. Unrecognized input
// returns the empty value. Already-normalized values map to themselves.
func NormalizeWorkType(raw string) jobs.WorkType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if wt, ok := workTypeSynonyms[key]; ok {
		return wt
	}
	// Fall back to substring checks for compound phrases like
	// "remote (EU timezones)" or "hybrid - 2 days onsite".
	switch {
	case strings.Contains(key, "hybrid"):
		return jobs.WorkTypeHybrid
	case strings.Contains(key, "remote") || strings.Contains(key, "work from home"):
		return jobs.WorkTypeRemote
	case strings.Contains(key, "onsite") || strings.Contains(key, "on-site") || strings.Contains(key, "office"):
		return jobs.WorkTypeOnsite
	case strings.Contains(key, "flex"):
		return jobs.WorkTypeFlexible
	}
	return ""
}

var experienceSynonyms = map[string]jobs.ExperienceLevel{
	"entry":        jobs.ExperienceEntry,
	"entry-level":  jobs.ExperienceEntry,
	"entry level":  jobs.ExperienceEntry,
	"junior":       jobs.ExperienceEntry,
	"jr":           jobs.ExperienceEntry,
	"graduate":     jobs.ExperienceEntry,
	"intern":       jobs.ExperienceEntry,
	"mid":          jobs.ExperienceMid,
	"middle":       jobs.ExperienceMid,
	"mid-level":    jobs.ExperienceMid,
	"mid level":    jobs.ExperienceMid,
	"intermediate": jobs.ExperienceMid,
	"associate":    jobs.ExperienceMid,
	"senior":       jobs.ExperienceSenior,
	"sr":           jobs.ExperienceSenior,
	"lead":         jobs.ExperienceSenior,
	"staff":        jobs.ExperienceSenior,
	"principal":    jobs.ExperienceSenior,
	"expert":       jobs.ExperienceSenior,
	"executive":    jobs.ExperienceExecutive,
	"director":     jobs.ExperienceExecutive,
	"vp":           jobs.ExperienceExecutive,
	"c-level":      jobs.ExperienceExecutive,
	"chief":        jobs.ExperienceExecutive,
}

// NormalizeExperienceLevel maps free text to a closed ExperienceLevel.
// Unrecognized input returns the empty value.
func NormalizeExperienceLevel(raw string) jobs.ExperienceLevel {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if lvl, ok := experienceSynonyms[key]; ok {
		return lvl
	}
	switch {
	case strings.Contains(key, "senior"), strings.Contains(key, "lead"),
		strings.Contains(key, "staff"), strings.Contains(key, "principal"):
		return jobs.ExperienceSenior
	case strings.Contains(key, "junior"), strings.Contains(key, "entry"),
		strings.Contains(key, "graduate"):
		return jobs.ExperienceEntry
	case strings.Contains(key, "mid"), strings.Contains(key, "intermediate"):
		return jobs.ExperienceMid
	case strings.Contains(key, "exec"), strings.Contains(key, "director"),
		strings.Contains(key, "head of"):
		return jobs.ExperienceExecutive
	}
	return ""
}

// postedDateLayouts are tried in order when normalizing posted_date values.
var postedDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// NormalizePostedDate reduces a raw date string to a plain calendar date
// (YYYY-MM-DD). Unparsable input returns the empty value.
func NormalizePostedDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range postedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// knownPlatforms maps source URL host fragments to platform names.
var knownPlatforms = map[string]string{
	"linkedin.":           "linkedin",
	"indeed.":             "indeed",
	"glassdoor.":          "glassdoor",
	"welcometothejungle.": "welcometothejungle",
	"hh.ru":               "headhunter",
	"monster.":            "monster",
	"ziprecruiter.":       "ziprecruiter",
	"dice.":               "dice",
	"greenhouse.":         "greenhouse",
	"lever.":              "lever",
	"wellfound.":          "wellfound",
	"stackoverflow.":      "stackoverflow",
	"remoteok.":           "remoteok",
	"weworkremotely.":     "weworkremotely",
}

// inferPlatform guesses the source platform from a URL host. Unknown hosts
// yield the empty value.
func inferPlatform(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	for fragment, platform := range knownPlatforms {
		if strings.Contains(host, fragment) {
			return platform
		}
	}
	return ""
}
