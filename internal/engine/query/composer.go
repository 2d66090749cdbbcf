// Package query builds the search query strings sent to the generative
// search collaborator. Composition is deterministic: identical profile and
// preference input always yields identical queries.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobscout/jobscout/internal/jobs"
)

const (
	// defaultTitle is used when neither preferences nor profile carry one.
	defaultTitle = "Software Engineer"

	openPositions = "open positions"

	maxSkillsPerQuery = 2
)

// Compose returns 2-3 distinct query strings for the given profile and
// preferences. It never fails: empty input still yields two queries built
// from defaults. The current year is taken from now so callers (and tests)
// control time.
func Compose(profile *jobs.Profile, prefs *jobs.Preferences, now time.Time) []string {
	titles := pickTitles(profile, prefs)
	location := pickLocation(profile, prefs)
	skills := pickSkills(profile, prefs)
	industries := pickIndustries(profile)
	year := now.Year()
	remote := remoteAllowed(prefs)

	queries := make([]string, 0, 3)

	primary := buildQuery(titles[0], location, year, skills, remote)
	queries = append(queries, primary)

	switch {
	case len(titles) > 1:
		queries = append(queries, buildQuery(titles[1], location, year, skills, remote))
	case len(skills) > maxSkillsPerQuery:
		queries = append(queries, buildQuery(titles[0], location, year, skills[maxSkillsPerQuery:maxSkillsPerQuery+1], remote))
	case len(industries) > 0:
		queries = append(queries, buildQuery(titles[0]+" "+industries[0], location, year, nil, remote))
	default:
		queries = append(queries, buildQuery("latest "+titles[0], location, year, nil, remote))
	}

	if len(titles) > 1 && len(industries) > 1 {
		queries = append(queries, buildQuery(titles[0]+" "+industries[1], location, year, nil, remote))
	}

	return queries
}

// buildQuery assembles a single query embedding the title, the location when
// known, the current year and the literal "open positions" phrase.
func buildQuery(title, location string, year int, skills []string, remote bool) string {
	parts := []string{title}
	if location != "" {
		parts = append(parts, location)
	}
	parts = append(parts, openPositions, fmt.Sprintf("%d", year))
	if len(skills) > maxSkillsPerQuery {
		skills = skills[:maxSkillsPerQuery]
	}
	parts = append(parts, skills...)
	if remote {
		parts = append(parts, "remote")
	}
	return strings.Join(parts, " ")
}

func pickTitles(profile *jobs.Profile, prefs *jobs.Preferences) []string {
	if prefs != nil && len(prefs.JobTitles) > 0 {
		return prefs.JobTitles
	}
	if profile != nil && len(profile.PreferredJobTitles) > 0 {
		return profile.PreferredJobTitles
	}
	return []string{defaultTitle}
}

func pickLocation(profile *jobs.Profile, prefs *jobs.Preferences) string {
	if prefs != nil && len(prefs.Locations) > 0 {
		return prefs.Locations[0]
	}
	if profile != nil {
		return profile.City
	}
	return ""
}

// pickSkills prefers the CV-derived skills over explicit preference skills.
func pickSkills(profile *jobs.Profile, prefs *jobs.Preferences) []string {
	if profile != nil && len(profile.CVAnalysis.Skills) > 0 {
		return profile.CVAnalysis.Skills
	}
	if prefs != nil {
		return prefs.SkillNames()
	}
	return nil
}

func pickIndustries(profile *jobs.Profile) []string {
	if profile == nil {
		return nil
	}
	if len(profile.PreferredIndustries) > 0 {
		return profile.PreferredIndustries
	}
	return profile.CVAnalysis.Industries
}

// remoteAllowed reports whether any compatible remote policy is present and
// the preferences are not restricted to onsite work only.
func remoteAllowed(prefs *jobs.Preferences) bool {
	if prefs == nil || len(prefs.RemotePolicies) == 0 {
		return false
	}
	for _, p := range prefs.RemotePolicies {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "remote", "hybrid", "flexible":
			return true
		}
	}
	// Either onsite-only or unrecognized policies: keep the query as is.
	return false
}
