package jobs

import (
	"encoding/json"
	"fmt"
	"os"
)

// PostingList wraps a slice of postings with the reporting helpers the CLI
// uses.
type PostingList []*JobPosting

func (l PostingList) Len() int {
	return len(l)
}

// ReportByCompany groups the postings per company for a quick overview.
func (l PostingList) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range l {
		entry := map[string]string{
			"title":    posting.Title,
			"url":      posting.SourceURL,
			"location": posting.Location,
			"score":    fmt.Sprintf("%.1f", posting.MatchScore),
		}
		if posting.SalaryMin != nil || posting.SalaryMax != nil {
			entry["salary"] = fmt.Sprintf("%s-%s %s",
				formatSalary(posting.SalaryMin), formatSalary(posting.SalaryMax), posting.Currency)
		}
		report[posting.CompanyName] = append(report[posting.CompanyName], entry)
	}
	return report
}

// DumpToTmpFile writes the postings as indented JSON to a temp file and
// returns its name.
func (l PostingList) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobscout_jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func formatSalary(v *int) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *v)
}
