package jobs

import (
	"encoding/json"
	"os"
	"testing"
)

func TestReportByCompanyGroupsPostings(t *testing.T) {
	min := 90000
	max := 120000
	postings := PostingList{
		{
			DiscoveredJob: DiscoveredJob{
				Title:       "Go Developer",
				CompanyName: "Acme",
				SourceURL:   "https://acme.io/jobs/1",
				Location:    "Berlin",
				SalaryMin:   &min,
				SalaryMax:   &max,
				Currency:    "EUR",
			},
			MatchScore: 84.5,
		},
		{
			DiscoveredJob: DiscoveredJob{
				Title:       "Platform Engineer",
				CompanyName: "Acme",
				SourceURL:   "https://acme.io/jobs/2",
			},
			MatchScore: 71,
		},
		{
			DiscoveredJob: DiscoveredJob{
				Title:       "Data Engineer",
				CompanyName: "Globex",
				SourceURL:   "https://globex.com/jobs/9",
			},
			MatchScore: 66,
		},
	}

	report := postings.ReportByCompany()

	entries, ok := report["Acme"]
	if !ok {
		t.Fatalf("expected company key in report")
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for Acme, got %d", len(entries))
	}

	entry := entries[0]
	if entry["title"] != "Go Developer" {
		t.Fatalf("unexpected title: %q", entry["title"])
	}
	if entry["score"] != "84.5" {
		t.Fatalf("expected score 84.5, got %q", entry["score"])
	}
	if entry["salary"] != "90000-120000 EUR" {
		t.Fatalf("unexpected salary: %q", entry["salary"])
	}

	if _, ok := entries[1]["salary"]; ok {
		t.Fatalf("did not expect salary without any salary bound")
	}

	if len(report["Globex"]) != 1 {
		t.Fatalf("expected 1 entry for Globex, got %d", len(report["Globex"]))
	}
}

func TestReportByCompanyFormatsPartialSalary(t *testing.T) {
	min := 50000
	postings := PostingList{{
		DiscoveredJob: DiscoveredJob{
			Title:       "Backend Engineer",
			CompanyName: "Initech",
			SourceURL:   "https://initech.dev/jobs/3",
			SalaryMin:   &min,
			Currency:    "USD",
		},
	}}

	entry := postings.ReportByCompany()["Initech"][0]
	if entry["salary"] != "50000-? USD" {
		t.Fatalf("unexpected salary: %q", entry["salary"])
	}
}

func TestDumpToTmpFileRoundTrips(t *testing.T) {
	postings := PostingList{{
		ID: "p1",
		DiscoveredJob: DiscoveredJob{
			Title:       "Go Developer",
			CompanyName: "Acme",
			SourceURL:   "https://acme.io/jobs/1",
		},
		MatchScore: 80,
	}}

	filename, err := postings.DumpToTmpFile()
	if err != nil {
		t.Fatalf("DumpToTmpFile: %v", err)
	}
	defer os.Remove(filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}

	var decoded PostingList
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding dump: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Title != "Go Developer" {
		t.Fatalf("unexpected dump contents: %+v", decoded)
	}
}
