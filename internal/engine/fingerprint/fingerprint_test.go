package fingerprint

import (
	"regexp"
	"testing"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestHashShape(t *testing.T) {
	cases := []struct {
		title   string
		company string
	}{
		{"Go Developer", "Acme"},
		{"", ""},
		{"Développeur Sénior", "Société Générale"},
		{"日本語タイトル", "会社"},
	}
	for _, c := range cases {
		got := Hash(c.title, c.company)
		if !hexRe.MatchString(got) {
			t.Errorf("Hash(%q, %q) = %q, want 32 lowercase hex chars", c.title, c.company, got)
		}
	}
}

func TestHashNormalizationInvariance(t *testing.T) {
	base := Hash("Go Developer", "Acme Corp")

	variants := []struct {
		title   string
		company string
	}{
		{"  Go Developer  ", "Acme Corp"},
		{"go developer", "acme corp"},
		{"GO   DEVELOPER", "Acme\tCorp"},
		{"Go\nDeveloper", " ACME CORP "},
	}
	for _, v := range variants {
		if got := Hash(v.title, v.company); got != base {
			t.Errorf("Hash(%q, %q) = %q, want %q", v.title, v.company, got, base)
		}
	}
}

func TestHashDistinctInputs(t *testing.T) {
	base := Hash("Go Developer", "Acme")
	if Hash("Go Developer", "Globex") == base {
		t.Error("different companies must not collide")
	}
	if Hash("Python Developer", "Acme") == base {
		t.Error("different titles must not collide")
	}
}

func TestHashDeterministic(t *testing.T) {
	if Hash("Data Scientist", "Initech") != Hash("Data Scientist", "Initech") {
		t.Error("identical input must yield identical digests")
	}
}
