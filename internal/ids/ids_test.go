package ids

import (
	"regexp"
	"testing"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
)

var claimIDPattern = regexp.MustCompile(`^[A-Z]+-\d{4}-\d{3}$`)

func TestGenerateClaim(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		existing []string
		want     string
	}{
		{"first of year", "TECH", nil, "TECH-2026-001"},
		{"after max", "TECH", []string{"TECH-2026-001", "TECH-2026-007", "TECH-2026-003"}, "TECH-2026-008"},
		{"other domain ignored", "TECH", []string{"ECON-2026-041"}, "TECH-2026-001"},
		{"other year ignored", "TECH", []string{"TECH-2025-019"}, "TECH-2026-001"},
		{"junk suffix ignored", "TECH", []string{"TECH-2026-abc", "TECH-2026-002"}, "TECH-2026-003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(model.KindClaim, tt.domain, 2026, tt.existing)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			if !claimIDPattern.MatchString(got) {
				t.Errorf("ID %s does not match claim pattern", got)
			}
		})
	}
}

func TestGenerateFixedPrefixes(t *testing.T) {
	got, err := Generate(model.KindChain, "", 2026, []string{"CHAIN-2026-002"})
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if got != "CHAIN-2026-003" {
		t.Errorf("Expected CHAIN-2026-003, got %s", got)
	}

	got, err = Generate(model.KindPrediction, "IGNORED", 2026, nil)
	if err != nil {
		t.Fatalf("prediction: %v", err)
	}
	if got != "PRED-2026-001" {
		t.Errorf("Expected PRED-2026-001, got %s", got)
	}

	got, err = Generate(model.KindContradiction, "", 2026, []string{"CONTRA-2026-009", "CONTRA-2025-012"})
	if err != nil {
		t.Fatalf("contradiction: %v", err)
	}
	if got != "CONTRA-2026-010" {
		t.Errorf("Expected CONTRA-2026-010, got %s", got)
	}
}

func TestGenerateInvalidDomain(t *testing.T) {
	for _, d := range []string{"", "tech", "SPACE"} {
		_, err := Generate(model.KindClaim, d, 2026, nil)
		var ide *errors.InvalidDomainError
		if !errors.As(err, &ide) {
			t.Errorf("domain %q: expected InvalidDomainError, got %v", d, err)
		}
	}
}

func TestGenerateSources(t *testing.T) {
	_, err := Generate(model.KindSource, "", 2026, nil)
	if !errors.Is(err, errors.ErrUnknownTable) {
		t.Errorf("Expected ErrUnknownTable, got %v", err)
	}
}

func TestNextExhausted(t *testing.T) {
	_, err := Next([]string{"GEO-2026-999"}, "GEO-2026-")
	if !errors.Is(err, errors.ErrIDSpaceExhausted) {
		t.Errorf("Expected ErrIDSpaceExhausted, got %v", err)
	}
}

func TestSourceSlug(t *testing.T) {
	tests := []struct {
		title    string
		year     int
		existing []string
		want     string
	}{
		{"Training Compute Trends", 2024, nil, "training-compute-trends-2024"},
		{"  AI & Jobs: A Survey!  ", 2023, nil, "ai-jobs-a-survey-2023"},
		{"Training Compute Trends", 2024, []string{"training-compute-trends-2024"}, "training-compute-trends-2024-2"},
		{"!!!", 0, nil, "source"},
	}
	for _, tt := range tests {
		if got := SourceSlug(tt.title, tt.year, tt.existing); got != tt.want {
			t.Errorf("SourceSlug(%q, %d) = %s, want %s", tt.title, tt.year, got, tt.want)
		}
	}
}
