package score

import (
	"testing"

	"github.com/lhl/realitycheck/internal/model"
)

func claimSet() map[string]*model.Claim {
	return Index([]model.Claim{
		{ID: "TECH-2026-001", Credence: model.Ptr(0.8)},
		{ID: "TECH-2026-002", Credence: model.Ptr(0.45)},
		{ID: "ECON-2026-001", Credence: model.Ptr(0.6)},
	})
}

func TestScorer_Calculate_Min(t *testing.T) {
	scorer := NewScorer()
	chain := &model.Chain{
		ID:       "CHAIN-2026-001",
		ClaimIDs: []string{"TECH-2026-001", "TECH-2026-002", "ECON-2026-001"},
	}

	result := scorer.Calculate(chain, claimSet())

	if result.Method != model.ScoringMin {
		t.Errorf("Expected default method MIN, got %s", result.Method)
	}
	if result.Credence == nil || *result.Credence != 0.45 {
		t.Fatalf("Expected credence 0.45, got %v", result.Credence)
	}
	if result.WeakestLink != "TECH-2026-002" {
		t.Errorf("Expected weakest link TECH-2026-002, got %s", result.WeakestLink)
	}
	if result.Max != 0.8 {
		t.Errorf("Expected max 0.8, got %f", result.Max)
	}
	if result.Resolved != 3 {
		t.Errorf("Expected 3 resolved claims, got %d", result.Resolved)
	}
}

func TestScorer_Calculate_MissingClaims(t *testing.T) {
	scorer := NewScorer()
	chain := &model.Chain{ClaimIDs: []string{"GOV-2026-009", "ECON-2026-001"}}

	result := scorer.Calculate(chain, claimSet())

	if len(result.Missing) != 1 || result.Missing[0] != "GOV-2026-009" {
		t.Errorf("Expected missing [GOV-2026-009], got %v", result.Missing)
	}
	if result.Credence == nil || *result.Credence != 0.6 {
		t.Errorf("Expected credence 0.6, got %v", result.Credence)
	}

	none := scorer.Calculate(&model.Chain{ClaimIDs: []string{"GOV-2026-009"}}, claimSet())
	if none.Credence != nil {
		t.Errorf("Expected nil credence with no resolved claims, got %v", *none.Credence)
	}
	if none.Exceeds(1.0) {
		t.Error("Exceeds must be false when nothing resolved")
	}
}

func TestScorer_Calculate_Custom(t *testing.T) {
	scorer := NewScorer()
	set := 0.3
	chain := &model.Chain{
		ClaimIDs:      []string{"TECH-2026-001", "ECON-2026-001"},
		ScoringMethod: model.ScoringCustom,
		Credence:      &set,
	}

	result := scorer.Calculate(chain, claimSet())
	if result.Credence == nil || *result.Credence != 0.3 {
		t.Errorf("Expected custom credence 0.3 kept, got %v", result.Credence)
	}
	if result.Min != 0.6 {
		t.Errorf("Expected min 0.6, got %f", result.Min)
	}
}

func TestChainScore_Exceeds(t *testing.T) {
	result := NewScorer().Calculate(&model.Chain{ClaimIDs: []string{"TECH-2026-002"}}, claimSet())

	tests := []struct {
		credence float64
		want     bool
	}{
		{0.45, false},
		{0.45 + 1e-12, false},
		{0.2, false},
		{0.46, true},
	}
	for _, tt := range tests {
		if got := result.Exceeds(tt.credence); got != tt.want {
			t.Errorf("Exceeds(%v) = %v, want %v", tt.credence, got, tt.want)
		}
	}
}

func TestScorer_Calculate_TieGoesToWeakerEvidence(t *testing.T) {
	claims := Index([]model.Claim{
		{ID: "TECH-2026-001", Credence: model.Ptr(0.5), EvidenceLevel: model.E2},
		{ID: "TECH-2026-002", Credence: model.Ptr(0.5), EvidenceLevel: model.E5},
		{ID: "TECH-2026-003", Credence: model.Ptr(0.5), EvidenceLevel: model.E3},
	})
	chain := &model.Chain{ClaimIDs: []string{"TECH-2026-001", "TECH-2026-002", "TECH-2026-003"}}

	result := NewScorer().Calculate(chain, claims)
	if result.WeakestLink != "TECH-2026-002" {
		t.Errorf("Expected weakest link TECH-2026-002 (E5), got %s", result.WeakestLink)
	}

	// Equal evidence keeps the first claim
	claims["TECH-2026-002"].EvidenceLevel = model.E2
	claims["TECH-2026-003"].EvidenceLevel = model.E2
	result = NewScorer().Calculate(chain, claims)
	if result.WeakestLink != "TECH-2026-001" {
		t.Errorf("Expected weakest link TECH-2026-001, got %s", result.WeakestLink)
	}
}
