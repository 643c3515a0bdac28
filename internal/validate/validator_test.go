package validate

import (
	"testing"

	"github.com/lhl/realitycheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClaim() *model.Claim {
	c := &model.Claim{
		ID:            "TECH-2026-001",
		Text:          "Training compute for frontier models doubles roughly every six months.",
		Type:          model.ClaimFact,
		Domain:        model.DomainTech,
		EvidenceLevel: model.E2,
		Credence:      model.Ptr(0.8),
		SourceIDs:     []string{"epoch-2024-training"},
	}
	c.Normalize()
	return c
}

func codes(issues []model.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestValidator_Record_ValidClaim(t *testing.T) {
	issues, err := NewValidator().Record(model.KindClaim, validClaim())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidator_Record_ClaimErrors(t *testing.T) {
	tests := []struct {
		desc   string
		mutate func(c *model.Claim)
		code   string
		field  string
	}{
		{"credence above one", func(c *model.Claim) { c.Credence = model.Ptr(1.2) }, "CLAIM_CREDENCE_INVALID", "credence"},
		{"negative credence", func(c *model.Claim) { c.Credence = model.Ptr(-0.1) }, "CLAIM_CREDENCE_INVALID", "credence"},
		{"unknown type", func(c *model.Claim) { c.Type = "[Q]" }, "CLAIM_TYPE_INVALID", "type"},
		{"unknown evidence", func(c *model.Claim) { c.EvidenceLevel = "E7" }, "CLAIM_EVIDENCE_LEVEL_INVALID", "evidence_level"},
		{"empty text", func(c *model.Claim) { c.Text = "   " }, "CLAIM_TEXT_EMPTY", "text"},
		{"bad id", func(c *model.Claim) { c.ID = "TECH-26-1" }, "CLAIM_ID_FORMAT", "id"},
		{"domain mismatch", func(c *model.Claim) { c.Domain = model.DomainEcon }, "CLAIM_DOMAIN_MISMATCH", "domain"},
		{"bad chain ref", func(c *model.Claim) { c.PartOfChain = "TECH-2026-009" }, "CLAIM_PART_OF_CHAIN_FORMAT", "part_of_chain"},
		{"self support", func(c *model.Claim) { c.Supports = []string{c.ID} }, "CLAIM_SUPPORTS_SELF_REFERENCE", "supports"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := validClaim()
			tt.mutate(c)
			issues, err := NewValidator().Record(model.KindClaim, c)
			require.NoError(t, err)
			require.Contains(t, codes(issues), tt.code)
			for _, is := range issues {
				if is.Code == tt.code {
					assert.Equal(t, model.SeverityError, is.Severity)
					assert.Equal(t, tt.field, is.Field)
					assert.Equal(t, model.KindClaim, is.Kind)
				}
			}
		})
	}
}

func TestValidator_Record_DomainMismatchCarriesValue(t *testing.T) {
	c := validClaim()
	c.Domain = model.DomainEcon
	issues, err := NewValidator().Record(model.KindClaim, c)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "ECON", issues[0].Value)
	assert.Equal(t, "TECH-2026-001", issues[0].RecordID)
	assert.Contains(t, issues[0].Message, "TECH")
}

func TestValidator_Record_Source(t *testing.T) {
	rel := 1.5
	s := &model.Source{
		ID:          "epoch-2024-training",
		Title:       "Training Compute Trends",
		Type:        "PODCAST",
		Year:        model.Ptr(2024),
		Accessed:    "last week",
		Reliability: &rel,
		Domains:     []model.Domain{"TECH", "SPACE"},
	}
	s.Normalize()

	issues, err := NewValidator().Record(model.KindSource, s)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"SOURCE_TYPE_INVALID", "SOURCE_ACCESSED_FORMAT", "SOURCE_RELIABILITY_INVALID", "SOURCE_DOMAINS_INVALID"},
		codes(issues))
}

func TestValidator_Record_Chain(t *testing.T) {
	ch := &model.Chain{ID: "CHAIN-2026-001", Name: "Compute scaling"}
	ch.Normalize()

	issues, err := NewValidator().Record(model.KindChain, ch)
	require.NoError(t, err)
	assert.Contains(t, codes(issues), "CHAIN_CLAIM_IDS_EMPTY")

	ch.ClaimIDs = []string{"TECH-2026-001", "TECH-2026-001"}
	ch.WeakestLink = "TECH-2026-002"
	ch.ScoringMethod = model.ScoringCustom
	issues, err = NewValidator().Record(model.KindChain, ch)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CHAIN_CLAIM_IDS_DUPLICATE", "CHAIN_WEAKEST_LINK_INVALID", "CHAIN_CREDENCE_EMPTY"}, codes(issues))
}

func TestValidator_Record_Prediction(t *testing.T) {
	p := &model.Prediction{
		ID:         "PRED-2026-001",
		ClaimID:    "TECH-2026-002",
		Status:     model.PredConfirmed,
		DateMade:   "2026-01-10",
		TargetDate: "2025-12-31",
	}
	p.Normalize()

	issues, err := NewValidator().Record(model.KindPrediction, p)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"PREDICTION_RESOLUTION_DATE_EMPTY", "PREDICTION_TARGET_DATE_INVALID"}, codes(issues))
	assert.False(t, model.HasErrors(issues), "both findings are warnings")

	p.Status = "pending"
	issues, err = NewValidator().Record(model.KindPrediction, p)
	require.NoError(t, err)
	assert.Contains(t, codes(issues), "PREDICTION_STATUS_INVALID")
}

func TestValidator_Record_UnknownKind(t *testing.T) {
	_, err := NewValidator().Record("analyses", validClaim())
	assert.Error(t, err)
}
