package score

import (
	"fmt"

	"github.com/lhl/realitycheck/internal/model"
)

// Epsilon absorbs float noise when comparing a chain credence to its
// weakest claim
const Epsilon = 1e-9

// ChainScore is the transparent aggregation of a chain's claim credences
type ChainScore struct {
	Method      model.ScoringMethod `json:"method"`
	Credence    *float64            `json:"credence,omitempty"` // nil when no referenced claim resolves
	Min         float64             `json:"min"`
	Max         float64             `json:"max"`
	WeakestLink string              `json:"weakest_link,omitempty"`
	Resolved    int                 `json:"resolved"`          // Referenced claims that exist
	Missing     []string            `json:"missing,omitempty"` // Referenced claims that do not
	Formula     string              `json:"formula"`
}

// Scorer aggregates chain credence. A chain is only as strong as its
// weakest link.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate scores a chain against the claims it references. Missing
// claims are reported, not counted.
func (s *Scorer) Calculate(chain *model.Chain, claims map[string]*model.Claim) ChainScore {
	method := chain.ScoringMethod
	if method == "" {
		method = model.ScoringMin
	}
	result := ChainScore{Method: method}

	first := true
	for _, id := range chain.ClaimIDs {
		c, ok := claims[id]
		if !ok {
			result.Missing = append(result.Missing, id)
			continue
		}
		if c.Credence == nil {
			// Unscored claims are never stored; treat a legacy one as missing
			result.Missing = append(result.Missing, id)
			continue
		}
		credence := *c.Credence
		result.Resolved++
		// On equal credence the claim with weaker evidence is the weakest link
		if first || credence < result.Min ||
			(credence == result.Min && claims[result.WeakestLink].EvidenceLevel.Stronger(c.EvidenceLevel)) {
			result.Min = credence
			result.WeakestLink = id
		}
		if first || credence > result.Max {
			result.Max = credence
		}
		first = false
	}

	switch method {
	case model.ScoringRange:
		result.Formula = fmt.Sprintf("range[min=%.2f, max=%.2f]; credence = min", result.Min, result.Max)
	case model.ScoringCustom:
		result.Formula = "custom; credence as set, bounded by min"
		if chain.Credence != nil {
			v := *chain.Credence
			result.Credence = &v
			return result
		}
	default:
		result.Formula = "min(claim credences)"
	}

	if result.Resolved > 0 {
		v := result.Min
		result.Credence = &v
	}
	return result
}

// Exceeds reports whether credence is above the weakest resolved claim
func (cs ChainScore) Exceeds(credence float64) bool {
	return cs.Resolved > 0 && credence > cs.Min+Epsilon
}

// Index builds an ID lookup over claims
func Index(claims []model.Claim) map[string]*model.Claim {
	m := make(map[string]*model.Claim, len(claims))
	for i := range claims {
		m[claims[i].ID] = &claims[i]
	}
	return m
}
