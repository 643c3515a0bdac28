package validate

import (
	"fmt"
	"sort"

	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/score"
)

// Snapshot is the full registry contents, in insertion order per table
type Snapshot struct {
	Sources     []model.Source
	Claims      []model.Claim
	Chains      []model.Chain
	Predictions []model.Prediction

	Contradictions []model.Contradiction
	Definitions    []model.Definition
}

// Counts returns the number of records per table
func (s Snapshot) Counts() model.Counts {
	return model.Counts{
		Sources:     len(s.Sources),
		Claims:      len(s.Claims),
		Chains:      len(s.Chains),
		Predictions: len(s.Predictions),

		Contradictions: len(s.Contradictions),
		Definitions:    len(s.Definitions),
	}
}

// All runs the batch pass: structural and logical checks on every record,
// then the referential checks across tables
func (v *Validator) All(s Snapshot) []model.Issue {
	var issues []model.Issue
	check := func(kind model.Kind, record any) {
		found, err := v.Record(kind, record)
		if err != nil {
			issues = append(issues, model.Issue{
				Severity: model.SeverityError,
				Code:     "RECORD_UNREADABLE",
				Message:  err.Error(),
				Kind:     kind,
			})
			return
		}
		issues = append(issues, found...)
	}
	for i := range s.Sources {
		check(model.KindSource, &s.Sources[i])
	}
	for i := range s.Claims {
		check(model.KindClaim, &s.Claims[i])
	}
	for i := range s.Chains {
		check(model.KindChain, &s.Chains[i])
	}
	for i := range s.Predictions {
		check(model.KindPrediction, &s.Predictions[i])
	}
	for i := range s.Contradictions {
		check(model.KindContradiction, &s.Contradictions[i])
	}
	for i := range s.Definitions {
		check(model.KindDefinition, &s.Definitions[i])
	}
	return append(issues, v.Referential(s)...)
}

// Referential checks every cross-table reference. Its findings are a
// report; nothing here blocks a write.
func (v *Validator) Referential(s Snapshot) []model.Issue {
	r := &refCheck{
		claims:  score.Index(s.Claims),
		sources: make(map[string]*model.Source, len(s.Sources)),
		chains:  make(map[string]bool, len(s.Chains)),
	}
	for i := range s.Sources {
		r.sources[s.Sources[i].ID] = &s.Sources[i]
	}
	for _, ch := range s.Chains {
		r.chains[ch.ID] = true
	}

	for i := range s.Claims {
		r.claim(&s.Claims[i])
	}
	citing := Citations(s.Claims)
	for i := range s.Sources {
		r.source(&s.Sources[i], citing[s.Sources[i].ID])
	}
	scorer := score.NewScorer()
	for i := range s.Chains {
		r.chain(&s.Chains[i], scorer)
	}
	predicted := make(map[string]bool, len(s.Predictions))
	for i := range s.Predictions {
		predicted[s.Predictions[i].ClaimID] = true
		r.prediction(&s.Predictions[i])
	}
	for i := range s.Contradictions {
		r.contradiction(&s.Contradictions[i])
	}
	for _, c := range s.Claims {
		if c.Type == model.ClaimPrediction && !predicted[c.ID] {
			r.issue(model.SeverityWarning, "PREDICTION_MISSING", model.KindClaim, c.ID, "id", c.ID,
				"%s: [P] claim has no prediction record", c.ID)
		}
	}
	return r.issues
}

// Citations maps each source ID to the claims citing it, in claim order
func Citations(claims []model.Claim) map[string][]string {
	out := make(map[string][]string)
	for _, c := range claims {
		seen := make(map[string]bool, len(c.SourceIDs))
		for _, sid := range c.SourceIDs {
			if seen[sid] {
				continue
			}
			seen[sid] = true
			out[sid] = append(out[sid], c.ID)
		}
	}
	return out
}

// SameSet reports whether two ID lists hold the same members
func SameSet(a, b []string) bool {
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	x, y = dedupe(x), dedupe(y)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

type refCheck struct {
	claims  map[string]*model.Claim
	sources map[string]*model.Source
	chains  map[string]bool
	issues  []model.Issue
}

func (r *refCheck) issue(sev model.Severity, code string, kind model.Kind, id, field string, value any, format string, args ...any) {
	r.issues = append(r.issues, model.Issue{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Field:    field,
		Kind:     kind,
		RecordID: id,
		Value:    value,
	})
}

func (r *refCheck) claim(c *model.Claim) {
	for _, sid := range c.SourceIDs {
		if _, ok := r.sources[sid]; !ok {
			r.issue(model.SeverityError, "CLAIM_SOURCE_MISSING", model.KindClaim, c.ID, "source_ids", sid,
				"%s: references unknown source %q", c.ID, sid)
		}
	}
	for _, rel := range []string{"supports", "contradicts", "depends_on", "modified_by"} {
		for _, target := range c.Relations()[rel] {
			if _, ok := r.claims[target]; !ok {
				r.issue(model.SeverityError, "CLAIM_REL_MISSING", model.KindClaim, c.ID, rel, target,
					"%s: %s references unknown claim %q", c.ID, rel, target)
			}
		}
	}
	if c.PartOfChain != "" && !r.chains[c.PartOfChain] {
		r.issue(model.SeverityError, "CLAIM_CHAIN_MISSING", model.KindClaim, c.ID, "part_of_chain", c.PartOfChain,
			"%s: references unknown chain %q", c.ID, c.PartOfChain)
	}
}

// source compares the stored back-references with the claims that cite it.
// Mismatches are warnings; reconcile rewrites them.
func (r *refCheck) source(s *model.Source, citing []string) {
	cites := make(map[string]bool, len(citing))
	for _, id := range citing {
		cites[id] = true
	}
	listed := make(map[string]bool, len(s.ClaimIDs))
	for _, cid := range s.ClaimIDs {
		listed[cid] = true
		if _, ok := r.claims[cid]; !ok {
			r.issue(model.SeverityWarning, "SOURCE_CLAIM_MISSING", model.KindSource, s.ID, "claim_ids", cid,
				"%s: claim_ids lists unknown claim %q", s.ID, cid)
		} else if !cites[cid] {
			r.issue(model.SeverityWarning, "SOURCE_BACKLINK_MISMATCH", model.KindSource, s.ID, "claim_ids", cid,
				"%s: lists %s but the claim does not cite this source", s.ID, cid)
		}
	}
	for _, cid := range citing {
		if !listed[cid] {
			r.issue(model.SeverityWarning, "SOURCE_CLAIM_NOT_LISTED", model.KindSource, s.ID, "claim_ids", cid,
				"%s: claim %s cites this source but is not in claim_ids", s.ID, cid)
		}
	}
}

func (r *refCheck) chain(ch *model.Chain, scorer *score.Scorer) {
	result := scorer.Calculate(ch, r.claims)
	for _, cid := range result.Missing {
		r.issue(model.SeverityError, "CHAIN_CLAIM_MISSING", model.KindChain, ch.ID, "claim_ids", cid,
			"%s: references unknown claim %q", ch.ID, cid)
	}
	if ch.Credence != nil && result.Exceeds(*ch.Credence) {
		r.issue(model.SeverityError, "CHAIN_CREDENCE_EXCEEDS_MIN", model.KindChain, ch.ID, "credence", *ch.Credence,
			"%s: chain credence %.2f > min claim credence %.2f (%s)", ch.ID, *ch.Credence, result.Min, result.WeakestLink)
	}
}

func (r *refCheck) prediction(p *model.Prediction) {
	c, ok := r.claims[p.ClaimID]
	switch {
	case !ok:
		r.issue(model.SeverityError, "PREDICTION_CLAIM_MISSING", model.KindPrediction, p.ID, "claim_id", p.ClaimID,
			"%s: references unknown claim %q", p.ID, p.ClaimID)
	case c.Type != model.ClaimPrediction:
		r.issue(model.SeverityError, "PREDICTION_CLAIM_NOT_P", model.KindPrediction, p.ID, "claim_id", p.ClaimID,
			"%s: claim %s has type %s, not %s", p.ID, p.ClaimID, c.Type, model.ClaimPrediction)
	}
	if p.SourceID != "" {
		if _, ok := r.sources[p.SourceID]; !ok {
			r.issue(model.SeverityError, "PREDICTION_SOURCE_MISSING", model.KindPrediction, p.ID, "source_id", p.SourceID,
				"%s: references unknown source %q", p.ID, p.SourceID)
		}
	}
}

func (r *refCheck) contradiction(c *model.Contradiction) {
	for _, ref := range []struct{ field, id string }{{"claim_a", c.ClaimA}, {"claim_b", c.ClaimB}} {
		if _, ok := r.claims[ref.id]; !ok && ref.id != "" {
			r.issue(model.SeverityError, "CONTRADICTION_CLAIM_MISSING", model.KindContradiction, c.ID, ref.field, ref.id,
				"%s: references unknown claim %q", c.ID, ref.id)
		}
	}
}
