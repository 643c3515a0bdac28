package validate

import (
	"strings"

	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/schema"
)

// logicalRules are cross-field checks that only need the record itself
var logicalRules = map[model.Kind]func(*collector, schema.Document){
	model.KindClaim: func(c *collector, doc schema.Document) {
		id, domain := doc.String("id"), doc.String("domain")
		if !schema.ClaimIDPattern.MatchString(id) || domain == "" {
			return
		}
		if prefix := id[:strings.Index(id, "-")]; prefix != domain {
			c.errorf("domain", "MISMATCH", domain,
				"ID domain %q != field domain %q", prefix, domain)
		}
		for _, rel := range []string{"supports", "contradicts", "depends_on", "modified_by"} {
			for _, target := range doc.Strings(rel) {
				if target == id {
					c.errorf(rel, "SELF_REFERENCE", target, "%s references the claim itself", rel)
				}
			}
		}
	},

	model.KindChain: func(c *collector, doc schema.Document) {
		claims := doc.Strings("claim_ids")
		seen := make(map[string]bool, len(claims))
		for _, id := range claims {
			if seen[id] {
				c.warnf("claim_ids", "DUPLICATE", id, "claim %s listed more than once", id)
			}
			seen[id] = true
		}
		if wl := doc.String("weakest_link"); wl != "" && !seen[wl] {
			c.warnf("weakest_link", "INVALID", wl, "weakest link %s is not one of the chain's claims", wl)
		}
		if doc.String("scoring_method") == string(model.ScoringCustom) {
			if _, ok := doc.Number("credence"); !ok {
				c.errorf("credence", "EMPTY", nil, "CUSTOM scoring requires an explicit credence")
			}
		}
	},

	model.KindContradiction: func(c *collector, doc schema.Document) {
		if a := doc.String("claim_a"); a != "" && a == doc.String("claim_b") {
			c.errorf("claim_b", "SELF_REFERENCE", a, "claim %s cannot contradict itself", a)
		}
	},

	model.KindPrediction: func(c *collector, doc schema.Document) {
		resolved := doc.String("resolution_date") != ""
		switch model.PredictionStatus(doc.String("status")) {
		case model.PredConfirmed, model.PredRefuted:
			if !resolved {
				c.warnf("resolution_date", "EMPTY", nil, "status %s has no resolution date", doc.String("status"))
			}
		}
		made, target := doc.String("date_made"), doc.String("target_date")
		if made != "" && target != "" && target < made {
			c.warnf("target_date", "INVALID", target, "target date %s precedes date made %s", target, made)
		}
	},
}
