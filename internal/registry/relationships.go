package registry

import "context"

// Relationships is the forward and reverse view of one claim's links
type Relationships struct {
	ClaimID string `json:"claim_id" yaml:"claim_id"`

	// Outgoing lists the claim's own relationship fields
	Outgoing map[string][]string `json:"outgoing" yaml:"outgoing"`
	// Incoming lists, per relationship field, the claims pointing here
	Incoming map[string][]string `json:"incoming" yaml:"incoming"`

	Sources     []string `json:"sources" yaml:"sources"`
	Chains      []string `json:"chains" yaml:"chains"`
	Predictions []string `json:"predictions" yaml:"predictions"`

	Contradictions []string `json:"contradictions" yaml:"contradictions"`
}

// Relationships collects every record linked to claimID in either direction
func (r *Registry) Relationships(ctx context.Context, claimID string) (*Relationships, error) {
	c, err := r.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rel := &Relationships{
		ClaimID:     claimID,
		Outgoing:    c.Relations(),
		Incoming:    map[string][]string{},
		Sources:     c.SourceIDs,
		Chains:      []string{},
		Predictions: []string{},

		Contradictions: []string{},
	}
	for name := range rel.Outgoing {
		rel.Incoming[name] = []string{}
	}

	for _, other := range snap.Claims {
		if other.ID == claimID {
			continue
		}
		for name, targets := range other.Relations() {
			if contains(targets, claimID) {
				rel.Incoming[name] = append(rel.Incoming[name], other.ID)
			}
		}
	}
	for _, ch := range snap.Chains {
		if contains(ch.ClaimIDs, claimID) {
			rel.Chains = append(rel.Chains, ch.ID)
		}
	}
	for _, p := range snap.Predictions {
		if p.ClaimID == claimID {
			rel.Predictions = append(rel.Predictions, p.ID)
		}
	}
	for _, x := range snap.Contradictions {
		if x.ClaimA == claimID || x.ClaimB == claimID {
			rel.Contradictions = append(rel.Contradictions, x.ID)
		}
	}
	return rel, nil
}
