package model

import "time"

// Prediction tracks the resolution of a [P] claim
type Prediction struct {
	ID                    string           `json:"id" yaml:"id"`             // PRED-YYYY-NNN
	ClaimID               string           `json:"claim_id" yaml:"claim_id"` // Must reference a [P] claim
	SourceID              string           `json:"source_id" yaml:"source_id"`
	Status                PredictionStatus `json:"status" yaml:"status"`
	DateMade              string           `json:"date_made,omitempty" yaml:"date_made,omitempty"`
	TargetDate            string           `json:"target_date,omitempty" yaml:"target_date,omitempty"`
	ResolutionDate        string           `json:"resolution_date,omitempty" yaml:"resolution_date,omitempty"` // Empty until resolved
	FalsificationCriteria string           `json:"falsification_criteria,omitempty" yaml:"falsification_criteria,omitempty"`
	VerificationCriteria  string           `json:"verification_criteria,omitempty" yaml:"verification_criteria,omitempty"`
	LastEvaluated         string           `json:"last_evaluated,omitempty" yaml:"last_evaluated,omitempty"`
	EvidenceUpdates       []EvidenceUpdate `json:"evidence_updates" yaml:"evidence_updates"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

// EvidenceUpdate is a dated note on progress toward resolution
type EvidenceUpdate struct {
	Date string `json:"date" yaml:"date"`
	Note string `json:"note" yaml:"note"`
}

// Predictions carry no embedding.
func (p *Prediction) RecordID() string      { return p.ID }
func (p *Prediction) Vector() []float32     { return nil }
func (p *Prediction) SetVector([]float32)   {}
func (p *Prediction) EmbeddingText() string { return "" }
func (p *Prediction) Created() time.Time    { return p.CreatedAt }
func (p *Prediction) Touch(created, updated time.Time) {
	p.CreatedAt, p.UpdatedAt = created, updated
}

func (p *Prediction) Normalize() {
	if p.EvidenceUpdates == nil {
		p.EvidenceUpdates = []EvidenceUpdate{}
	}
}
