package model

import "time"

// Contradiction records a conflict between two claims and how it might be
// resolved
type Contradiction struct {
	ID             string              `json:"id" yaml:"id"` // CONTRA-YYYY-NNN
	ClaimA         string              `json:"claim_a" yaml:"claim_a"`
	ClaimB         string              `json:"claim_b" yaml:"claim_b"`
	ConflictType   ConflictType        `json:"conflict_type,omitempty" yaml:"conflict_type,omitempty"`
	LikelyCause    string              `json:"likely_cause,omitempty" yaml:"likely_cause,omitempty"`
	ResolutionPath string              `json:"resolution_path,omitempty" yaml:"resolution_path,omitempty"`
	Status         ContradictionStatus `json:"status" yaml:"status"` // open when not given

	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

func (c *Contradiction) RecordID() string      { return c.ID }
func (c *Contradiction) Vector() []float32     { return nil }
func (c *Contradiction) SetVector([]float32)   {}
func (c *Contradiction) EmbeddingText() string { return "" }
func (c *Contradiction) Created() time.Time    { return c.CreatedAt }
func (c *Contradiction) Touch(created, updated time.Time) {
	c.CreatedAt, c.UpdatedAt = created, updated
}

func (c *Contradiction) Normalize() {
	if c.Status == "" {
		c.Status = ContradictionOpen
	}
}

// Definition pins down how a term is used across analyses
type Definition struct {
	Term             string `json:"term" yaml:"term"`
	Definition       string `json:"definition" yaml:"definition"`
	OperationalProxy string `json:"operational_proxy,omitempty" yaml:"operational_proxy,omitempty"` // How the term is measured
	Notes            string `json:"notes,omitempty" yaml:"notes,omitempty"`
	Domain           Domain `json:"domain,omitempty" yaml:"domain,omitempty"`
	AnalysisID       string `json:"analysis_id,omitempty" yaml:"analysis_id,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

func (d *Definition) RecordID() string      { return d.Term }
func (d *Definition) Vector() []float32     { return nil }
func (d *Definition) SetVector([]float32)   {}
func (d *Definition) EmbeddingText() string { return "" }
func (d *Definition) Created() time.Time    { return d.CreatedAt }
func (d *Definition) Touch(created, updated time.Time) {
	d.CreatedAt, d.UpdatedAt = created, updated
}

func (d *Definition) Normalize() {}
