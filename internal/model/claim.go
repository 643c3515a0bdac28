package model

import "time"

// Claim represents an atomic, independently evaluable assertion
type Claim struct {
	ID                 string        `json:"id" yaml:"id"`                                                     // DOMAIN-YYYY-NNN
	Text               string        `json:"text" yaml:"text"`                                                 // The claim text itself
	Type               ClaimType     `json:"type" yaml:"type"`                                                 // [F], [T], [H], ...
	Domain             Domain        `json:"domain" yaml:"domain"`                                             // Must match the ID prefix
	EvidenceLevel      EvidenceLevel `json:"evidence_level" yaml:"evidence_level"`                             // E1 (strongest) .. E6
	Credence           *float64      `json:"credence" yaml:"credence"`                                         // Subjective probability in [0,1]; nil is rejected
	Operationalization string        `json:"operationalization,omitempty" yaml:"operationalization,omitempty"` // How the claim would be tested
	Assumptions        []string      `json:"assumptions" yaml:"assumptions"`
	Falsifiers         []string      `json:"falsifiers" yaml:"falsifiers"`
	SourceIDs          []string      `json:"source_ids" yaml:"source_ids"`

	Supports    []string `json:"supports" yaml:"supports"`
	Contradicts []string `json:"contradicts" yaml:"contradicts"`
	DependsOn   []string `json:"depends_on" yaml:"depends_on"`
	ModifiedBy  []string `json:"modified_by" yaml:"modified_by"`
	PartOfChain string   `json:"part_of_chain,omitempty" yaml:"part_of_chain,omitempty"`

	FirstExtracted string `json:"first_extracted,omitempty" yaml:"first_extracted,omitempty"` // Source ID or analysis it was first pulled from
	ExtractedBy    string `json:"extracted_by,omitempty" yaml:"extracted_by,omitempty"`       // Human or agent that recorded it
	Version        int    `json:"version" yaml:"version"`
	Notes          string `json:"notes,omitempty" yaml:"notes,omitempty"`

	Embedding []float32 `json:"embedding,omitempty" yaml:"-"` // Derived from Text; nil when deferred
	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

func (c *Claim) RecordID() string      { return c.ID }
func (c *Claim) Vector() []float32     { return c.Embedding }
func (c *Claim) SetVector(v []float32) { c.Embedding = v }
func (c *Claim) EmbeddingText() string { return c.Text }
func (c *Claim) Created() time.Time    { return c.CreatedAt }
func (c *Claim) Touch(created, updated time.Time) {
	c.CreatedAt, c.UpdatedAt = created, updated
}

// BumpVersion records one more revision
func (c *Claim) BumpVersion() { c.Version++ }

func (c *Claim) Revision() int     { return c.Version }
func (c *Claim) SetRevision(v int) { c.Version = v }

// Normalize replaces nil lists with empty ones so stored documents are uniform
func (c *Claim) Normalize() {
	c.Assumptions = nonNil(c.Assumptions)
	c.Falsifiers = nonNil(c.Falsifiers)
	c.SourceIDs = nonNil(c.SourceIDs)
	c.Supports = nonNil(c.Supports)
	c.Contradicts = nonNil(c.Contradicts)
	c.DependsOn = nonNil(c.DependsOn)
	c.ModifiedBy = nonNil(c.ModifiedBy)
	if c.Version == 0 {
		c.Version = 1
	}
}

// Relations returns every relationship list keyed by its field name
func (c *Claim) Relations() map[string][]string {
	return map[string][]string{
		"supports":    c.Supports,
		"contradicts": c.Contradicts,
		"depends_on":  c.DependsOn,
		"modified_by": c.ModifiedBy,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Ptr returns a pointer to v, for the pointer-typed numeric fields
func Ptr[T any](v T) *T { return &v }
