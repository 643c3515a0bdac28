package model

import (
	"strings"
	"time"
)

// Chain is an ordered argument built from claims toward a thesis
type Chain struct {
	ID            string        `json:"id" yaml:"id"` // CHAIN-YYYY-NNN
	Name          string        `json:"name" yaml:"name"`
	Thesis        string        `json:"thesis" yaml:"thesis"`
	ClaimIDs      []string      `json:"claim_ids" yaml:"claim_ids"`                   // Ordered, non-empty
	Credence      *float64      `json:"credence,omitempty" yaml:"credence,omitempty"` // Never above the weakest claim
	ScoringMethod ScoringMethod `json:"scoring_method" yaml:"scoring_method"`
	WeakestLink   string        `json:"weakest_link,omitempty" yaml:"weakest_link,omitempty"`
	AnalysisFile  string        `json:"analysis_file,omitempty" yaml:"analysis_file,omitempty"`

	Embedding []float32 `json:"embedding,omitempty" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

func (c *Chain) RecordID() string      { return c.ID }
func (c *Chain) Vector() []float32     { return c.Embedding }
func (c *Chain) SetVector(v []float32) { c.Embedding = v }
func (c *Chain) Created() time.Time    { return c.CreatedAt }
func (c *Chain) Touch(created, updated time.Time) {
	c.CreatedAt, c.UpdatedAt = created, updated
}

func (c *Chain) EmbeddingText() string {
	if strings.TrimSpace(c.Thesis) == "" {
		return c.Name
	}
	return c.Name + ". " + c.Thesis
}

func (c *Chain) Normalize() {
	c.ClaimIDs = nonNil(c.ClaimIDs)
	if c.ScoringMethod == "" {
		c.ScoringMethod = ScoringMin
	}
}
