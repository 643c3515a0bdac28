package model

// Bundle is a batch of records for import, applied sources first so
// claims can resolve their citations
type Bundle struct {
	Sources     []Source     `yaml:"sources" json:"sources"`
	Claims      []Claim      `yaml:"claims" json:"claims"`
	Chains      []Chain      `yaml:"chains" json:"chains"`
	Predictions []Prediction `yaml:"predictions" json:"predictions"`

	Contradictions []Contradiction `yaml:"contradictions,omitempty" json:"contradictions,omitempty"`
	Definitions    []Definition    `yaml:"definitions,omitempty" json:"definitions,omitempty"`
}

// Len returns the total number of records in the bundle
func (b Bundle) Len() int {
	return len(b.Sources) + len(b.Claims) + len(b.Chains) + len(b.Predictions) +
		len(b.Contradictions) + len(b.Definitions)
}

// Outcome records what happened to one imported record
type Outcome struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	ID      string `json:"id" yaml:"id"`
	OK      bool   `json:"ok" yaml:"ok"`
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"` // Neither stored nor failed
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Stats summarises table sizes
type Stats struct {
	Counts              Counts `json:"counts" yaml:"counts"`
	ClaimsMissingEmbed  int    `json:"claims_missing_embedding" yaml:"claims_missing_embedding"`
	SourcesMissingEmbed int    `json:"sources_missing_embedding" yaml:"sources_missing_embedding"`
	ChainsMissingEmbed  int    `json:"chains_missing_embedding" yaml:"chains_missing_embedding"`
}
