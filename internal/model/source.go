package model

import (
	"strings"
	"time"
)

// Source represents a document that claims are extracted from
type Source struct {
	ID           string     `json:"id" yaml:"id"` // Free-form slug, e.g. epoch-2024-training
	Title        string     `json:"title" yaml:"title"`
	Type         SourceType `json:"type" yaml:"type"`
	Author       []string   `json:"author" yaml:"author"`
	Year         *int       `json:"year" yaml:"year"` // Publication year; nil is rejected
	URL          string     `json:"url,omitempty" yaml:"url,omitempty"`
	DOI          string     `json:"doi,omitempty" yaml:"doi,omitempty"`
	Accessed     string     `json:"accessed,omitempty" yaml:"accessed,omitempty"`       // YYYY-MM-DD
	Reliability  *float64   `json:"reliability,omitempty" yaml:"reliability,omitempty"` // Optional, in [0,1]
	BiasNotes    string     `json:"bias_notes,omitempty" yaml:"bias_notes,omitempty"`
	Status       string     `json:"status,omitempty" yaml:"status,omitempty"` // Workflow tag (cataloged, analyzed, ...)
	ClaimIDs     []string   `json:"claim_ids" yaml:"claim_ids"`               // Derived back-references
	AnalysisFile string     `json:"analysis_file,omitempty" yaml:"analysis_file,omitempty"`
	Topics       []string   `json:"topics" yaml:"topics"`
	Domains      []Domain   `json:"domains" yaml:"domains"`

	Embedding []float32 `json:"embedding,omitempty" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

func (s *Source) RecordID() string      { return s.ID }
func (s *Source) Vector() []float32     { return s.Embedding }
func (s *Source) SetVector(v []float32) { s.Embedding = v }
func (s *Source) Created() time.Time    { return s.CreatedAt }
func (s *Source) Touch(created, updated time.Time) {
	s.CreatedAt, s.UpdatedAt = created, updated
}

// EmbeddingText joins the title with any bias notes
func (s *Source) EmbeddingText() string {
	if strings.TrimSpace(s.BiasNotes) == "" {
		return s.Title
	}
	return s.Title + ". " + s.BiasNotes
}

func (s *Source) Normalize() {
	s.Author = nonNil(s.Author)
	s.ClaimIDs = nonNil(s.ClaimIDs)
	s.Topics = nonNil(s.Topics)
	if s.Domains == nil {
		s.Domains = []Domain{}
	}
}
