package model

// ClaimType categorizes the epistemic nature of a claim
type ClaimType string

const (
	ClaimFact           ClaimType = "[F]" // Empirically established
	ClaimTheory         ClaimType = "[T]" // Coherent explanatory framework
	ClaimHypothesis     ClaimType = "[H]" // Testable, not yet established
	ClaimPrediction     ClaimType = "[P]" // Future-oriented, resolvable
	ClaimAssumption     ClaimType = "[A]" // Taken as given by an argument
	ClaimCounterfactual ClaimType = "[C]" // Alternative scenario
	ClaimSpeculation    ClaimType = "[S]" // Unfalsifiable or far-off
	ClaimContradiction  ClaimType = "[X]" // Logically inconsistent claim
)

var ClaimTypes = []ClaimType{
	ClaimFact, ClaimTheory, ClaimHypothesis, ClaimPrediction,
	ClaimAssumption, ClaimCounterfactual, ClaimSpeculation, ClaimContradiction,
}

// Domain is the subject area code used in claim IDs
type Domain string

const (
	DomainLabor    Domain = "LABOR"
	DomainEcon     Domain = "ECON"
	DomainGov      Domain = "GOV"
	DomainTech     Domain = "TECH"
	DomainSoc      Domain = "SOC"
	DomainResource Domain = "RESOURCE"
	DomainTrans    Domain = "TRANS"
	DomainMeta     Domain = "META"
	DomainGeo      Domain = "GEO"
	DomainInst     Domain = "INST"
	DomainRisk     Domain = "RISK"
)

var Domains = []Domain{
	DomainLabor, DomainEcon, DomainGov, DomainTech, DomainSoc, DomainResource,
	DomainTrans, DomainMeta, DomainGeo, DomainInst, DomainRisk,
}

// ValidDomain reports whether d is one of the enumerated domain codes
func ValidDomain(d string) bool {
	for _, x := range Domains {
		if string(x) == d {
			return true
		}
	}
	return false
}

// SourceType classifies a source document
type SourceType string

const (
	SourcePaper     SourceType = "PAPER"
	SourceBook      SourceType = "BOOK"
	SourceReport    SourceType = "REPORT"
	SourceArticle   SourceType = "ARTICLE"
	SourceBlog      SourceType = "BLOG"
	SourceSocial    SourceType = "SOCIAL"
	SourceConvo     SourceType = "CONVO"
	SourceInterview SourceType = "INTERVIEW"
	SourceData      SourceType = "DATA"
	SourceFiction   SourceType = "FICTION"
	SourceKnowledge SourceType = "KNOWLEDGE"
)

var SourceTypes = []SourceType{
	SourcePaper, SourceBook, SourceReport, SourceArticle, SourceBlog, SourceSocial,
	SourceConvo, SourceInterview, SourceData, SourceFiction, SourceKnowledge,
}

// PredictionStatus tracks how a prediction is faring
type PredictionStatus string

const (
	PredConfirmed          PredictionStatus = "[P+]"
	PredPartiallyConfirmed PredictionStatus = "[P~]"
	PredOnTrack            PredictionStatus = "[P→]"
	PredUncertain          PredictionStatus = "[P?]"
	PredOffTrack           PredictionStatus = "[P←]"
	PredPartiallyRefuted   PredictionStatus = "[P!]"
	PredRefuted            PredictionStatus = "[P-]"
	PredUnfalsifiable      PredictionStatus = "[P∅]"
)

var PredictionStatuses = []PredictionStatus{
	PredConfirmed, PredPartiallyConfirmed, PredOnTrack, PredUncertain,
	PredOffTrack, PredPartiallyRefuted, PredRefuted, PredUnfalsifiable,
}

// ConflictType says why two claims disagree
type ConflictType string

const (
	ConflictDirect     ConflictType = "direct"
	ConflictScope      ConflictType = "scope"
	ConflictDefinition ConflictType = "definition"
	ConflictTimescale  ConflictType = "timescale"
)

var ConflictTypes = []ConflictType{ConflictDirect, ConflictScope, ConflictDefinition, ConflictTimescale}

// ContradictionStatus is open until the conflict is explained
type ContradictionStatus string

const (
	ContradictionOpen     ContradictionStatus = "open"
	ContradictionResolved ContradictionStatus = "resolved"
)

var ContradictionStatuses = []ContradictionStatus{ContradictionOpen, ContradictionResolved}

// ScoringMethod selects how a chain's credence is aggregated
type ScoringMethod string

const (
	ScoringMin    ScoringMethod = "MIN"
	ScoringRange  ScoringMethod = "RANGE"
	ScoringCustom ScoringMethod = "CUSTOM"
)

var ScoringMethods = []ScoringMethod{ScoringMin, ScoringRange, ScoringCustom}

// Kind names an entity table
type Kind string

const (
	KindClaim         Kind = "claims"
	KindSource        Kind = "sources"
	KindChain         Kind = "chains"
	KindPrediction    Kind = "predictions"
	KindContradiction Kind = "contradictions"
	KindDefinition    Kind = "definitions"
)

var Kinds = []Kind{KindSource, KindClaim, KindChain, KindPrediction, KindContradiction, KindDefinition}

// Embedded reports whether records of the kind carry an embedding
func (k Kind) Embedded() bool {
	return k == KindClaim || k == KindSource || k == KindChain
}

// ParseKind accepts a table name or its singular form
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "claims", "claim":
		return KindClaim, true
	case "sources", "source":
		return KindSource, true
	case "chains", "chain":
		return KindChain, true
	case "predictions", "prediction":
		return KindPrediction, true
	case "contradictions", "contradiction":
		return KindContradiction, true
	case "definitions", "definition":
		return KindDefinition, true
	}
	return "", false
}
