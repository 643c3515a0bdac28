package schema

import (
	"regexp"

	"github.com/lhl/realitycheck/internal/model"
)

var (
	ClaimIDPattern         = regexp.MustCompile(`^[A-Z]+-\d{4}-\d{3}$`)
	ChainIDPattern         = regexp.MustCompile(`^CHAIN-\d{4}-\d{3}$`)
	PredictionIDPattern    = regexp.MustCompile(`^PRED-\d{4}-\d{3}$`)
	ContradictionIDPattern = regexp.MustCompile(`^\S+$`)
	SourceIDPattern        = regexp.MustCompile(`^\S+$`)

	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func bound(v float64) *float64 { return &v }

func enum[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func init() {
	register(&Descriptor{
		Kind:       model.KindClaim,
		CodePrefix: "CLAIM",
		IDPattern:  ClaimIDPattern,
		Fields: []Field{
			{Name: "id", Type: String, Required: true, Pattern: ClaimIDPattern},
			{Name: "text", Type: String, Required: true},
			{Name: "type", Type: String, Required: true, Enum: enum(model.ClaimTypes)},
			{Name: "domain", Type: String, Required: true, Enum: enum(model.Domains)},
			{Name: "evidence_level", Type: String, Required: true, Enum: enum(model.EvidenceLevels)},
			{Name: "credence", Type: Number, Required: true, Min: bound(0), Max: bound(1)},
			{Name: "operationalization", Type: String},
			{Name: "assumptions", Type: StringList},
			{Name: "falsifiers", Type: StringList},
			{Name: "source_ids", Type: StringList},
			{Name: "supports", Type: StringList},
			{Name: "contradicts", Type: StringList},
			{Name: "depends_on", Type: StringList},
			{Name: "modified_by", Type: StringList},
			{Name: "part_of_chain", Type: String, Pattern: ChainIDPattern},
			{Name: "first_extracted", Type: String},
			{Name: "extracted_by", Type: String},
			{Name: "version", Type: Integer, Min: bound(0)},
			{Name: "notes", Type: String},
		},
	},
		[]string{"text", "credence", "evidence_level", "notes", "source_ids",
			"supports", "contradicts", "depends_on", "modified_by", "part_of_chain"},
		[]string{"text"},
		[]string{"domain", "type", "evidence_level", "part_of_chain", "extracted_by"},
	)

	register(&Descriptor{
		Kind:       model.KindSource,
		CodePrefix: "SOURCE",
		IDPattern:  SourceIDPattern,
		Fields: []Field{
			{Name: "id", Type: String, Required: true, Pattern: SourceIDPattern},
			{Name: "title", Type: String, Required: true},
			{Name: "type", Type: String, Required: true, Enum: enum(model.SourceTypes)},
			{Name: "author", Type: StringList},
			{Name: "year", Type: Integer, Required: true, Min: bound(0), Max: bound(9999)},
			{Name: "url", Type: String},
			{Name: "doi", Type: String},
			{Name: "accessed", Type: String, Pattern: datePattern},
			{Name: "reliability", Type: Number, Min: bound(0), Max: bound(1)},
			{Name: "bias_notes", Type: String},
			{Name: "status", Type: String},
			{Name: "claim_ids", Type: StringList},
			{Name: "analysis_file", Type: String},
			{Name: "topics", Type: StringList},
			{Name: "domains", Type: StringList, Enum: enum(model.Domains)},
		},
	},
		[]string{"status", "url", "doi", "accessed", "reliability", "bias_notes", "topics"},
		[]string{"bias_notes"},
		[]string{"type", "status", "year"},
	)

	register(&Descriptor{
		Kind:       model.KindChain,
		CodePrefix: "CHAIN",
		IDPattern:  ChainIDPattern,
		Fields: []Field{
			{Name: "id", Type: String, Required: true, Pattern: ChainIDPattern},
			{Name: "name", Type: String, Required: true},
			{Name: "thesis", Type: String},
			{Name: "claim_ids", Type: StringList, Required: true},
			{Name: "credence", Type: Number, Min: bound(0), Max: bound(1)},
			{Name: "scoring_method", Type: String, Required: true, Enum: enum(model.ScoringMethods)},
			{Name: "weakest_link", Type: String},
			{Name: "analysis_file", Type: String},
		},
	},
		[]string{"credence", "thesis", "claim_ids", "scoring_method", "weakest_link"},
		[]string{"thesis"},
		[]string{"scoring_method"},
	)

	register(&Descriptor{
		Kind:       model.KindPrediction,
		CodePrefix: "PREDICTION",
		IDPattern:  PredictionIDPattern,
		Fields: []Field{
			{Name: "id", Type: String, Required: true, Pattern: PredictionIDPattern},
			{Name: "claim_id", Type: String, Required: true, Pattern: ClaimIDPattern},
			{Name: "source_id", Type: String},
			{Name: "status", Type: String, Required: true, Enum: enum(model.PredictionStatuses)},
			{Name: "date_made", Type: String, Pattern: datePattern},
			{Name: "target_date", Type: String, Pattern: datePattern},
			{Name: "resolution_date", Type: String, Pattern: datePattern},
			{Name: "falsification_criteria", Type: String},
			{Name: "verification_criteria", Type: String},
			{Name: "last_evaluated", Type: String, Pattern: datePattern},
			{Name: "evidence_updates", Type: ObjectList},
		},
	},
		[]string{"status", "resolution_date", "target_date", "last_evaluated", "evidence_updates"},
		nil,
		[]string{"status", "claim_id", "source_id"},
	)

	register(&Descriptor{
		Kind:       model.KindContradiction,
		CodePrefix: "CONTRADICTION",
		IDPattern:  ContradictionIDPattern,
		Fields: []Field{
			{Name: "id", Type: String, Required: true, Pattern: ContradictionIDPattern},
			{Name: "claim_a", Type: String, Required: true, Pattern: ClaimIDPattern},
			{Name: "claim_b", Type: String, Required: true, Pattern: ClaimIDPattern},
			{Name: "conflict_type", Type: String, Enum: enum(model.ConflictTypes)},
			{Name: "likely_cause", Type: String},
			{Name: "resolution_path", Type: String},
			{Name: "status", Type: String, Required: true, Enum: enum(model.ContradictionStatuses)},
		},
	},
		[]string{"conflict_type", "likely_cause", "resolution_path", "status"},
		nil,
		[]string{"status", "conflict_type", "claim_a", "claim_b"},
	)

	register(&Descriptor{
		Kind:       model.KindDefinition,
		CodePrefix: "DEFINITION",
		IDField:    "term",
		Fields: []Field{
			{Name: "term", Type: String, Required: true},
			{Name: "definition", Type: String, Required: true},
			{Name: "operational_proxy", Type: String},
			{Name: "notes", Type: String},
			{Name: "domain", Type: String, Enum: enum(model.Domains)},
			{Name: "analysis_id", Type: String},
		},
	},
		[]string{"definition", "operational_proxy", "notes", "domain", "analysis_id"},
		nil,
		[]string{"domain", "analysis_id"},
	)
}
