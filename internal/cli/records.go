package cli

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/registry"
	"github.com/lhl/realitycheck/internal/schema"
	"github.com/lhl/realitycheck/internal/storage"
)

// fieldFlag exposes one record field as a string flag on an add command
type fieldFlag struct {
	flag  string
	field string
	usage string
}

var claimFlags = []fieldFlag{
	{"id", "id", "explicit ID (default: next DOMAIN-YYYY-NNN)"},
	{"text", "text", "claim text"},
	{"type", "type", "claim type: [F] [T] [H] [P] [A] [C] [S] [X]"},
	{"domain", "domain", "domain code, e.g. TECH"},
	{"evidence", "evidence_level", "evidence level E1..E6"},
	{"credence", "credence", "credence in [0,1]"},
	{"sources", "source_ids", "comma-separated source IDs"},
	{"supports", "supports", "comma-separated claim IDs this claim supports"},
	{"contradicts", "contradicts", "comma-separated claim IDs this claim contradicts"},
	{"depends-on", "depends_on", "comma-separated claim IDs this claim depends on"},
	{"modified-by", "modified_by", "comma-separated claim IDs that modify this claim"},
	{"chain", "part_of_chain", "chain ID this claim belongs to"},
	{"operationalization", "operationalization", "how the claim would be tested"},
	{"assumptions", "assumptions", "comma-separated assumptions"},
	{"falsifiers", "falsifiers", "comma-separated falsifiers"},
	{"extracted-by", "extracted_by", "who recorded the claim"},
	{"first-extracted", "first_extracted", "source or analysis it was first extracted from"},
	{"notes", "notes", "free-form notes"},
}

var sourceFlags = []fieldFlag{
	{"id", "id", "explicit ID (default: slug of title and year)"},
	{"title", "title", "source title"},
	{"type", "type", "source type, e.g. PAPER, REPORT, ARTICLE"},
	{"author", "author", "comma-separated authors"},
	{"year", "year", "publication year"},
	{"url", "url", "URL"},
	{"doi", "doi", "DOI"},
	{"accessed", "accessed", "access date YYYY-MM-DD"},
	{"reliability", "reliability", "reliability in [0,1]"},
	{"bias-notes", "bias_notes", "known biases"},
	{"status", "status", "workflow status"},
	{"topics", "topics", "comma-separated topics"},
	{"domains", "domains", "comma-separated domain codes"},
	{"analysis-file", "analysis_file", "path of the analysis document"},
}

var chainFlags = []fieldFlag{
	{"id", "id", "explicit ID (default: next CHAIN-YYYY-NNN)"},
	{"name", "name", "chain name"},
	{"thesis", "thesis", "conclusion the chain argues for"},
	{"claims", "claim_ids", "comma-separated claim IDs, in argument order"},
	{"credence", "credence", "chain credence (default: derived from claims)"},
	{"scoring", "scoring_method", "scoring method: MIN, RANGE, CUSTOM"},
	{"analysis-file", "analysis_file", "path of the analysis document"},
}

var predictionFlags = []fieldFlag{
	{"id", "id", "explicit ID (default: next PRED-YYYY-NNN)"},
	{"claim", "claim_id", "ID of the predicted claim"},
	{"source", "source_id", "source the prediction came from"},
	{"status", "status", "status, e.g. [P→]"},
	{"date-made", "date_made", "date the prediction was made, YYYY-MM-DD"},
	{"target-date", "target_date", "date it should resolve by, YYYY-MM-DD"},
	{"falsification", "falsification_criteria", "what would refute it"},
	{"verification", "verification_criteria", "what would confirm it"},
}

var contradictionFlags = []fieldFlag{
	{"id", "id", "explicit ID (default: next CONTRA-YYYY-NNN)"},
	{"claim-a", "claim_a", "first claim ID"},
	{"claim-b", "claim_b", "second claim ID"},
	{"conflict", "conflict_type", "conflict type: direct, scope, definition, timescale"},
	{"cause", "likely_cause", "likely cause of the conflict"},
	{"resolution", "resolution_path", "how the conflict could be resolved"},
	{"status", "status", "open or resolved (default: open)"},
}

var definitionFlags = []fieldFlag{
	{"term", "term", "term being defined"},
	{"definition", "definition", "working definition"},
	{"proxy", "operational_proxy", "how the term is measured"},
	{"domain", "domain", "domain code, e.g. TECH"},
	{"analysis", "analysis_id", "analysis the definition belongs to"},
	{"notes", "notes", "free-form notes"},
}

func init() {
	claimCmd := &cobra.Command{Use: "claim", Short: "Manage claims"}
	claimCmd.AddCommand(
		newAddCmd(model.KindClaim, claimFlags, func() *model.Claim { return &model.Claim{} }, (*registry.Registry).AddClaim, printClaim),
		newGetCmd(model.KindClaim, (*registry.Registry).GetClaim, printClaim),
		newUpdateCmd(model.KindClaim, (*registry.Registry).UpdateClaim, printClaim),
		newListCmd(model.KindClaim, (*registry.Registry).ListClaims, printClaims),
	)

	sourceCmd := &cobra.Command{Use: "source", Short: "Manage sources"}
	sourceCmd.AddCommand(
		newAddCmd(model.KindSource, sourceFlags, func() *model.Source { return &model.Source{} }, (*registry.Registry).AddSource, printSource),
		newGetCmd(model.KindSource, (*registry.Registry).GetSource, printSource),
		newUpdateCmd(model.KindSource, (*registry.Registry).UpdateSource, printSource),
		newListCmd(model.KindSource, (*registry.Registry).ListSources, printSources),
	)

	chainCmd := &cobra.Command{Use: "chain", Short: "Manage argument chains"}
	chainCmd.AddCommand(
		newAddCmd(model.KindChain, chainFlags, func() *model.Chain { return &model.Chain{} }, (*registry.Registry).AddChain, printChain),
		newGetCmd(model.KindChain, (*registry.Registry).GetChain, printChain),
		newUpdateCmd(model.KindChain, (*registry.Registry).UpdateChain, printChain),
		newListCmd(model.KindChain, (*registry.Registry).ListChains, printChains),
		chainScoreCmd,
	)

	predictionCmd := &cobra.Command{Use: "prediction", Aliases: []string{"pred"}, Short: "Manage predictions"}
	predictionCmd.AddCommand(
		newAddCmd(model.KindPrediction, predictionFlags, func() *model.Prediction { return &model.Prediction{} }, (*registry.Registry).AddPrediction, printPrediction),
		newGetCmd(model.KindPrediction, (*registry.Registry).GetPrediction, printPrediction),
		newUpdateCmd(model.KindPrediction, (*registry.Registry).UpdatePrediction, printPrediction),
		newListCmd(model.KindPrediction, (*registry.Registry).ListPredictions, printPredictions),
	)

	contradictionCmd := &cobra.Command{Use: "contradiction", Aliases: []string{"contra"}, Short: "Track conflicts between claims"}
	contradictionCmd.AddCommand(
		newAddCmd(model.KindContradiction, contradictionFlags, func() *model.Contradiction { return &model.Contradiction{} }, (*registry.Registry).AddContradiction, printContradiction),
		newGetCmd(model.KindContradiction, (*registry.Registry).GetContradiction, printContradiction),
		newUpdateCmd(model.KindContradiction, (*registry.Registry).UpdateContradiction, printContradiction),
		newListCmd(model.KindContradiction, (*registry.Registry).ListContradictions, printContradictions),
	)

	definitionCmd := &cobra.Command{Use: "definition", Aliases: []string{"def"}, Short: "Manage working definitions of terms"}
	definitionCmd.AddCommand(
		newAddCmd(model.KindDefinition, definitionFlags, func() *model.Definition { return &model.Definition{} }, (*registry.Registry).AddDefinition, printDefinition),
		newGetCmd(model.KindDefinition, (*registry.Registry).GetDefinition, printDefinition),
		newUpdateCmd(model.KindDefinition, (*registry.Registry).UpdateDefinition, printDefinition),
		newListCmd(model.KindDefinition, (*registry.Registry).ListDefinitions, printDefinitions),
	)

	rootCmd.AddCommand(claimCmd, sourceCmd, chainCmd, predictionCmd, contradictionCmd, definitionCmd)
}

// chainScoreCmd recomputes a chain's credence from its claims
var chainScoreCmd = &cobra.Command{
	Use:   "score <chain-id>",
	Short: "Show how a chain's credence follows from its claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
			s, err := reg.ScoreChain(ctx, args[0])
			if err != nil {
				return err
			}
			return render(cmd, s, func(w io.Writer) { printScore(w, args[0], s) })
		})
	},
}

func singular(kind model.Kind) string {
	return strings.TrimSuffix(string(kind), "s")
}

func newAddCmd[T storage.Record](
	kind model.Kind,
	flags []fieldFlag,
	newRec func() T,
	add func(*registry.Registry, context.Context, T) (T, error),
	text func(io.Writer, T),
) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Validate and store a new " + singular(kind),
		Long: "Validate and store a new " + singular(kind) + `.

Fields come from --from (a YAML document, '-' for stdin) and are
overridden by flags. The record is rejected with exit code 2 when it
fails validation. Adding an existing ID replaces the record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := newRec()
			if from != "" {
				if err := decodeFile(cmd, from, rec); err != nil {
					return err
				}
			}
			rec, err := applyFlags(cmd, kind, flags, rec, newRec)
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
				stored, err := add(reg, ctx, rec)
				if err != nil {
					return err
				}
				stripVectors(stored)
				return render(cmd, stored, func(w io.Writer) { text(w, stored) })
			})
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "read the record from a YAML file ('-' for stdin)")
	for _, f := range flags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	return cmd
}

func newGetCmd[T storage.Record](
	kind model.Kind,
	get func(*registry.Registry, context.Context, string) (T, error),
	text func(io.Writer, T),
) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + singular(kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
				rec, err := get(reg, ctx, args[0])
				if err != nil {
					return err
				}
				stripVectors(rec)
				return render(cmd, rec, func(w io.Writer) { text(w, rec) })
			})
		},
	}
}

func newUpdateCmd[T storage.Record](
	kind model.Kind,
	update func(*registry.Registry, context.Context, string, registry.Patch) (T, error),
	text func(io.Writer, T),
) *cobra.Command {
	var sets []string
	var from string
	d := schema.MustFor(kind)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change mutable fields of a " + singular(kind),
		Long: "Change mutable fields of a " + singular(kind) + `.

Mutable fields: ` + strings.Join(d.Mutable(), ", ") + `

Values given with --set are parsed by field type; list fields take a
comma-separated list or a YAML flow sequence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parsePatch(cmd, d, sets, from)
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
				rec, err := update(reg, ctx, args[0], patch)
				if err != nil {
					return err
				}
				stripVectors(rec)
				return render(cmd, rec, func(w io.Writer) { text(w, rec) })
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value to change (repeatable)")
	cmd.Flags().StringVarP(&from, "from", "f", "", "read the patch from a YAML mapping ('-' for stdin)")
	return cmd
}

func newListCmd[T storage.Record](
	kind model.Kind,
	list func(*registry.Registry, context.Context, map[string]any, int) ([]T, error),
	table func(io.Writer, []T),
) *cobra.Command {
	var filters []string
	var limit int
	d := schema.MustFor(kind)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + string(kind) + " in insertion order",
		Long: "List " + string(kind) + ` in insertion order.

Filterable fields: ` + strings.Join(d.Filterable(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(d, filters)
			if err != nil {
				return err
			}
			return withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
				recs, err := list(reg, ctx, filter, limit)
				if err != nil {
					return err
				}
				stripVectors(recs...)
				return render(cmd, recs, func(w io.Writer) { table(w, recs) })
			})
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "exact-match filter field=value (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 = all)")
	return cmd
}

// decodeFile strictly decodes a YAML document into out
func decodeFile(cmd *cobra.Command, path string, out any) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		r = f
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// applyFlags overlays every changed field flag onto rec
func applyFlags[T storage.Record](cmd *cobra.Command, kind model.Kind, flags []fieldFlag, rec T, newRec func() T) (T, error) {
	d := schema.MustFor(kind)
	doc, err := schema.ToDocument(rec)
	if err != nil {
		return rec, err
	}
	changed := false
	for _, f := range flags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		raw, _ := cmd.Flags().GetString(f.flag)
		v, err := fieldValue(d, f.field, raw)
		if err != nil {
			return rec, errors.Wrapf(err, "--%s", f.flag)
		}
		doc[f.field] = v
		changed = true
	}
	if !changed {
		return rec, nil
	}
	out := newRec()
	if err := schema.FromDocument(doc, out); err != nil {
		return rec, err
	}
	return out, nil
}

func parsePatch(cmd *cobra.Command, d *schema.Descriptor, sets []string, from string) (registry.Patch, error) {
	patch := registry.Patch{}
	if from != "" {
		if err := decodeFile(cmd, from, &patch); err != nil {
			return nil, err
		}
	}
	for _, s := range sets {
		field, raw, ok := strings.Cut(s, "=")
		if !ok || field == "" {
			return nil, errors.WithHint(errors.Newf("invalid --set %q", s), "use --set field=value")
		}
		v, err := fieldValue(d, field, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "--set %s", field)
		}
		patch[field] = v
	}
	if len(patch) == 0 {
		return nil, errors.WithHint(errors.New("nothing to update"),
			"mutable fields: "+strings.Join(d.Mutable(), ", "))
	}
	return patch, nil
}

func parseFilter(d *schema.Descriptor, filters []string) (map[string]any, error) {
	raw := make(map[string]string, len(filters))
	for _, f := range filters {
		field, value, ok := strings.Cut(f, "=")
		if !ok || field == "" {
			return nil, errors.WithHint(errors.Newf("invalid --filter %q", f), "use --filter field=value")
		}
		raw[field] = value
	}
	return d.CoerceFilter(raw)
}

// fieldValue converts a command-line string to the JSON shape of field.
// Unknown fields pass through as strings and are rejected downstream.
func fieldValue(d *schema.Descriptor, field, raw string) (any, error) {
	f, ok := d.Field(field)
	if !ok {
		return raw, nil
	}
	switch f.Type {
	case schema.Integer:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.Newf("%s: %q is not an integer", field, raw)
		}
		return n, nil
	case schema.Number:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.Newf("%s: %q is not a number", field, raw)
		}
		return n, nil
	case schema.StringList:
		if strings.HasPrefix(strings.TrimSpace(raw), "[") {
			var list []string
			if err := yaml.Unmarshal([]byte(raw), &list); err != nil {
				return nil, errors.Wrapf(err, "%s: parse list", field)
			}
			return list, nil
		}
		return splitList(raw), nil
	case schema.ObjectList:
		var list []map[string]any
		if err := yaml.Unmarshal([]byte(raw), &list); err != nil {
			return nil, errors.Wrapf(err, "%s: parse list", field)
		}
		return list, nil
	}
	return raw, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
