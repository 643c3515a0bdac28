package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/score"
	"github.com/lhl/realitycheck/internal/storage"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// render writes v as JSON or YAML, or calls text for the human format
func render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	switch f := strings.ToLower(viper.GetString("output.format")); f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return errors.Wrap(enc.Close(), "encode yaml")
	case FormatText, "":
		text(w)
		return nil
	default:
		return errors.WithHint(errors.Newf("unknown output format %q", f), "use one of: text, json, yaml")
	}
}

// stripVectors drops embeddings so printed records stay readable
func stripVectors[T storage.Record](recs ...T) {
	for _, r := range recs {
		r.SetVector(nil)
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func joinOr(list []string, empty string) string {
	if len(list) == 0 {
		return empty
	}
	return strings.Join(list, ", ")
}

func credenceString(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *c)
}

func yearString(y *int) string {
	if y == nil {
		return "-"
	}
	return strconv.Itoa(*y)
}

func embedded(v []float32) string {
	if len(v) == 0 {
		return "no"
	}
	return fmt.Sprintf("yes (%d)", len(v))
}

func printClaim(w io.Writer, c *model.Claim) {
	fmt.Fprintf(w, "%s  %s  %s  %s (%s)  credence %s  v%d\n", c.ID, c.Type, c.Domain, c.EvidenceLevel, c.EvidenceLevel.Label(), credenceString(c.Credence), c.Version)
	fmt.Fprintf(w, "  %s\n", c.Text)
	fmt.Fprintf(w, "  sources:     %s\n", joinOr(c.SourceIDs, "-"))
	for _, name := range []string{"supports", "contradicts", "depends_on", "modified_by"} {
		if ids := c.Relations()[name]; len(ids) > 0 {
			fmt.Fprintf(w, "  %-12s %s\n", name+":", strings.Join(ids, ", "))
		}
	}
	if c.PartOfChain != "" {
		fmt.Fprintf(w, "  chain:       %s\n", c.PartOfChain)
	}
	if c.Notes != "" {
		fmt.Fprintf(w, "  notes:       %s\n", c.Notes)
	}
	fmt.Fprintf(w, "  embedded:    %s\n", embedded(c.Embedding))
}

func printClaims(w io.Writer, claims []*model.Claim) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tEVIDENCE\tCREDENCE\tTEXT")
	for _, c := range claims {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Type, c.EvidenceLevel, credenceString(c.Credence), truncate(c.Text, 60))
	}
	_ = tw.Flush()
}

func printSource(w io.Writer, s *model.Source) {
	fmt.Fprintf(w, "%s  %s  %s\n", s.ID, s.Type, yearString(s.Year))
	fmt.Fprintf(w, "  %s\n", s.Title)
	if len(s.Author) > 0 {
		fmt.Fprintf(w, "  author:      %s\n", strings.Join(s.Author, ", "))
	}
	if s.URL != "" {
		fmt.Fprintf(w, "  url:         %s\n", s.URL)
	}
	fmt.Fprintf(w, "  reliability: %s\n", credenceString(s.Reliability))
	fmt.Fprintf(w, "  claims:      %s\n", joinOr(s.ClaimIDs, "-"))
	if s.BiasNotes != "" {
		fmt.Fprintf(w, "  bias:        %s\n", s.BiasNotes)
	}
	fmt.Fprintf(w, "  embedded:    %s\n", embedded(s.Embedding))
}

func printSources(w io.Writer, sources []*model.Source) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tYEAR\tCLAIMS\tTITLE")
	for _, s := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Type, yearString(s.Year), len(s.ClaimIDs), truncate(s.Title, 60))
	}
	_ = tw.Flush()
}

func printChain(w io.Writer, ch *model.Chain) {
	fmt.Fprintf(w, "%s  %s  credence %s\n", ch.ID, ch.ScoringMethod, credenceString(ch.Credence))
	fmt.Fprintf(w, "  %s\n", ch.Name)
	if ch.Thesis != "" {
		fmt.Fprintf(w, "  thesis:      %s\n", ch.Thesis)
	}
	fmt.Fprintf(w, "  claims:      %s\n", strings.Join(ch.ClaimIDs, " -> "))
	if ch.WeakestLink != "" {
		fmt.Fprintf(w, "  weakest:     %s\n", ch.WeakestLink)
	}
	fmt.Fprintf(w, "  embedded:    %s\n", embedded(ch.Embedding))
}

func printChains(w io.Writer, chains []*model.Chain) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tMETHOD\tCREDENCE\tCLAIMS\tNAME")
	for _, ch := range chains {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", ch.ID, ch.ScoringMethod, credenceString(ch.Credence), len(ch.ClaimIDs), truncate(ch.Name, 60))
	}
	_ = tw.Flush()
}

func printPrediction(w io.Writer, p *model.Prediction) {
	fmt.Fprintf(w, "%s  %s  claim %s\n", p.ID, p.Status, p.ClaimID)
	if p.SourceID != "" {
		fmt.Fprintf(w, "  source:      %s\n", p.SourceID)
	}
	if p.TargetDate != "" {
		fmt.Fprintf(w, "  target:      %s\n", p.TargetDate)
	}
	if p.ResolutionDate != "" {
		fmt.Fprintf(w, "  resolved:    %s\n", p.ResolutionDate)
	}
	if p.FalsificationCriteria != "" {
		fmt.Fprintf(w, "  falsified if: %s\n", p.FalsificationCriteria)
	}
	for _, u := range p.EvidenceUpdates {
		fmt.Fprintf(w, "  %s  %s\n", u.Date, u.Note)
	}
}

func printPredictions(w io.Writer, preds []*model.Prediction) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tCLAIM\tTARGET")
	for _, p := range preds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Status, p.ClaimID, p.TargetDate)
	}
	_ = tw.Flush()
}

func printContradiction(w io.Writer, c *model.Contradiction) {
	fmt.Fprintf(w, "%s  %s  %s vs %s\n", c.ID, c.Status, c.ClaimA, c.ClaimB)
	if c.ConflictType != "" {
		fmt.Fprintf(w, "  conflict:    %s\n", c.ConflictType)
	}
	if c.LikelyCause != "" {
		fmt.Fprintf(w, "  cause:       %s\n", c.LikelyCause)
	}
	if c.ResolutionPath != "" {
		fmt.Fprintf(w, "  resolution:  %s\n", c.ResolutionPath)
	}
}

func printContradictions(w io.Writer, cs []*model.Contradiction) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tCONFLICT\tCLAIM A\tCLAIM B")
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Status, c.ConflictType, c.ClaimA, c.ClaimB)
	}
	_ = tw.Flush()
}

func printDefinition(w io.Writer, d *model.Definition) {
	fmt.Fprintf(w, "%s", d.Term)
	if d.Domain != "" {
		fmt.Fprintf(w, "  %s", d.Domain)
	}
	fmt.Fprintf(w, "\n  %s\n", d.Definition)
	if d.OperationalProxy != "" {
		fmt.Fprintf(w, "  proxy:       %s\n", d.OperationalProxy)
	}
	if d.Notes != "" {
		fmt.Fprintf(w, "  notes:       %s\n", d.Notes)
	}
}

func printDefinitions(w io.Writer, ds []*model.Definition) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TERM\tDOMAIN\tDEFINITION")
	for _, d := range ds {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Term, d.Domain, truncate(d.Definition, 60))
	}
	_ = tw.Flush()
}

func printHits[T storage.Record](w io.Writer, hits []storage.Hit[T], label func(T) string) {
	tw := newTable(w)
	fmt.Fprintln(tw, "SCORE\tID\t")
	for _, h := range hits {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\n", h.Score, h.Record.RecordID(), truncate(label(h.Record), 70))
	}
	_ = tw.Flush()
}

func printScore(w io.Writer, id string, s score.ChainScore) {
	fmt.Fprintf(w, "%s  %s\n", id, s.Method)
	fmt.Fprintf(w, "  credence:    %s\n", credenceString(s.Credence))
	fmt.Fprintf(w, "  range:       %.2f .. %.2f\n", s.Min, s.Max)
	if s.WeakestLink != "" {
		fmt.Fprintf(w, "  weakest:     %s\n", s.WeakestLink)
	}
	fmt.Fprintf(w, "  resolved:    %d\n", s.Resolved)
	if len(s.Missing) > 0 {
		fmt.Fprintf(w, "  missing:     %s\n", strings.Join(s.Missing, ", "))
	}
	fmt.Fprintf(w, "  formula:     %s\n", s.Formula)
}

func printReport(w io.Writer, r model.Report) {
	for _, is := range r.Issues {
		loc := string(is.Kind)
		if is.RecordID != "" {
			loc += " " + is.RecordID
		}
		if is.Field != "" {
			loc += "." + is.Field
		}
		fmt.Fprintf(w, "%-7s %-32s %s: %s\n", strings.ToUpper(string(is.Severity)), is.Code, loc, is.Message)
	}
	if len(r.Issues) > 0 {
		fmt.Fprintln(w)
	}
	status := "PASS"
	if !r.OK {
		status = "FAIL"
	}
	mode := ""
	if r.Strict {
		mode = " (strict)"
	}
	fmt.Fprintf(w, "%s%s: %d errors, %d warnings across %d sources, %d claims, %d chains, %d predictions\n",
		status, mode, r.ErrorCount, r.WarningCount,
		r.Checked.Sources, r.Checked.Claims, r.Checked.Chains, r.Checked.Predictions)
}

func printOutcomes(w io.Writer, out []model.Outcome) {
	for _, o := range out {
		switch {
		case o.OK:
			fmt.Fprintf(w, "ok      %-12s %s\n", o.Kind, o.ID)
		case o.Skipped:
			fmt.Fprintf(w, "skipped %-12s %s: %s\n", o.Kind, o.ID, o.Error)
		default:
			fmt.Fprintf(w, "failed  %-12s %s: %s\n", o.Kind, o.ID, o.Error)
		}
	}
}
