package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/registry"
	"github.com/lhl/realitycheck/internal/schema"
)

// setup points the CLI at a fresh database with embedding disabled
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv("REALITYCHECK_DATA", filepath.Join(dir, "db"))
	t.Setenv("REALITYCHECK_EMBED_SKIP", "1")
	return dir
}

// run executes the CLI with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default; cobra keeps values
// between executions of the same command tree
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "realitycheck %s", strings.Join(args, " "))
	return out
}

func addSource(t *testing.T) {
	t.Helper()
	mustRun(t, "source", "add",
		"--id", "epoch-2024-training",
		"--title", "Training compute of frontier models",
		"--type", "REPORT",
		"--year", "2024",
		"--author", "Epoch AI")
}

func addClaim(t *testing.T, extra ...string) model.Claim {
	t.Helper()
	args := append([]string{"claim", "add", "-o", "json",
		"--text", "Training compute for frontier models doubles roughly every six months",
		"--type", "[F]",
		"--domain", "TECH",
		"--evidence", "E2",
		"--credence", "0.8"}, extra...)
	var c model.Claim
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, args...)), &c))
	return c
}

func TestVersion(t *testing.T) {
	setup(t)
	out := mustRun(t, "version")
	assert.Equal(t, "realitycheck v"+Version+"\n", out)
}

func TestClaimLifecycle(t *testing.T) {
	setup(t)
	addSource(t)

	c := addClaim(t, "--sources", "epoch-2024-training")
	assert.Regexp(t, regexp.MustCompile(`^TECH-\d{4}-001$`), c.ID)
	assert.Equal(t, []string{"epoch-2024-training"}, c.SourceIDs)
	assert.Nil(t, c.Embedding)

	out := mustRun(t, "claim", "get", c.ID)
	assert.Contains(t, out, c.Text)
	assert.Contains(t, out, "embedded:    no")

	var src model.Source
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "source", "get", "epoch-2024-training", "-o", "json")), &src))
	assert.Equal(t, []string{c.ID}, src.ClaimIDs, "adding a claim links its source")

	var updated model.Claim
	out = mustRun(t, "claim", "update", c.ID, "--set", "credence=0.6", "--set", "notes=revised after review", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	require.NotNil(t, updated.Credence)
	assert.Equal(t, 0.6, *updated.Credence)
	assert.Equal(t, 2, updated.Version)

	_, err := run(t, "claim", "update", c.ID, "--set", "domain=ECON")
	var im *errors.ImmutableFieldError
	require.True(t, errors.As(err, &im))
	assert.Equal(t, errors.ExitInput, errors.ExitCode(err))

	second := addClaim(t, "--text", "Inference cost per token falls every year", "--domain", "ECON")
	assert.Regexp(t, regexp.MustCompile(`^ECON-\d{4}-001$`), second.ID)

	var tech []*model.Claim
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "claim", "list", "--filter", "domain=TECH", "-o", "json")), &tech))
	require.Len(t, tech, 1)
	assert.Equal(t, c.ID, tech[0].ID)

	out = mustRun(t, "claim", "list")
	assert.Contains(t, out, c.ID)
	assert.Contains(t, out, second.ID)

	mustRun(t, "validate")
}

func TestAddRejectsInvalidRecord(t *testing.T) {
	setup(t)

	_, err := run(t, "claim", "add",
		"--text", "Out of range",
		"--type", "[F]",
		"--domain", "TECH",
		"--evidence", "E2",
		"--credence", "1.5")
	require.Error(t, err)
	assert.Equal(t, errors.ExitValidation, errors.ExitCode(err))

	var claims []*model.Claim
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "claim", "list", "-o", "json")), &claims))
	assert.Empty(t, claims, "a rejected record is not stored")

	_, err = run(t, "claim", "add", "--credence", "high")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestAddFromFile(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "claim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
text: Grid storage costs fall faster than forecast
type: "[T]"
domain: RESOURCE
evidence_level: E3
credence: 0.55
`), 0644))

	var c model.Claim
	out := mustRun(t, "claim", "add", "--from", path, "--credence", "0.6", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, model.DomainResource, c.Domain)
	require.NotNil(t, c.Credence)
	assert.Equal(t, 0.6, *c.Credence, "flags override the file")

	require.NoError(t, os.WriteFile(path, []byte("text: x\nconfidence: 0.5\n"), 0644))
	_, err := run(t, "claim", "add", "--from", path)
	assert.Error(t, err, "unknown keys are rejected")
}

func TestUpdateFromFileReportsIssues(t *testing.T) {
	dir := setup(t)
	c := addClaim(t)

	path := filepath.Join(dir, "patch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("credence: \"0.5\"\n"), 0644))
	_, err := run(t, "claim", "update", c.ID, "--from", path)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve), "%v", err)
	require.Len(t, ve.Issues, 1)
	assert.Equal(t, "CLAIM_CREDENCE_WRONG_TYPE", ve.Issues[0].Code)
	assert.Equal(t, errors.ExitValidation, errors.ExitCode(err))

	var stored model.Claim
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "claim", "get", c.ID, "-o", "json")), &stored))
	require.NotNil(t, stored.Credence)
	assert.Equal(t, 0.8, *stored.Credence)
	assert.Equal(t, 1, stored.Version)
}

func TestGetNotFound(t *testing.T) {
	setup(t)
	_, err := run(t, "claim", "get", "TECH-2026-404")
	require.Error(t, err)
	assert.Equal(t, errors.ExitNotFound, errors.ExitCode(err))
}

func TestChainAndPrediction(t *testing.T) {
	setup(t)
	addSource(t)
	c := addClaim(t, "--sources", "epoch-2024-training", "--credence", "0.7", "--type", "[P]")

	var ch model.Chain
	out := mustRun(t, "chain", "add", "-o", "json",
		"--name", "Compute drives capability",
		"--thesis", "Capability gains follow compute",
		"--claims", c.ID,
		"--scoring", "MIN")
	require.NoError(t, json.Unmarshal([]byte(out), &ch))
	require.NotNil(t, ch.Credence)
	assert.Equal(t, 0.7, *ch.Credence, "credence is derived from the weakest claim")
	assert.Equal(t, c.ID, ch.WeakestLink)

	out = mustRun(t, "chain", "score", ch.ID)
	assert.Contains(t, out, "weakest:     "+c.ID)

	var p model.Prediction
	out = mustRun(t, "prediction", "add", "-o", "json",
		"--claim", c.ID,
		"--source", "epoch-2024-training",
		"--status", "[P→]",
		"--target-date", "2027-12-31")
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Regexp(t, regexp.MustCompile(`^PRED-\d{4}-001$`), p.ID)

	out = mustRun(t, "pred", "update", p.ID, "--set", "status=[P+]", "--set", "resolution_date=2027-06-01", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, model.PredictionStatus("[P+]"), p.Status)

	var rel registry.Relationships
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "relationships", c.ID, "-o", "json")), &rel))
	assert.Equal(t, []string{ch.ID}, rel.Chains)
	assert.Equal(t, []string{p.ID}, rel.Predictions)
}

func TestContradictionAndDefinition(t *testing.T) {
	setup(t)
	a := addClaim(t)
	b := addClaim(t, "--text", "Frontier training compute growth has slowed")

	var c model.Contradiction
	out := mustRun(t, "contradiction", "add", "-o", "json",
		"--claim-a", a.ID,
		"--claim-b", b.ID,
		"--conflict", "timescale")
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Regexp(t, regexp.MustCompile(`^CONTRA-\d{4}-001$`), c.ID)
	assert.Equal(t, model.ContradictionOpen, c.Status)

	out = mustRun(t, "contra", "update", c.ID, "--set", "status=resolved", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, model.ContradictionResolved, c.Status)

	_, err := run(t, "contradiction", "add", "--claim-a", a.ID, "--claim-b", a.ID)
	assert.Equal(t, errors.ExitValidation, errors.ExitCode(err))

	var d model.Definition
	out = mustRun(t, "definition", "add", "-o", "json",
		"--term", "frontier model",
		"--definition", "A model at the compute frontier of its year",
		"--domain", "TECH")
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "frontier model", d.Term)

	out = mustRun(t, "def", "get", "frontier model")
	assert.Contains(t, out, "A model at the compute frontier of its year")

	var rel registry.Relationships
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "relationships", b.ID, "-o", "json")), &rel))
	assert.Equal(t, []string{c.ID}, rel.Contradictions)

	var st model.Stats
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "stats", "-o", "json")), &st))
	assert.Equal(t, 1, st.Counts.Contradictions)
	assert.Equal(t, 1, st.Counts.Definitions)

	_, err = run(t, "embed", "--kind", "definitions")
	assert.Error(t, err, "definitions carry no embedding")
}

func TestSearchWithoutEmbeddings(t *testing.T) {
	setup(t)
	addClaim(t)

	_, err := run(t, "search", "compute growth")
	require.Error(t, err)
	assert.True(t, errors.IsEmbeddingUnavailable(err))

	_, err = run(t, "search", "compute", "--kind", "predictions")
	assert.Error(t, err)
}

func TestValidateReportsBrokenReferences(t *testing.T) {
	setup(t)
	addClaim(t, "--sources", "missing-source")

	out, err := run(t, "validate", "--json")
	require.Error(t, err)
	assert.Equal(t, errors.ExitReferential, errors.ExitCode(err))

	var report model.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.OK)
	assert.Equal(t, 1, report.Checked.Claims)
	assert.Positive(t, report.ErrorCount)

	out, err = run(t, "validate", "--referential")
	require.Error(t, err)
	assert.Contains(t, out, "FAIL")
}

func TestImportExport(t *testing.T) {
	dir := setup(t)
	bundle := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(bundle, []byte(`
sources:
  - id: iea-2025-outlook
    title: World Energy Outlook
    type: REPORT
    year: 2025
claims:
  - text: Solar is the cheapest new electricity in most markets
    type: "[F]"
    domain: RESOURCE
    evidence_level: E2
    credence: 0.85
    source_ids: [iea-2025-outlook]
  - text: Missing evidence level
    type: "[F]"
    domain: RESOURCE
    credence: 0.5
`), 0644))

	out, err := run(t, "import", bundle)
	require.Error(t, err, "one record fails")
	assert.Equal(t, errors.ExitValidation, errors.ExitCode(err))
	assert.Contains(t, out, "Imported 2 records, 1 failed")

	exported := filepath.Join(dir, "export.yaml")
	mustRun(t, "export", "--out", exported)
	b, err := registry.LoadBundle(exported)
	require.NoError(t, err)
	assert.Len(t, b.Sources, 1)
	assert.Len(t, b.Claims, 1)
	assert.Equal(t, []string{b.Claims[0].ID}, b.Sources[0].ClaimIDs)

	var st model.Stats
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "stats", "-o", "json")), &st))
	assert.Equal(t, 1, st.Counts.Claims)
	assert.Equal(t, 1, st.ClaimsMissingEmbed)
}

func TestResetAndRepair(t *testing.T) {
	setup(t)
	addSource(t)
	c := addClaim(t, "--sources", "epoch-2024-training")

	mustRun(t, "source", "update", "epoch-2024-training", "--set", "status=reviewed")
	out := mustRun(t, "repair")
	assert.Contains(t, out, "0 sources updated")

	_, err := run(t, "reset", "claims")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfirmationRequired))

	mustRun(t, "reset", "claims", "--yes")
	_, err = run(t, "claim", "get", c.ID)
	assert.True(t, errors.IsNotFound(err))

	out = mustRun(t, "repair")
	assert.Contains(t, out, "updated epoch-2024-training")

	_, err = run(t, "reset", "analyses", "--yes")
	assert.True(t, errors.Is(err, errors.ErrUnknownTable))
}

func TestEmbedReportsFailures(t *testing.T) {
	setup(t)
	addClaim(t)

	out, err := run(t, "embed", "--kind", "claims")
	require.Error(t, err)
	assert.Contains(t, out, "Embedded 0 records, 1 failed")
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "on", "TRUE", "anything"} {
		assert.True(t, truthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", "off", "OFF", " no "} {
		assert.False(t, truthy(v), v)
	}
}

func TestFieldValue(t *testing.T) {
	claims := schema.MustFor(model.KindClaim)
	sources := schema.MustFor(model.KindSource)
	preds := schema.MustFor(model.KindPrediction)

	tests := []struct {
		name  string
		d     *schema.Descriptor
		field string
		raw   string
		want  any
	}{
		{"number", claims, "credence", "0.75", 0.75},
		{"integer", sources, "year", "2024", 2024},
		{"comma list", claims, "source_ids", "a, b,,c", []string{"a", "b", "c"}},
		{"flow list", claims, "supports", "[TECH-2026-001, TECH-2026-002]", []string{"TECH-2026-001", "TECH-2026-002"}},
		{"empty list", claims, "supports", "", []string{}},
		{"bracketed string", preds, "status", "[P~]", "[P~]"},
		{"unknown field", claims, "confidence", "high", "high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fieldValue(tt.d, tt.field, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := fieldValue(sources, "year", "recent")
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	d := schema.MustFor(model.KindSource)

	got, err := parseFilter(d, []string{"year=2024", "type=PAPER"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"year": 2024, "type": "PAPER"}, got)

	_, err = parseFilter(d, []string{"year"})
	assert.Error(t, err)
	_, err = parseFilter(d, []string{"title=x"})
	assert.Error(t, err, "title is not filterable")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := setup(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	out := mustRun(t, "config", "init")
	assert.Contains(t, out, "Created default configuration")
	_, err := os.Stat(filepath.Join(dir, "home", ".realitycheck", "config.yaml"))
	require.NoError(t, err)

	_, err = run(t, "config", "init")
	assert.Error(t, err, "an existing config is not overwritten")

	out = mustRun(t, "config", "show")
	assert.Contains(t, out, "provider: openai")
	assert.Contains(t, out, "skip: true")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "sk-test")
	assert.Contains(t, out, filepath.Join(dir, "db"))
}
