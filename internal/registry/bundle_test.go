package registry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lhl/realitycheck/internal/model"
)

const sampleBundle = `
sources:
  - id: epoch-2024-training
    title: Training Compute Trends
    type: REPORT
    year: 2024
    author: [Epoch AI]
claims:
  - text: Frontier training compute grows roughly 4x per year
    type: "[F]"
    domain: TECH
    evidence_level: E2
    credence: 0.8
    source_ids: [epoch-2024-training]
  - text: Compute growth continues through 2030
    type: "[P]"
    domain: TECH
    evidence_level: E4
    credence: 0.5
    source_ids: [epoch-2024-training]
  - id: TECH-2026-050
    text: broken
    type: "[F]"
    domain: ECON
    evidence_level: E2
    credence: 0.5
chains:
  - name: Compute scaling
    claim_ids: [TECH-2026-001, TECH-2026-002]
predictions:
  - claim_id: TECH-2026-002
    status: "[P→]"
    source_id: epoch-2024-training
    target_date: "2030-12-31"
contradictions:
  - claim_a: TECH-2026-001
    claim_b: TECH-2026-002
    conflict_type: timescale
    likely_cause: Measured growth versus a forecast horizon
definitions:
  - term: frontier model
    definition: A model at or near the largest training compute of its year
    operational_proxy: Within 4x of the largest known training run
    domain: TECH
`

func TestImport(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	b, err := DecodeBundle(strings.NewReader(sampleBundle))
	require.NoError(t, err)
	require.Equal(t, 8, b.Len())

	outcomes := r.Import(ctx, b)
	require.Len(t, outcomes, 8)
	ok, failed := Outcomes(outcomes)
	assert.Equal(t, 7, ok)
	assert.Equal(t, 1, failed)

	assert.Equal(t, model.Outcome{Kind: model.KindClaim, ID: "TECH-2026-002", OK: true}, outcomes[2])
	assert.False(t, outcomes[3].OK)
	assert.Equal(t, "TECH-2026-050", outcomes[3].ID)
	assert.Contains(t, outcomes[3].Error, "CLAIM_DOMAIN_MISMATCH")
	assert.Equal(t, "CHAIN-2026-001", outcomes[4].ID)
	assert.Equal(t, "PRED-2026-001", outcomes[5].ID)
	assert.Equal(t, model.Outcome{Kind: model.KindContradiction, ID: "CONTRA-2026-001", OK: true}, outcomes[6])
	assert.Equal(t, model.Outcome{Kind: model.KindDefinition, ID: "frontier model", OK: true}, outcomes[7])

	ch, err := r.GetChain(ctx, "CHAIN-2026-001")
	require.NoError(t, err)
	require.NotNil(t, ch.Credence)
	assert.Equal(t, 0.5, *ch.Credence)

	report, err := r.Validate(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.OK, "%v", codes(report.Issues))
}

func TestDecodeBundle_RejectsUnknownKeys(t *testing.T) {
	_, err := DecodeBundle(strings.NewReader("claims:\n  - txt: typo\n"))
	assert.Error(t, err)

	empty, err := DecodeBundle(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestRegistry(t, nil)

	b, err := DecodeBundle(strings.NewReader(sampleBundle))
	require.NoError(t, err)
	src.Import(ctx, b)

	exported, err := src.Export(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, yaml.NewEncoder(&buf).Encode(exported))

	again, err := DecodeBundle(&buf)
	require.NoError(t, err)

	dst := newTestRegistry(t, nil)
	for _, o := range dst.Import(ctx, again) {
		assert.True(t, o.OK, "%s %s: %s", o.Kind, o.ID, o.Error)
	}

	want, err := src.Stats(ctx)
	require.NoError(t, err)
	got, err := dst.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Counts, got.Counts)
	assert.Equal(t, 1, got.Counts.Contradictions)
	assert.Equal(t, 1, got.Counts.Definitions)

	s, err := dst.GetSource(ctx, "epoch-2024-training")
	require.NoError(t, err)
	assert.Equal(t, []string{"TECH-2026-001", "TECH-2026-002"}, s.ClaimIDs)
}
