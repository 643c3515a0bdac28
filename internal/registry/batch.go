package registry

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/storage"
	"github.com/lhl/realitycheck/internal/validate"
	"github.com/lhl/realitycheck/internal/worker"
)

// Snapshot loads every table
func (r *Registry) Snapshot(ctx context.Context) (validate.Snapshot, error) {
	var (
		snap        validate.Snapshot
		sources     []*model.Source
		claims      []*model.Claim
		chains      []*model.Chain
		predictions []*model.Prediction

		contradictions []*model.Contradiction
		definitions    []*model.Definition
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { sources, err = r.sources.List(gctx, nil, 0); return })
	g.Go(func() (err error) { claims, err = r.claims.List(gctx, nil, 0); return })
	g.Go(func() (err error) { chains, err = r.chains.List(gctx, nil, 0); return })
	g.Go(func() (err error) { predictions, err = r.predictions.List(gctx, nil, 0); return })
	g.Go(func() (err error) { contradictions, err = r.contradictions.List(gctx, nil, 0); return })
	g.Go(func() (err error) { definitions, err = r.definitions.List(gctx, nil, 0); return })
	if err := g.Wait(); err != nil {
		return snap, errors.Wrap(err, "load snapshot")
	}

	snap.Sources = deref(sources)
	snap.Claims = deref(claims)
	snap.Chains = deref(chains)
	snap.Predictions = deref(predictions)
	snap.Contradictions = deref(contradictions)
	snap.Definitions = deref(definitions)
	return snap, nil
}

// Validate runs the full batch pass (structural, logical and referential)
// and returns its report. The report is never an error; strict only
// changes how OK is computed.
func (r *Registry) Validate(ctx context.Context, strict bool) (model.Report, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return model.Report{}, err
	}
	report := model.NewReport(r.validator.All(snap), snap.Counts(), strict)

	r.logger.Debug("Validation finished",
		zap.Bool("ok", report.OK),
		zap.Int("errors", report.ErrorCount),
		zap.Int("warnings", report.WarningCount))
	return report, nil
}

// ValidateReferential returns only the cross-table issues
func (r *Registry) ValidateReferential(ctx context.Context) ([]model.Issue, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	issues := r.validator.Referential(snap)
	if issues == nil {
		issues = []model.Issue{}
	}
	return issues, nil
}

// Reconcile rewrites every source's claim_ids to the set of claims citing
// it and returns the IDs of the sources that changed
func (r *Registry) Reconcile(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claims, err := r.claims.List(ctx, nil, 0)
	if err != nil {
		return nil, err
	}
	sources, err := r.sources.List(ctx, nil, 0)
	if err != nil {
		return nil, err
	}
	citing := validate.Citations(deref(claims))

	changed := []string{}
	for _, s := range sources {
		want := citing[s.ID]
		if want == nil {
			want = []string{}
		}
		if validate.SameSet(s.ClaimIDs, want) && len(s.ClaimIDs) == len(want) {
			continue
		}
		s.ClaimIDs = want
		s.Touch(s.CreatedAt, r.now().UTC())
		if err := r.sources.Put(ctx, s); err != nil {
			return changed, err
		}
		changed = append(changed, s.ID)
	}

	r.logger.Debug("Reconciled back-references", zap.Strings("changed", changed))
	return changed, nil
}

// Stats reports table sizes and how many records lack an embedding
func (r *Registry) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	var err error
	if st.Counts.Sources, err = r.sources.Count(ctx); err != nil {
		return st, err
	}
	if st.Counts.Claims, err = r.claims.Count(ctx); err != nil {
		return st, err
	}
	if st.Counts.Chains, err = r.chains.Count(ctx); err != nil {
		return st, err
	}
	if st.Counts.Predictions, err = r.predictions.Count(ctx); err != nil {
		return st, err
	}
	if st.Counts.Contradictions, err = r.contradictions.Count(ctx); err != nil {
		return st, err
	}
	if st.Counts.Definitions, err = r.definitions.Count(ctx); err != nil {
		return st, err
	}
	if st.ClaimsMissingEmbed, err = r.claims.CountMissingEmbedding(ctx); err != nil {
		return st, err
	}
	if st.SourcesMissingEmbed, err = r.sources.CountMissingEmbedding(ctx); err != nil {
		return st, err
	}
	if st.ChainsMissingEmbed, err = r.chains.CountMissingEmbedding(ctx); err != nil {
		return st, err
	}
	return st, nil
}

// Reset empties one table. It refuses unless confirmed.
func (r *Registry) Reset(ctx context.Context, kind model.Kind, confirmed bool) error {
	if !confirmed {
		return errors.WithHint(
			errors.Wrapf(errors.ErrConfirmationRequired, "reset %s", kind),
			"pass --yes to delete every record in the table")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Reset(ctx, kind)
}

// Reembed regenerates embeddings for one kind through the worker pool.
// With onlyMissing, records that already have a vector are skipped. One
// outcome per attempted record; a failed record never stops the batch.
func (r *Registry) Reembed(ctx context.Context, kind model.Kind, onlyMissing bool) ([]model.Outcome, error) {
	switch kind {
	case model.KindClaim:
		return reembed(ctx, r, r.claims, onlyMissing)
	case model.KindSource:
		return reembed(ctx, r, r.sources, onlyMissing)
	case model.KindChain:
		return reembed(ctx, r, r.chains, onlyMissing)
	case model.KindPrediction, model.KindContradiction, model.KindDefinition:
		return []model.Outcome{}, nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownTable, "%q", kind)
}

func reembed[T record](ctx context.Context, r *Registry, tbl *storage.Table[T], onlyMissing bool) ([]model.Outcome, error) {
	var (
		records []T
		err     error
	)
	if onlyMissing {
		records, err = tbl.MissingEmbedding(ctx)
	} else {
		records, err = tbl.List(ctx, nil, 0)
	}
	if err != nil {
		return nil, err
	}

	items := make([]worker.EmbedItem, 0, len(records))
	for _, rec := range records {
		if text := rec.EmbeddingText(); text != "" {
			items = append(items, worker.EmbedItem{Kind: tbl.Kind(), ID: rec.RecordID(), Text: text})
		}
	}

	embedder := embedFunc(func(ctx context.Context, text string) ([]float32, error) { return r.embed(ctx, text) })
	results := worker.NewBatchProcessor(embedder, r.workers).Process(ctx, items)

	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes := make([]model.Outcome, 0, len(results))
	dim := r.engine.Dim()
	for _, res := range results {
		out := model.Outcome{Kind: res.Item.Kind, ID: res.Item.ID}
		err := res.Error
		if err == nil && dim > 0 && len(res.Vector) != dim {
			err = errors.Wrapf(errors.ErrDimensionMismatch, "got %d values, want %d", len(res.Vector), dim)
		}
		if err == nil {
			err = storeVector(ctx, tbl, res.Item, res.Vector)
		}
		switch {
		case errors.Is(err, errors.ErrStaleText):
			out.Skipped = true
			out.Error = err.Error()
			r.logger.Info("Re-embedding skipped",
				zap.String("kind", string(res.Item.Kind)),
				zap.String("id", res.Item.ID),
				zap.Error(err))
		case err != nil:
			out.Error = err.Error()
			r.logger.Warn("Re-embedding failed",
				zap.String("kind", string(res.Item.Kind)),
				zap.String("id", res.Item.ID),
				zap.Error(err))
		default:
			out.OK = true
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// storeVector replaces the vector of the current stored version, so edits
// made while the batch ran are kept. A vector computed from text that has
// since changed is not stored.
func storeVector[T record](ctx context.Context, tbl *storage.Table[T], item worker.EmbedItem, vec []float32) error {
	rec, err := tbl.Get(ctx, item.ID)
	if err != nil {
		return err
	}
	if rec.EmbeddingText() != item.Text {
		return errors.Wrapf(errors.ErrStaleText, "%s %s", item.Kind, item.ID)
	}
	rec.SetVector(vec)
	return tbl.Put(ctx, rec)
}

type embedFunc func(ctx context.Context, text string) ([]float32, error)

func (f embedFunc) Embed(ctx context.Context, text string) ([]float32, error) { return f(ctx, text) }
