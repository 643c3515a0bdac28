// Package registry is the public operation surface over the record store.
// It assigns IDs, validates, embeds and persists one record at a time, and
// runs the batch passes (validation, reconcile, re-embedding, import) that
// restore cross-table consistency.
//
// One Registry is the single writer of its database: writes are
// serialised by a mutex, reads run concurrently. Other processes writing
// the same database are not guarded against.
package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/embed"
	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/logger"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/score"
	"github.com/lhl/realitycheck/internal/storage"
	"github.com/lhl/realitycheck/internal/validate"
)

// DefaultEmbedTimeout bounds one embedding call made during a write
const DefaultEmbedTimeout = 30 * time.Second

// Embedder maps text to a vector. Failures should be marked with
// errors.ErrEmbeddingUnavailable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// record is what every entity kind provides to the generic write path
type record interface {
	storage.Record
	EmbeddingText() string
	Created() time.Time
	Touch(created, updated time.Time)
	Normalize()
}

// Registry composes storage, validation, ID generation and embedding
type Registry struct {
	engine      *storage.Engine
	sources     *storage.Table[*model.Source]
	claims      *storage.Table[*model.Claim]
	chains      *storage.Table[*model.Chain]
	predictions *storage.Table[*model.Prediction]

	contradictions *storage.Table[*model.Contradiction]
	definitions    *storage.Table[*model.Definition]

	embedder     Embedder
	validator    *validate.Validator
	scorer       *score.Scorer
	logger       *zap.Logger
	now          func() time.Time
	embedTimeout time.Duration
	workers      int

	mu sync.Mutex // Serialises writes
}

// Option configures a Registry
type Option func(*Registry)

// WithClock replaces time.Now, which also fixes the year used in new IDs
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithEmbedTimeout bounds each embedding call made during a write
func WithEmbedTimeout(d time.Duration) Option {
	return func(r *Registry) { r.embedTimeout = d }
}

// WithWorkers sets the concurrency of batch re-embedding
func WithWorkers(n int) Option {
	return func(r *Registry) { r.workers = n }
}

// New creates a registry over an open engine. A nil embedder disables
// embedding: records are stored with a null vector.
func New(engine *storage.Engine, embedder Embedder, log *zap.Logger, opts ...Option) (*Registry, error) {
	if embedder == nil {
		embedder = &embed.DisabledProvider{Reason: "no embedder configured"}
	}
	r := &Registry{
		engine:       engine,
		embedder:     embedder,
		validator:    validate.NewValidator(),
		scorer:       score.NewScorer(),
		logger:       logger.OrNop(log),
		now:          time.Now,
		embedTimeout: DefaultEmbedTimeout,
		workers:      4,
	}
	for _, opt := range opts {
		opt(r)
	}

	var err error
	if r.sources, err = storage.NewTable(engine, model.KindSource, func() *model.Source { return &model.Source{} }); err != nil {
		return nil, err
	}
	if r.claims, err = storage.NewTable(engine, model.KindClaim, func() *model.Claim { return &model.Claim{} }); err != nil {
		return nil, err
	}
	if r.chains, err = storage.NewTable(engine, model.KindChain, func() *model.Chain { return &model.Chain{} }); err != nil {
		return nil, err
	}
	if r.predictions, err = storage.NewTable(engine, model.KindPrediction, func() *model.Prediction { return &model.Prediction{} }); err != nil {
		return nil, err
	}
	if r.contradictions, err = storage.NewTable(engine, model.KindContradiction, func() *model.Contradiction { return &model.Contradiction{} }); err != nil {
		return nil, err
	}
	if r.definitions, err = storage.NewTable(engine, model.KindDefinition, func() *model.Definition { return &model.Definition{} }); err != nil {
		return nil, err
	}
	return r, nil
}

// Open opens the database named by cfg and builds its embedder. A
// misconfigured embedder is logged and replaced by a disabled one, so
// writes keep working.
func Open(cfg model.Config, log *zap.Logger) (*Registry, error) {
	log = logger.OrNop(log)

	engine, err := storage.Open(cfg.Data.Path, storage.Options{Dim: cfg.Embedding.Dim, Logger: log})
	if err != nil {
		return nil, err
	}

	var embedder Embedder
	provider, err := embed.New(cfg.Embedding, log)
	if err != nil {
		log.Warn("Embedding provider unavailable, records will be stored without vectors", zap.Error(err))
		embedder = &embed.DisabledProvider{Reason: err.Error()}
	} else {
		embedder = provider
	}

	r, err := New(engine, embedder, log,
		WithEmbedTimeout(cfg.Embedding.Timeout),
		WithWorkers(cfg.Embedding.Workers))
	if err != nil {
		engine.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the database
func (r *Registry) Close() error {
	return r.engine.Close()
}

// Path returns the database file
func (r *Registry) Path() string {
	return r.engine.Path()
}

func (r *Registry) year() int {
	return r.now().Year()
}

// save runs the shared tail of add: keep created_at and version of an
// existing record with the same ID, validate, embed and upsert. The caller
// holds r.mu.
func save[T record](ctx context.Context, r *Registry, tbl *storage.Table[T], rec T) error {
	kind := tbl.Kind()
	now := r.now().UTC()
	created, revision := now, 1
	old, err := tbl.Get(ctx, rec.RecordID())
	switch {
	case err == nil:
		created = old.Created()
		if v, ok := any(old).(versioned); ok {
			revision = v.Revision()
		}
	case !errors.IsNotFound(err):
		return err
	}
	rec.Touch(created, now)
	if v, ok := any(rec).(versioned); ok {
		v.SetRevision(revision)
	}

	if err := r.check(kind, rec); err != nil {
		return err
	}
	r.attachEmbedding(ctx, kind, rec, false)
	return tbl.Put(ctx, rec)
}

// check runs structural and logical validation. Warnings are logged, errors
// block the write.
func (r *Registry) check(kind model.Kind, rec record) error {
	issues, err := r.validator.Record(kind, rec)
	if err != nil {
		return err
	}
	for _, is := range issues {
		if !is.IsError() {
			r.logger.Debug("Validation warning",
				zap.String("kind", string(kind)),
				zap.String("id", rec.RecordID()),
				zap.String("code", is.Code))
		}
	}
	return errors.NewValidationError(kind, rec.RecordID(), issues)
}

// attachEmbedding fills the record's vector from its embedding text. A
// caller-supplied vector of the right length is kept unless recompute is
// set. Every failure degrades to a null vector and a warning.
func (r *Registry) attachEmbedding(ctx context.Context, kind model.Kind, rec record, recompute bool) {
	dim := r.engine.Dim()
	if vec := rec.Vector(); len(vec) > 0 && !recompute {
		if dim == 0 || len(vec) == dim {
			return
		}
		r.logger.Warn("Discarding supplied embedding of wrong length",
			zap.String("kind", string(kind)),
			zap.String("id", rec.RecordID()),
			zap.Int("got", len(vec)),
			zap.Int("want", dim))
		rec.SetVector(nil)
		return
	}

	text := rec.EmbeddingText()
	if strings.TrimSpace(text) == "" {
		rec.SetVector(nil)
		return
	}

	vec, err := r.embed(ctx, text)
	if err == nil && dim > 0 && len(vec) != dim {
		err = errors.Wrapf(errors.ErrDimensionMismatch, "got %d values, want %d", len(vec), dim)
	}
	if err != nil {
		r.logger.Warn("Embedding unavailable, storing without vector",
			zap.String("kind", string(kind)),
			zap.String("id", rec.RecordID()),
			zap.Error(err))
		rec.SetVector(nil)
		return
	}
	rec.SetVector(vec)
}

func (r *Registry) embed(ctx context.Context, text string) ([]float32, error) {
	if r.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.embedTimeout)
		defer cancel()
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		if !errors.IsEmbeddingUnavailable(err) {
			err = errors.Mark(err, errors.ErrEmbeddingUnavailable)
		}
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errors.Wrap(errors.ErrEmbeddingUnavailable, "empty vector")
	}
	return vec, nil
}

// queryVector embeds a search query; unlike writes, failure is returned
func (r *Registry) queryVector(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search: empty query")
	}
	vec, err := r.embed(ctx, query)
	if err != nil {
		return nil, errors.WithHint(err, "search needs a working embedding provider")
	}
	return vec, nil
}
