package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/ids"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/storage"
	"github.com/lhl/realitycheck/internal/validate"
)

// AddSource validates and stores a source. Without an ID, a slug is
// derived from title and year. claim_ids gains every stored claim that
// already cites the source.
func (r *Registry) AddSource(ctx context.Context, in *model.Source) (*model.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := *in
	s.Normalize()

	if s.ID == "" {
		existing, err := r.sources.IDs(ctx, "")
		if err != nil {
			return nil, err
		}
		year := 0
		if s.Year != nil {
			year = *s.Year
		}
		s.ID = ids.SourceSlug(s.Title, year, existing)
	}

	claims, err := r.claims.List(ctx, nil, 0)
	if err != nil {
		return nil, err
	}
	for _, cid := range validate.Citations(deref(claims))[s.ID] {
		if !contains(s.ClaimIDs, cid) {
			s.ClaimIDs = append(s.ClaimIDs, cid)
		}
	}

	if err := save(ctx, r, r.sources, &s); err != nil {
		return nil, err
	}

	r.logger.Debug("Source added", zap.String("id", s.ID), zap.Int("claims", len(s.ClaimIDs)))
	return &s, nil
}

// GetSource returns a source or a *NotFoundError
func (r *Registry) GetSource(ctx context.Context, id string) (*model.Source, error) {
	return r.sources.Get(ctx, id)
}

// UpdateSource applies a patch of mutable fields. Changing bias_notes
// re-embeds.
func (r *Registry) UpdateSource(ctx context.Context, id string, patch Patch) (*model.Source, error) {
	return update(ctx, r, r.sources, id, patch)
}

// ListSources returns sources matching filter in insertion order
func (r *Registry) ListSources(ctx context.Context, filter map[string]any, limit int) ([]*model.Source, error) {
	return r.sources.List(ctx, filter, limit)
}

// SearchSources ranks sources by similarity to query text
func (r *Registry) SearchSources(ctx context.Context, query string, k int, filter map[string]any) ([]storage.Hit[*model.Source], error) {
	vec, err := r.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.sources.Search(ctx, vec, k, filter, nil)
}

func deref[T any](in []*T) []T {
	out := make([]T, len(in))
	for i, p := range in {
		out[i] = *p
	}
	return out
}
