package registry

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/ids"
	"github.com/lhl/realitycheck/internal/model"
)

// AddContradiction validates and stores a conflict between two claims,
// assigning CONTRA-YYYY-NNN when no ID is given. Status defaults to open.
// Unknown claims are reported by Validate, not refused here.
func (r *Registry) AddContradiction(ctx context.Context, in *model.Contradiction) (*model.Contradiction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *in
	c.Normalize()

	if c.ID == "" {
		prefix, err := ids.Prefix(model.KindContradiction, "", r.year())
		if err != nil {
			return nil, err
		}
		existing, err := r.contradictions.IDs(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if c.ID, err = ids.Next(existing, prefix); err != nil {
			return nil, err
		}
	}

	if err := save(ctx, r, r.contradictions, &c); err != nil {
		return nil, err
	}

	r.logger.Debug("Contradiction added",
		zap.String("id", c.ID),
		zap.String("claim_a", c.ClaimA),
		zap.String("claim_b", c.ClaimB))
	return &c, nil
}

// GetContradiction returns a contradiction or a *NotFoundError
func (r *Registry) GetContradiction(ctx context.Context, id string) (*model.Contradiction, error) {
	return r.contradictions.Get(ctx, id)
}

// UpdateContradiction applies a patch of mutable fields, e.g. to resolve it
func (r *Registry) UpdateContradiction(ctx context.Context, id string, patch Patch) (*model.Contradiction, error) {
	return update(ctx, r, r.contradictions, id, patch)
}

// ListContradictions returns contradictions matching filter in insertion
// order
func (r *Registry) ListContradictions(ctx context.Context, filter map[string]any, limit int) ([]*model.Contradiction, error) {
	return r.contradictions.List(ctx, filter, limit)
}

// AddDefinition stores a working definition keyed by its term. Adding an
// existing term replaces the definition.
func (r *Registry) AddDefinition(ctx context.Context, in *model.Definition) (*model.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := *in
	d.Term = strings.TrimSpace(d.Term)
	d.Normalize()

	if err := save(ctx, r, r.definitions, &d); err != nil {
		return nil, err
	}

	r.logger.Debug("Definition added", zap.String("term", d.Term), zap.String("domain", string(d.Domain)))
	return &d, nil
}

// GetDefinition returns the definition of term or a *NotFoundError
func (r *Registry) GetDefinition(ctx context.Context, term string) (*model.Definition, error) {
	return r.definitions.Get(ctx, term)
}

// UpdateDefinition applies a patch of mutable fields
func (r *Registry) UpdateDefinition(ctx context.Context, term string, patch Patch) (*model.Definition, error) {
	return update(ctx, r, r.definitions, term, patch)
}

// ListDefinitions returns definitions matching filter in insertion order
func (r *Registry) ListDefinitions(ctx context.Context, filter map[string]any, limit int) ([]*model.Definition, error) {
	return r.definitions.List(ctx, filter, limit)
}
