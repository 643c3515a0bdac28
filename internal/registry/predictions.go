package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/ids"
	"github.com/lhl/realitycheck/internal/model"
)

// AddPrediction validates and stores a prediction, assigning
// PRED-YYYY-NNN when no ID is given. Predictions carry no embedding.
func (r *Registry) AddPrediction(ctx context.Context, in *model.Prediction) (*model.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *in
	p.Normalize()

	if p.ID == "" {
		prefix, err := ids.Prefix(model.KindPrediction, "", r.year())
		if err != nil {
			return nil, err
		}
		existing, err := r.predictions.IDs(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if p.ID, err = ids.Next(existing, prefix); err != nil {
			return nil, err
		}
	}

	if err := save(ctx, r, r.predictions, &p); err != nil {
		return nil, err
	}

	r.logger.Debug("Prediction added", zap.String("id", p.ID), zap.String("claim", p.ClaimID))
	return &p, nil
}

// GetPrediction returns a prediction or a *NotFoundError
func (r *Registry) GetPrediction(ctx context.Context, id string) (*model.Prediction, error) {
	return r.predictions.Get(ctx, id)
}

// UpdatePrediction applies a patch of mutable fields
func (r *Registry) UpdatePrediction(ctx context.Context, id string, patch Patch) (*model.Prediction, error) {
	return update(ctx, r, r.predictions, id, patch)
}

// ListPredictions returns predictions matching filter in insertion order
func (r *Registry) ListPredictions(ctx context.Context, filter map[string]any, limit int) ([]*model.Prediction, error) {
	return r.predictions.List(ctx, filter, limit)
}
