package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/ids"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/score"
	"github.com/lhl/realitycheck/internal/storage"
)

// AddChain validates and stores a chain. Without a credence (and unless
// scoring is CUSTOM) the chain takes the lowest credence of its stored
// claims and records that claim as weakest link.
func (r *Registry) AddChain(ctx context.Context, in *model.Chain) (*model.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := *in
	ch.Normalize()

	if ch.ID == "" {
		prefix, err := ids.Prefix(model.KindChain, "", r.year())
		if err != nil {
			return nil, err
		}
		existing, err := r.chains.IDs(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if ch.ID, err = ids.Next(existing, prefix); err != nil {
			return nil, err
		}
	}

	if ch.Credence == nil && ch.ScoringMethod != model.ScoringCustom {
		result, err := r.scoreChain(ctx, &ch)
		if err != nil {
			return nil, err
		}
		ch.Credence = result.Credence
		if ch.WeakestLink == "" {
			ch.WeakestLink = result.WeakestLink
		}
	}

	if err := save(ctx, r, r.chains, &ch); err != nil {
		return nil, err
	}

	r.logger.Debug("Chain added", zap.String("id", ch.ID), zap.Int("claims", len(ch.ClaimIDs)))
	return &ch, nil
}

// GetChain returns a chain or a *NotFoundError
func (r *Registry) GetChain(ctx context.Context, id string) (*model.Chain, error) {
	return r.chains.Get(ctx, id)
}

// UpdateChain applies a patch of mutable fields. Changing thesis
// re-embeds.
func (r *Registry) UpdateChain(ctx context.Context, id string, patch Patch) (*model.Chain, error) {
	return update(ctx, r, r.chains, id, patch)
}

// ListChains returns chains matching filter in insertion order
func (r *Registry) ListChains(ctx context.Context, filter map[string]any, limit int) ([]*model.Chain, error) {
	return r.chains.List(ctx, filter, limit)
}

// SearchChains ranks chains by similarity to query text
func (r *Registry) SearchChains(ctx context.Context, query string, k int, filter map[string]any) ([]storage.Hit[*model.Chain], error) {
	vec, err := r.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.chains.Search(ctx, vec, k, filter, nil)
}

// ScoreChain reports how the stored chain's credence aggregates over its
// claims as they are now
func (r *Registry) ScoreChain(ctx context.Context, id string) (score.ChainScore, error) {
	ch, err := r.chains.Get(ctx, id)
	if err != nil {
		return score.ChainScore{}, err
	}
	return r.scoreChain(ctx, ch)
}

func (r *Registry) scoreChain(ctx context.Context, ch *model.Chain) (score.ChainScore, error) {
	claims := make(map[string]*model.Claim, len(ch.ClaimIDs))
	for _, cid := range ch.ClaimIDs {
		c, err := r.claims.Get(ctx, cid)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return score.ChainScore{}, err
		}
		claims[cid] = c
	}
	return r.scorer.Calculate(ch, claims), nil
}
