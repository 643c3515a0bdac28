package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/ids"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/storage"
)

// AddClaim validates and stores a claim. Without an ID, the next
// DOMAIN-YYYY-NNN for the current year is assigned. Adding an existing ID
// replaces it (created_at and version are kept). Each cited source that already exists
// gets the claim appended to its claim_ids.
func (r *Registry) AddClaim(ctx context.Context, in *model.Claim) (*model.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *in
	c.Normalize()

	if c.ID == "" {
		prefix, err := ids.Prefix(model.KindClaim, string(c.Domain), r.year())
		if err != nil {
			return nil, err
		}
		existing, err := r.claims.IDs(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if c.ID, err = ids.Next(existing, prefix); err != nil {
			return nil, err
		}
	}

	if err := save(ctx, r, r.claims, &c); err != nil {
		return nil, err
	}
	r.linkSources(ctx, &c)

	r.logger.Debug("Claim added", zap.String("id", c.ID), zap.Bool("embedded", len(c.Embedding) > 0))
	return &c, nil
}

// linkSources appends the claim to the back-references of every cited
// source that exists. Failures are logged; reconcile repairs them.
func (r *Registry) linkSources(ctx context.Context, c *model.Claim) {
	seen := make(map[string]bool, len(c.SourceIDs))
	for _, sid := range c.SourceIDs {
		if seen[sid] {
			continue
		}
		seen[sid] = true

		s, err := r.sources.Get(ctx, sid)
		if err != nil {
			if !errors.IsNotFound(err) {
				r.logger.Warn("Back-reference update failed",
					zap.String("kind", string(model.KindSource)),
					zap.String("id", sid),
					zap.Error(err))
			}
			continue
		}
		if contains(s.ClaimIDs, c.ID) {
			continue
		}
		s.ClaimIDs = append(s.ClaimIDs, c.ID)
		s.Touch(s.CreatedAt, r.now().UTC())
		if err := r.sources.Put(ctx, s); err != nil {
			r.logger.Warn("Back-reference update failed",
				zap.String("kind", string(model.KindSource)),
				zap.String("id", sid),
				zap.Error(err))
		}
	}
}

// GetClaim returns a claim or a *NotFoundError
func (r *Registry) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return r.claims.Get(ctx, id)
}

// UpdateClaim applies a patch of mutable fields. Changing text
// re-embeds; source_ids changes do not touch source back-references.
func (r *Registry) UpdateClaim(ctx context.Context, id string, patch Patch) (*model.Claim, error) {
	return update(ctx, r, r.claims, id, patch)
}

// ListClaims returns claims matching filter in insertion order
func (r *Registry) ListClaims(ctx context.Context, filter map[string]any, limit int) ([]*model.Claim, error) {
	return r.claims.List(ctx, filter, limit)
}

// SearchClaims ranks claims by similarity to query text
func (r *Registry) SearchClaims(ctx context.Context, query string, k int, filter map[string]any) ([]storage.Hit[*model.Claim], error) {
	vec, err := r.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.claims.Search(ctx, vec, k, filter, nil)
}

// Related finds the k claims closest to claimID's own embedding,
// excluding the claim itself
func (r *Registry) Related(ctx context.Context, claimID string, k int, filter map[string]any) ([]storage.Hit[*model.Claim], error) {
	c, err := r.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if len(c.Embedding) == 0 {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrEmbeddingUnavailable, "claim %s has no embedding", claimID),
			"run: realitycheck embed --kind claims")
	}
	return r.claims.Search(ctx, c.Embedding, k, filter, []string{claimID})
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
