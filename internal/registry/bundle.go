package registry

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
)

// DecodeBundle reads a YAML bundle. Unknown keys are rejected.
func DecodeBundle(r io.Reader) (model.Bundle, error) {
	var b model.Bundle
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return b, nil
		}
		return b, errors.Wrap(err, "decode bundle")
	}
	return b, nil
}

// LoadBundle reads a YAML bundle file
func LoadBundle(path string) (model.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Bundle{}, errors.Wrapf(err, "open bundle %s", path)
	}
	defer f.Close()
	return DecodeBundle(f)
}

// Import adds every record of the bundle through the normal add path:
// sources, claims, chains, predictions, contradictions, then definitions. A failed record is reported
// in its outcome and does not stop the import.
func (r *Registry) Import(ctx context.Context, b model.Bundle) []model.Outcome {
	out := make([]model.Outcome, 0, b.Len())
	note := func(kind model.Kind, id string, err error) {
		o := model.Outcome{Kind: kind, ID: id, OK: err == nil}
		if err != nil {
			o.Error = err.Error()
			r.logger.Warn("Import failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		}
		out = append(out, o)
	}

	for i := range b.Sources {
		id := b.Sources[i].ID
		s, err := r.AddSource(ctx, &b.Sources[i])
		if err == nil {
			id = s.ID
		}
		note(model.KindSource, id, err)
	}
	for i := range b.Claims {
		id := b.Claims[i].ID
		c, err := r.AddClaim(ctx, &b.Claims[i])
		if err == nil {
			id = c.ID
		}
		note(model.KindClaim, id, err)
	}
	for i := range b.Chains {
		id := b.Chains[i].ID
		ch, err := r.AddChain(ctx, &b.Chains[i])
		if err == nil {
			id = ch.ID
		}
		note(model.KindChain, id, err)
	}
	for i := range b.Predictions {
		id := b.Predictions[i].ID
		p, err := r.AddPrediction(ctx, &b.Predictions[i])
		if err == nil {
			id = p.ID
		}
		note(model.KindPrediction, id, err)
	}
	for i := range b.Contradictions {
		id := b.Contradictions[i].ID
		c, err := r.AddContradiction(ctx, &b.Contradictions[i])
		if err == nil {
			id = c.ID
		}
		note(model.KindContradiction, id, err)
	}
	for i := range b.Definitions {
		d, err := r.AddDefinition(ctx, &b.Definitions[i])
		term := b.Definitions[i].Term
		if err == nil {
			term = d.Term
		}
		note(model.KindDefinition, term, err)
	}
	return out
}

// Export returns every record as a bundle that Import accepts
func (r *Registry) Export(ctx context.Context) (model.Bundle, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return model.Bundle{}, err
	}
	return model.Bundle{
		Sources:     snap.Sources,
		Claims:      snap.Claims,
		Chains:      snap.Chains,
		Predictions: snap.Predictions,

		Contradictions: snap.Contradictions,
		Definitions:    snap.Definitions,
	}, nil
}

// Outcomes counts succeeded and failed outcomes
func Outcomes(out []model.Outcome) (ok, failed int) {
	for _, o := range out {
		switch {
		case o.OK:
			ok++
		case !o.Skipped:
			failed++
		}
	}
	return ok, failed
}
