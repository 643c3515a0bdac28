package registry

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/schema"
	"github.com/lhl/realitycheck/internal/storage"
)

// Patch maps JSON field names to new values
type Patch map[string]any

// versioned records count their revisions
type versioned interface {
	BumpVersion()
	Revision() int
	SetRevision(v int)
}

// update applies patch to the stored record. Keys outside the mutable set
// fail with ImmutableFieldError unless the value is unchanged; unknown keys
// are validation errors. The merged record is validated before it replaces
// the stored one, so a failed update leaves the store untouched.
func update[T record](ctx context.Context, r *Registry, tbl *storage.Table[T], id string, patch Patch) (T, error) {
	var zero T
	kind := tbl.Kind()
	d := schema.MustFor(kind)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := tbl.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	doc, err := schema.ToDocument(current)
	if err != nil {
		return zero, err
	}
	delete(doc, "embedding")

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var unknown []model.Issue
	changed, reembed := false, false
	for _, key := range keys {
		value, err := jsonValue(patch[key])
		if err != nil {
			return zero, errors.Wrapf(err, "patch field %s", key)
		}
		_, declared := d.Field(key)
		switch {
		case !declared && !d.IsManaged(key):
			unknown = append(unknown, model.Issue{
				Severity: model.SeverityError,
				Code:     d.Code(key, "UNKNOWN"),
				Message:  id + ": unknown field " + key,
				Field:    key,
				Kind:     kind,
				RecordID: id,
				Value:    patch[key],
			})
			continue
		case key == "embedding":
			// Never part of the document; the vector is owned by the registry.
			return zero, errors.WithStack(&errors.ImmutableFieldError{Kind: kind, ID: id, Field: key})
		case !d.IsMutable(key):
			if !sameValue(doc[key], value) {
				return zero, errors.WithStack(&errors.ImmutableFieldError{Kind: kind, ID: id, Field: key})
			}
			continue
		}

		if sameValue(doc[key], value) {
			continue
		}
		changed = true
		if d.TriggersEmbedding(key) {
			reembed = true
		}
		if value == nil {
			delete(doc, key)
		} else {
			doc[key] = value
		}
	}
	if err := errors.NewValidationError(kind, id, unknown); err != nil {
		return zero, err
	}
	if !changed {
		return current, nil
	}
	// Checked in document form so a mistyped value is reported as an
	// issue instead of a decode failure.
	if err := errors.NewValidationError(kind, id, r.validator.Document(d, doc)); err != nil {
		return zero, err
	}

	merged := tbl.New()
	if err := schema.FromDocument(doc, merged); err != nil {
		return zero, err
	}
	merged.SetVector(current.Vector())
	if v, ok := any(merged).(versioned); ok {
		v.BumpVersion()
	}
	merged.Touch(current.Created(), r.now().UTC())

	if err := r.check(kind, merged); err != nil {
		return zero, err
	}
	if reembed {
		r.attachEmbedding(ctx, kind, merged, true)
	}
	if err := tbl.Put(ctx, merged); err != nil {
		return zero, err
	}

	r.logger.Debug("Record updated",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.Strings("fields", keys),
		zap.Bool("reembedded", reembed))
	return merged, nil
}

// jsonValue converts a patch value to its JSON document form so it
// compares equal to stored values
func jsonValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// sameValue treats absent, empty string and empty list as equal
func sameValue(a, b any) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	}
	return false
}
