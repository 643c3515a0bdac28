package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/schema"
)

// Record is what a table stores: an ID plus an optional vector
type Record interface {
	RecordID() string
	Vector() []float32
	SetVector([]float32)
}

// Hit is a search result; Score is cosine similarity, higher is closer
type Hit[T Record] struct {
	Record   T       `json:"record"`
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
}

// Table is the store for one entity kind
type Table[T Record] struct {
	e      *Engine
	kind   model.Kind
	name   string
	desc   *schema.Descriptor
	newRec func() T
}

// NewTable binds a kind to its table. newRec returns an empty record to
// decode into.
func NewTable[T Record](e *Engine, kind model.Kind, newRec func() T) (*Table[T], error) {
	name, err := tableName(kind)
	if err != nil {
		return nil, err
	}
	desc, err := schema.For(kind)
	if err != nil {
		return nil, err
	}
	return &Table[T]{e: e, kind: kind, name: name, desc: desc, newRec: newRec}, nil
}

// Kind returns the entity kind stored in the table
func (t *Table[T]) Kind() model.Kind { return t.kind }

// New returns an empty record of the table's type
func (t *Table[T]) New() T { return t.newRec() }

// Put upserts by ID. The insertion position of an existing ID is kept.
func (t *Table[T]) Put(ctx context.Context, rec T) error {
	id := rec.RecordID()
	if id == "" {
		return errors.Newf("put %s: empty id", t.name)
	}
	vec := rec.Vector()
	if t.e.dim > 0 && len(vec) > 0 && len(vec) != t.e.dim {
		return errors.Wrapf(errors.ErrDimensionMismatch, "%s %s: got %d, want %d", t.name, id, len(vec), t.e.dim)
	}

	payload, err := encodePayload(rec)
	if err != nil {
		return errors.Wrapf(err, "encode %s %s", t.name, id)
	}

	_, err = t.e.db.ExecContext(ctx,
		`INSERT INTO `+t.name+` (id, payload, embedding, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   payload = excluded.payload,
		   embedding = excluded.embedding,
		   updated_at = excluded.updated_at`,
		id, payload, encodeVector(vec), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrapf(err, "put %s %s", t.name, id)
	}

	t.e.logger.Debug("Stored record",
		zap.String("table", t.name),
		zap.String("id", id),
		zap.Bool("embedded", len(vec) > 0))
	return nil
}

// Get returns the record with id or a *NotFoundError
func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	row := t.e.db.QueryRowContext(ctx, `SELECT payload, embedding FROM `+t.name+` WHERE id = ?`, id)

	var payload string
	var blob []byte
	if err := row.Scan(&payload, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, errors.WithStack(&errors.NotFoundError{Kind: t.kind, ID: id})
		}
		return zero, errors.Wrapf(err, "get %s %s", t.name, id)
	}
	return t.decode(payload, blob)
}

// List returns records matching every filter entry exactly, in insertion
// order. limit <= 0 means no limit.
func (t *Table[T]) List(ctx context.Context, filter map[string]any, limit int) ([]T, error) {
	where, args, err := t.where(filter, nil)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := t.e.db.QueryContext(ctx,
		`SELECT payload, embedding FROM `+t.name+where+` ORDER BY seq LIMIT ?`, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", t.name)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var payload string
		var blob []byte
		if err := rows.Scan(&payload, &blob); err != nil {
			return nil, errors.Wrapf(err, "scan %s", t.name)
		}
		rec, err := t.decode(payload, blob)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, errors.Wrapf(rows.Err(), "list %s", t.name)
}

// Search ranks records by cosine similarity to vec, highest first, ties in
// insertion order. filter and exclude are applied before ranking, so at
// most k hits come back. Rows without an embedding are never returned.
func (t *Table[T]) Search(ctx context.Context, vec []float32, k int, filter map[string]any, exclude []string) ([]Hit[T], error) {
	if len(vec) == 0 {
		return nil, errors.New("search: empty query vector")
	}
	if k <= 0 {
		return []Hit[T]{}, nil
	}
	if err := t.checkDimension(ctx, len(vec)); err != nil {
		return nil, err
	}

	where, args, err := t.where(filter, exclude)
	if err != nil {
		return nil, err
	}
	if where == "" {
		where = " WHERE embedding IS NOT NULL"
	} else {
		where += " AND embedding IS NOT NULL"
	}
	args = append([]any{encodeVector(vec)}, args...)
	args = append(args, k)

	rows, err := t.e.db.QueryContext(ctx,
		`SELECT payload, embedding, `+distanceFunc+`(embedding, ?) AS distance
		 FROM `+t.name+where+`
		 ORDER BY distance ASC, seq ASC
		 LIMIT ?`, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", t.name)
	}
	defer rows.Close()

	hits := []Hit[T]{}
	for rows.Next() {
		var payload string
		var blob []byte
		var distance float64
		if err := rows.Scan(&payload, &blob, &distance); err != nil {
			return nil, errors.Wrapf(err, "scan %s", t.name)
		}
		rec, err := t.decode(payload, blob)
		if err != nil {
			return nil, err
		}
		hits = append(hits, Hit[T]{Record: rec, Score: 1 - distance, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "search %s", t.name)
	}

	t.e.logger.Debug("Searched table",
		zap.String("table", t.name),
		zap.Int("k", k),
		zap.Int("hits", len(hits)))
	return hits, nil
}

// IDs returns every ID starting with prefix, in insertion order
func (t *Table[T]) IDs(ctx context.Context, prefix string) ([]string, error) {
	rows, err := t.e.db.QueryContext(ctx,
		`SELECT id FROM `+t.name+` WHERE id LIKE ? ESCAPE '\' ORDER BY seq`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, errors.Wrapf(err, "ids %s", t.name)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrapf(err, "scan %s", t.name)
		}
		out = append(out, id)
	}
	return out, errors.Wrapf(rows.Err(), "ids %s", t.name)
}

// Count returns the number of stored records
func (t *Table[T]) Count(ctx context.Context) (int, error) {
	return t.count(ctx, "")
}

// CountMissingEmbedding returns how many records have a NULL embedding
func (t *Table[T]) CountMissingEmbedding(ctx context.Context) (int, error) {
	return t.count(ctx, " WHERE embedding IS NULL")
}

// MissingEmbedding returns the records with a NULL embedding
func (t *Table[T]) MissingEmbedding(ctx context.Context) ([]T, error) {
	rows, err := t.e.db.QueryContext(ctx,
		`SELECT payload, embedding FROM `+t.name+` WHERE embedding IS NULL ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s without embedding", t.name)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var payload string
		var blob []byte
		if err := rows.Scan(&payload, &blob); err != nil {
			return nil, errors.Wrapf(err, "scan %s", t.name)
		}
		rec, err := t.decode(payload, blob)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, errors.Wrapf(rows.Err(), "list %s without embedding", t.name)
}

// Reset empties the table
func (t *Table[T]) Reset(ctx context.Context) error {
	return t.e.Reset(ctx, t.kind)
}

func (t *Table[T]) count(ctx context.Context, where string) (int, error) {
	var n int
	if err := t.e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name+where).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "count %s", t.name)
	}
	return n, nil
}

// checkDimension fails when any stored vector has a different length than
// the query
func (t *Table[T]) checkDimension(ctx context.Context, dim int) error {
	var n int
	err := t.e.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+t.name+` WHERE embedding IS NOT NULL AND length(embedding) != ?`, 4*dim).Scan(&n)
	if err != nil {
		return errors.Wrapf(err, "check dimensions of %s", t.name)
	}
	if n > 0 {
		return errors.WithHint(
			errors.Wrapf(errors.ErrDimensionMismatch, "%d %s embeddings differ from query length %d", n, t.name, dim),
			"re-embed the table with the current model: realitycheck embed --all")
	}
	return nil
}

// where builds the WHERE clause for exact-match filters (whitelisted by
// the kind's descriptor) and an exclusion list
func (t *Table[T]) where(filter map[string]any, exclude []string) (string, []any, error) {
	names := make([]string, 0, len(filter))
	for name := range filter {
		if !t.desc.AllowsFilter(name) {
			return "", nil, errors.WithHintf(
				errors.Newf("field %q is not filterable on %s", name, t.name),
				"filterable fields: %s", strings.Join(t.desc.Filterable(), ", "))
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var clauses []string
	var args []any
	for _, name := range names {
		clauses = append(clauses, "json_extract(payload, '$."+name+"') = ?")
		args = append(args, filter[name])
	}
	if len(exclude) > 0 {
		clauses = append(clauses, "id NOT IN (?"+strings.Repeat(", ?", len(exclude)-1)+")")
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (t *Table[T]) decode(payload string, blob []byte) (T, error) {
	rec := t.newRec()
	if err := json.Unmarshal([]byte(payload), rec); err != nil {
		var zero T
		return zero, errors.Wrapf(err, "decode %s payload", t.name)
	}
	vec, err := decodeVector(blob)
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "decode %s embedding", t.name)
	}
	rec.SetVector(vec)
	return rec, nil
}

// encodePayload serialises the record without its embedding, which lives
// in its own column
func encodePayload(rec Record) (string, error) {
	doc, err := schema.ToDocument(rec)
	if err != nil {
		return "", err
	}
	delete(doc, "embedding")
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
