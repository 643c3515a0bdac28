// Package schema describes the entity kinds as data: field shapes,
// enumerations, the mutable-field set, the ID pattern and which fields may
// be filtered on. Storage and validation are driven by these descriptors
// instead of per-kind code.
package schema

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
)

// FieldType is the JSON shape a field must have
type FieldType int

const (
	String     FieldType = iota // JSON string
	Number                      // JSON number
	Integer                     // JSON number with no fractional part
	StringList                  // JSON array of strings
	ObjectList                  // JSON array of objects
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Integer:
		return "integer"
	case StringList:
		return "string list"
	case ObjectList:
		return "object list"
	default:
		return "unknown"
	}
}

// Field describes one field of a record in its JSON form
type Field struct {
	Name     string
	Type     FieldType
	Required bool           // Must be present; strings and lists must also be non-empty
	Enum     []string       // Allowed values (per element for StringList)
	Min, Max *float64       // Inclusive numeric range
	Pattern  *regexp.Regexp // Applied to non-empty strings
}

// Descriptor is the schema of one entity kind
type Descriptor struct {
	Kind       model.Kind
	CodePrefix string // Prefix for issue codes, e.g. CLAIM
	IDField    string // JSON name of the key; empty means "id"
	IDPattern  *regexp.Regexp
	Fields     []Field

	mutable    map[string]bool
	embedded   map[string]bool // Fields whose change invalidates the embedding
	filterable map[string]bool
	managed    map[string]bool // Maintained by the registry, never validated or patched
	byName     map[string]int
}

// Field looks up a field by JSON name
func (d *Descriptor) Field(name string) (Field, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[i], true
}

// Key returns the JSON name of the field holding the record ID
func (d *Descriptor) Key() string {
	if d.IDField == "" {
		return "id"
	}
	return d.IDField
}

// IsMutable reports whether update may change the field
func (d *Descriptor) IsMutable(name string) bool { return d.mutable[name] }

// IsManaged reports whether the field is maintained by the registry
// (timestamps, embedding, version)
func (d *Descriptor) IsManaged(name string) bool { return d.managed[name] }

// TriggersEmbedding reports whether a change to name requires re-embedding
func (d *Descriptor) TriggersEmbedding(name string) bool { return d.embedded[name] }

// Mutable returns the sorted mutable field names
func (d *Descriptor) Mutable() []string { return keys(d.mutable) }

// Filterable returns the sorted names usable in list/search filters
func (d *Descriptor) Filterable() []string { return keys(d.filterable) }

// Code builds an issue code such as CLAIM_CREDENCE_INVALID
func (d *Descriptor) Code(field, problem string) string {
	if field == "" {
		return d.CodePrefix + "_" + problem
	}
	return d.CodePrefix + "_" + strings.ToUpper(field) + "_" + problem
}

// CoerceFilter converts raw string filter values into the JSON type of each
// field so they compare equal to stored values. Unknown or non-filterable
// fields are rejected.
func (d *Descriptor) CoerceFilter(raw map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for name, v := range raw {
		if !d.filterable[name] {
			return nil, errors.WithHintf(
				errors.Newf("field %q is not filterable on %s", name, d.Kind),
				"filterable fields: %s", strings.Join(d.Filterable(), ", "))
		}
		f, _ := d.Field(name)
		switch f.Type {
		case Integer:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.Wrapf(err, "filter %s", name)
			}
			out[name] = n
		case Number:
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "filter %s", name)
			}
			out[name] = n
		default:
			out[name] = v
		}
	}
	return out, nil
}

// AllowsFilter reports whether name may be used as a filter key
func (d *Descriptor) AllowsFilter(name string) bool { return d.filterable[name] }

var descriptors = map[model.Kind]*Descriptor{}

// For returns the descriptor of a kind
func For(kind model.Kind) (*Descriptor, error) {
	d, ok := descriptors[kind]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownTable, "%q", kind)
	}
	return d, nil
}

// MustFor is For for kinds known at compile time
func MustFor(kind model.Kind) *Descriptor {
	d, err := For(kind)
	if err != nil {
		panic(err)
	}
	return d
}

func register(d *Descriptor, mutable, embedded, filterable []string) {
	d.byName = make(map[string]int, len(d.Fields))
	for i, f := range d.Fields {
		d.byName[f.Name] = i
	}
	d.mutable = set(mutable)
	d.embedded = set(embedded)
	d.filterable = set(filterable)
	d.managed = set([]string{"embedding", "created_at", "updated_at", "version"})
	for name := range d.filterable {
		if _, ok := d.byName[name]; !ok {
			panic("schema: filterable field " + name + " not declared on " + string(d.Kind))
		}
	}
	descriptors[d.Kind] = d
}

func set(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
