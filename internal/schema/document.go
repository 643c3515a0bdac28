package schema

import (
	"encoding/json"

	"github.com/lhl/realitycheck/internal/errors"
)

// Document is the JSON object form of a record. Numbers decode as float64
// and lists as []any, which is what validation inspects.
type Document map[string]any

// ToDocument converts a record into its JSON object form
func ToDocument(record any) (Document, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "marshal record")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal record document")
	}
	return doc, nil
}

// FromDocument decodes a document back into a record
func FromDocument(doc Document, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode document")
	}
	return nil
}

// String returns the string value of a field, or ""
func (d Document) String(name string) string {
	s, _ := d[name].(string)
	return s
}

// Strings returns the string elements of a list field
func (d Document) Strings(name string) []string {
	list, _ := d[name].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Number returns a numeric field and whether it was present and numeric
func (d Document) Number(name string) (float64, bool) {
	n, ok := d[name].(float64)
	return n, ok
}
