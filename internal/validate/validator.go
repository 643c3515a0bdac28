// Package validate checks records against their schema descriptor
// (structural), against each other (referential) and against the
// cross-field rules of each kind (logical).
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/schema"
)

// Validator runs structural and logical checks on single records
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Record validates a typed record of the given kind
func (v *Validator) Record(kind model.Kind, record any) ([]model.Issue, error) {
	d, err := schema.For(kind)
	if err != nil {
		return nil, err
	}
	doc, err := schema.ToDocument(record)
	if err != nil {
		return nil, err
	}
	return v.Document(d, doc), nil
}

// Document validates the JSON form of a record. Any error-severity issue
// means the record must not be persisted.
func (v *Validator) Document(d *schema.Descriptor, doc schema.Document) []model.Issue {
	c := &collector{d: d, id: doc.String(d.Key())}

	for _, f := range d.Fields {
		c.field(f, doc[f.Name])
	}
	if rule, ok := logicalRules[d.Kind]; ok {
		rule(c, doc)
	}
	return c.issues
}

type collector struct {
	d      *schema.Descriptor
	id     string
	issues []model.Issue
}

func (c *collector) add(sev model.Severity, field, problem string, value any, format string, args ...any) {
	c.issues = append(c.issues, model.Issue{
		Severity: sev,
		Code:     c.d.Code(field, problem),
		Message:  c.label() + ": " + fmt.Sprintf(format, args...),
		Field:    field,
		Kind:     c.d.Kind,
		RecordID: c.id,
		Value:    value,
	})
}

func (c *collector) errorf(field, problem string, value any, format string, args ...any) {
	c.add(model.SeverityError, field, problem, value, format, args...)
}

func (c *collector) warnf(field, problem string, value any, format string, args ...any) {
	c.add(model.SeverityWarning, field, problem, value, format, args...)
}

func (c *collector) label() string {
	if c.id == "" {
		return strings.TrimSuffix(string(c.d.Kind), "s")
	}
	return c.id
}

func (c *collector) field(f schema.Field, value any) {
	if value == nil {
		if f.Required {
			c.errorf(f.Name, "EMPTY", nil, "missing required field %s", f.Name)
		}
		return
	}

	switch f.Type {
	case schema.String:
		s, ok := value.(string)
		if !ok {
			c.wrongType(f, value)
			return
		}
		if strings.TrimSpace(s) == "" {
			if f.Required {
				c.errorf(f.Name, "EMPTY", s, "missing or empty %s", f.Name)
			}
			return
		}
		c.scalar(f, s)

	case schema.Number, schema.Integer:
		n, ok := value.(float64)
		if !ok || math.IsNaN(n) || (f.Type == schema.Integer && n != math.Trunc(n)) {
			c.wrongType(f, value)
			return
		}
		if (f.Min != nil && n < *f.Min) || (f.Max != nil && n > *f.Max) {
			c.errorf(f.Name, "INVALID", n, "%s %v out of range [%s]", f.Name, n, rangeString(f))
		}

	case schema.StringList:
		list, ok := value.([]any)
		if !ok {
			c.wrongType(f, value)
			return
		}
		if f.Required && len(list) == 0 {
			c.errorf(f.Name, "EMPTY", list, "%s must not be empty", f.Name)
			return
		}
		for _, el := range list {
			s, ok := el.(string)
			if !ok {
				c.wrongType(f, el)
				continue
			}
			if strings.TrimSpace(s) == "" {
				c.errorf(f.Name, "EMPTY", s, "%s contains an empty entry", f.Name)
				continue
			}
			c.scalar(f, s)
		}

	case schema.ObjectList:
		list, ok := value.([]any)
		if !ok {
			c.wrongType(f, value)
			return
		}
		for _, el := range list {
			if _, ok := el.(map[string]any); !ok {
				c.wrongType(f, el)
			}
		}
	}
}

// scalar applies enum and pattern checks to one string value
func (c *collector) scalar(f schema.Field, s string) {
	if len(f.Enum) > 0 && !contains(f.Enum, s) {
		c.errorf(f.Name, "INVALID", s, "invalid %s %q (allowed: %s)", f.Name, s, strings.Join(f.Enum, " "))
		return
	}
	if f.Pattern != nil && !f.Pattern.MatchString(s) {
		c.errorf(f.Name, "FORMAT", s, "%s %q does not match %s", f.Name, s, f.Pattern)
	}
}

func (c *collector) wrongType(f schema.Field, value any) {
	c.errorf(f.Name, "WRONG_TYPE", value, "%s must be a %s, got %T", f.Name, f.Type, value)
}

func rangeString(f schema.Field) string {
	lo, hi := "-inf", "+inf"
	if f.Min != nil {
		lo = fmt.Sprint(*f.Min)
	}
	if f.Max != nil {
		hi = fmt.Sprint(*f.Max)
	}
	return lo + ", " + hi
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
