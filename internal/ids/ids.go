// Package ids derives human-readable record IDs from the IDs already
// stored. It holds no state of its own: every call rescans.
package ids

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
)

const (
	ChainPrefix         = "CHAIN"
	PredictionPrefix    = "PRED"
	ContradictionPrefix = "CONTRA"

	maxSeq = 999
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Prefix returns the "<CODE>-<YEAR>-" prefix for a kind. Claims are keyed
// by domain; chains, predictions and contradictions by a fixed code.
// Sources and definitions have no sequence prefix.
func Prefix(kind model.Kind, domain string, year int) (string, error) {
	switch kind {
	case model.KindClaim:
		if !model.ValidDomain(domain) {
			return "", errors.WithStack(&errors.InvalidDomainError{Domain: domain})
		}
		return fmt.Sprintf("%s-%04d-", domain, year), nil
	case model.KindChain:
		return fmt.Sprintf("%s-%04d-", ChainPrefix, year), nil
	case model.KindPrediction:
		return fmt.Sprintf("%s-%04d-", PredictionPrefix, year), nil
	case model.KindContradiction:
		return fmt.Sprintf("%s-%04d-", ContradictionPrefix, year), nil
	}
	return "", errors.Wrapf(errors.ErrUnknownTable, "no sequence ids for %q", kind)
}

// Next returns prefix + (max existing suffix + 1), zero-padded to three
// digits. IDs not starting with prefix, or with a non-numeric suffix, are
// ignored.
func Next(existing []string, prefix string) (string, error) {
	highest := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(prefix):])
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if highest >= maxSeq {
		return "", errors.Wrapf(errors.ErrIDSpaceExhausted, "prefix %s", prefix)
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1), nil
}

// Generate combines Prefix and Next
func Generate(kind model.Kind, domain string, year int, existing []string) (string, error) {
	prefix, err := Prefix(kind, domain, year)
	if err != nil {
		return "", err
	}
	return Next(existing, prefix)
}

// SourceSlug derives a source ID from its title and year, e.g.
// "Training Compute Trends" + 2024 -> "training-compute-trends-2024".
// A taken slug gets a numeric suffix (-2, -3, ...).
func SourceSlug(title string, year int, existing []string) string {
	base := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(base) > 48 {
		base = strings.TrimRight(base[:48], "-")
	}
	if base == "" {
		base = "source"
	}
	if year > 0 {
		base = fmt.Sprintf("%s-%d", base, year)
	}

	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
	}
	if !taken[base] {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate
		}
	}
}
