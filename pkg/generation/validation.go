/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"fmt"
	"strings"

	"github.com/traas-stack/logmatcher/pkg/catalog"
)

// ValidationError explains why a candidate was rejected (§4.7).
type ValidationError struct {
	Pattern string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("generation: candidate %q rejected: %s", e.Pattern, e.Reason)
}

// Validate applies §4.7's acceptance rules to a candidate derived from
// sourceLine: at least one fragment must be at least minFragmentLength runes
// (I2, §3 — mirrors snapshot.satisfiesMinFragmentLength, the same invariant
// enforced at install time), the fragments must occur in sourceLine as an
// ordered, non-overlapping subsequence (otherwise the generator hallucinated
// a pattern that doesn't actually describe the line that prompted it), and
// the canonical pattern must not already exist in cat.
func Validate(c Candidate, sourceLine string, minFragmentLength int, cat *catalog.Catalog) error {
	pattern := strings.TrimSpace(c.Pattern)
	if pattern == "" {
		return &ValidationError{Pattern: c.Pattern, Reason: "empty pattern"}
	}
	if len(c.Fragments) == 0 {
		return &ValidationError{Pattern: pattern, Reason: "no fragments"}
	}
	if !anyFragmentMeetsMinLength(c.Fragments, minFragmentLength) {
		return &ValidationError{Pattern: pattern, Reason: fmt.Sprintf("no fragment meets minimum length %d", minFragmentLength)}
	}
	if !orderedSubsequence(c.Fragments, sourceLine) {
		return &ValidationError{Pattern: pattern, Reason: "fragments do not occur in order in the source line"}
	}
	if cat.HasPattern(pattern) {
		return &ValidationError{Pattern: pattern, Reason: "duplicate of an existing template"}
	}
	return nil
}

// anyFragmentMeetsMinLength reports whether at least one fragment is long
// enough to anchor the template (I2, §3): a template isn't rejected just
// because it also contains short fragments alongside a qualifying one.
func anyFragmentMeetsMinLength(fragments []string, minLen int) bool {
	for _, f := range fragments {
		if len([]rune(f)) >= minLen {
			return true
		}
	}
	return false
}

// orderedSubsequence reports whether fragments occur in line as literal
// substrings in order, each occurrence starting after the previous one ends.
func orderedSubsequence(fragments []string, line string) bool {
	cursor := 0
	for _, f := range fragments {
		idx := strings.Index(line[cursor:], f)
		if idx < 0 {
			return false
		}
		cursor += idx + len(f)
	}
	return true
}
