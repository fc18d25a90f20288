// Package dictionary shrinks a condensed plan corpus with two code spaces:
// a fixed vocabulary of plan-language terms mapped to single-character codes,
// and corpus-discovered schema-object identifiers mapped to two-letter codes.
// The term vocabulary is process-wide configuration data; the identifier
// dictionary is rebuilt per corpus. Encoding is deterministic and ships with
// an emitted legend so a human reader can reverse it.
package dictionary

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// commonTerms is the fixed, ordered vocabulary. Codes are assigned by
// position, so the list order is part of the output format.
var commonTerms = []string{
	"Index Only Scan",
	"Index Scan",
	"Bitmap Heap Scan",
	"Bitmap Index Scan",
	"Seq Scan",
	"Nested Loop",
	"Merge Join",
	"Hash Join",
	"HashAggregate",
	"Aggregate",
	"Subquery Scan",
	"CTE Scan",
	"Function Scan",
	"Gather Merge",
	"Gather",
	"Memoize",
	"Sort",
	"Limit",
	"Unique",
	"Materialize",
	"Result",
	"Filter:",
	"Index Cond:",
	"Join Filter:",
	"Rows Removed by Filter:",
	"Rows Removed by Join Filter:",
	"Recheck Cond:",
	"Sort Key:",
	"Group Key:",
	"Buffers:",
	"Heap Fetches:",
	"Planning Time:",
	"Execution Time:",
	"Semi Join",
	"Append",
	"ProjectSet",
	"on",
	"using",
	"shared hit",
	"read",
	"written",
}

// termCodePool lists the available single-character codes: printable symbols
// outside alphanumerics first, then alphanumerics.
const termCodePool = "!#$%&*+;:?@^_|~" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type substitution struct {
	pattern *regexp.Regexp
	code    string
}

// TermDict maps the fixed vocabulary to single-character codes.
type TermDict struct {
	terms         []string
	codes         map[string]string
	substitutions []substitution
}

// NewTermDict assigns codes to the fixed vocabulary. It fails when the
// vocabulary outgrows the code pool; that is a fatal configuration error.
func NewTermDict() (*TermDict, error) {
	pool := []rune(termCodePool)
	if len(commonTerms) > len(pool) {
		return nil, errors.Errorf(
			"not enough single-character codes for %d terms (pool holds %d)",
			len(commonTerms), len(pool))
	}

	dict := &TermDict{
		terms: commonTerms,
		codes: make(map[string]string, len(commonTerms)),
	}
	for index, term := range commonTerms {
		dict.codes[term] = string(pool[index])
	}

	// Longer terms substitute first so "Index Only Scan" wins over
	// "Index Scan"; ties keep vocabulary order.
	ordered := make([]string, len(commonTerms))
	copy(ordered, commonTerms)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && len(ordered[j]) > len(ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	for _, term := range ordered {
		var pattern *regexp.Regexp
		if strings.HasSuffix(term, ":") || strings.Contains(term, " ") {
			pattern = regexp.MustCompile(regexp.QuoteMeta(term))
		} else {
			pattern = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
		}
		dict.substitutions = append(dict.substitutions, substitution{
			pattern: pattern,
			code:    dict.codes[term],
		})
	}

	return dict, nil
}

// Legend returns the TERMS block lines, one "code=term" per vocabulary entry.
func (d *TermDict) Legend() []string {
	lines := make([]string, 0, len(d.terms))
	for _, term := range d.terms {
		lines = append(lines, d.codes[term]+"="+term)
	}
	return lines
}

// IdentifierDict maps discovered schema-object names to two-letter codes in
// first-seen order.
type IdentifierDict struct {
	names []string
	codes map[string]string
}

var (
	indexScanPattern   = regexp.MustCompile(`Index (?:Only )?Scan using ([^\s]+)`)
	quotedTablePattern = regexp.MustCompile(`\b(?:on|using)\s+"([^"]+)"`)
	bareTablePattern   = regexp.MustCompile(`\b(?:on|using)\s+([A-Za-z0-9_.]+)`)
	quotedPattern      = regexp.MustCompile(`"([^"]+)"`)
)

// isIdentifier recognizes schema-object naming conventions: key/index
// prefixes, qualified names, or an uppercase-initial token.
func isIdentifier(name string) bool {
	if len(name) <= 1 {
		return false
	}
	if strings.HasPrefix(name, "IX_") || strings.HasPrefix(name, "PK_") || strings.HasPrefix(name, "FK_") {
		return true
	}
	if strings.Contains(name, ".") {
		return true
	}
	return unicode.IsUpper([]rune(name)[0])
}

// BuildIdentifierDict discovers identifiers in the corpus and assigns
// two-letter codes AA..ZZ in first-seen order. It fails when the corpus holds
// more than 676 identifiers; that is a fatal configuration error.
func BuildIdentifierDict(lines []string) (*IdentifierDict, error) {
	seen := map[string]bool{}
	var names []string
	add := func(raw string) {
		name := strings.Trim(strings.TrimSpace(raw), `"`)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, line := range lines {
		if match := indexScanPattern.FindStringSubmatch(line); match != nil {
			add(match[1])
		}
		for _, pattern := range []*regexp.Regexp{quotedTablePattern, bareTablePattern} {
			for _, match := range pattern.FindAllStringSubmatch(line, -1) {
				if name := strings.Trim(strings.TrimSpace(match[1]), `"`); len(name) > 1 && isIdentifier(name) {
					add(name)
				}
			}
		}
		for _, match := range quotedPattern.FindAllStringSubmatch(line, -1) {
			if name := strings.TrimSpace(match[1]); len(name) > 1 {
				add(name)
			}
		}
	}

	var filtered []string
	for _, name := range names {
		if isIdentifier(name) {
			filtered = append(filtered, name)
		}
	}

	if len(filtered) > 26*26 {
		return nil, errors.Errorf(
			"too many identifiers for two-letter codes: %d > %d", len(filtered), 26*26)
	}

	dict := &IdentifierDict{
		names: filtered,
		codes: make(map[string]string, len(filtered)),
	}
	for index, name := range filtered {
		dict.codes[name] = string(rune('A'+index/26)) + string(rune('A'+index%26))
	}
	return dict, nil
}

// Legend returns the IDENTIFIERS block lines, one "code=name" per identifier.
func (d *IdentifierDict) Legend() []string {
	lines := make([]string, 0, len(d.names))
	for _, name := range d.names {
		lines = append(lines, d.codes[name]+"="+name)
	}
	return lines
}
