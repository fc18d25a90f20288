package dictionary

import (
	"regexp"
	"strings"
)

// SchemeHeader describes the compression scheme; it is the first line of the
// condensed corpus file.
const SchemeHeader = "Format: blocks start with '== file =='; lines show plan nodes with actual " +
	"time/rows/loops, plus key conditions and buffers; costs/widths/memory/cache stats removed. " +
	"Dictionary compression applied: common EXPLAIN terms replaced with single characters; " +
	"identifiers (tables/indexes) replaced with two-letter codes. " +
	"Node timing labels shortened to t/r/l."

// Encode rewrites the condensed corpus with both dictionaries. Identifiers
// substitute before terms, so a term code can never collide with text a
// previous identifier substitution produced. Only whole tokens match.
func Encode(lines []string, terms *TermDict, identifiers *IdentifierDict) []string {
	idSubs := make([]substitution, 0, len(identifiers.names))
	for _, name := range identifiers.names {
		idSubs = append(idSubs, substitution{
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`),
			code:    identifiers.codes[name],
		})
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		updated := line
		for index, name := range identifiers.names {
			updated = strings.Replace(updated, `"`+name+`"`, identifiers.codes[name], -1)
			updated = idSubs[index].pattern.ReplaceAllString(updated, identifiers.codes[name])
		}
		for _, sub := range terms.substitutions {
			updated = sub.pattern.ReplaceAllString(updated, sub.code)
		}
		out = append(out, updated)
	}
	return out
}

// EncodeCorpus condenses nothing itself: it takes an already-condensed corpus,
// builds both dictionaries and returns the full condensed file content
// (scheme header, TERMS and IDENTIFIERS legends, rewritten corpus).
func EncodeCorpus(condensed []string) (string, error) {
	terms, err := NewTermDict()
	if err != nil {
		return "", err
	}
	identifiers, err := BuildIdentifierDict(condensed)
	if err != nil {
		return "", err
	}

	var parts []string
	parts = append(parts, SchemeHeader)
	parts = append(parts, "TERMS:")
	parts = append(parts, terms.Legend()...)
	parts = append(parts, "IDENTIFIERS:")
	parts = append(parts, identifiers.Legend()...)
	parts = append(parts, Encode(condensed, terms, identifiers)...)

	return strings.Join(parts, "\n") + "\n", nil
}
