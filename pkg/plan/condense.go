package plan

import (
	"regexp"
	"strings"
)

// keepPrefixes is the allow-list of clause keyword lines that survive
// condensation.
var keepPrefixes = []string{
	"Index Cond:",
	"Filter:",
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
}

// dropPrefixes always lose, even when a line would otherwise match.
var dropPrefixes = []string{
	"Sort Method:",
	"Memory:",
	"Batches:",
	"Cache Key:",
	"Cache Mode:",
	"Hits:",
	"Misses:",
	"Evictions:",
	"Overflows:",
	"Memory Usage:",
	"Output:",
	"Worker ",
}

var (
	nodeLinePattern   = regexp.MustCompile(`^\s*(-> )?[^\(]+\(.*\)`)
	actualPattern     = regexp.MustCompile(`actual time=[^\)]*`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// IsHeader reports whether the line is a "== <source-label> ==" block
// delimiter. Headers pass through condensation and encoding verbatim.
func IsHeader(line string) bool {
	return strings.HasPrefix(line, "== ") && strings.HasSuffix(line, " ==")
}

func normalizeSpace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// simplifyNodeLine keeps the node name (and leading edge marker) plus a
// shortened (t=…, r=…, l=…) triple derived from the actual time fragment.
func simplifyNodeLine(line string) string {
	leading := ""
	stripped := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(stripped, "->") {
		leading = "-> "
		stripped = strings.TrimLeft(stripped[2:], " \t")
	}

	namePart := strings.TrimSpace(strings.SplitN(stripped, "(", 2)[0])
	if match := actualPattern.FindString(line); match != "" {
		actual := normalizeSpace(match)
		actual = strings.Replace(actual, "actual time=", "t=", 1)
		actual = strings.Replace(actual, "rows=", "r=", 1)
		actual = strings.Replace(actual, "loops=", "l=", 1)
		return leading + namePart + " (" + actual + ")"
	}
	return leading + namePart
}

func hasAnyPrefix(text string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

// Condense retains only block headers, simplified plan-node lines and
// allow-listed clause lines. It is fully reproducible from the raw text.
func Condense(lines []string) []string {
	var out []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if IsHeader(stripped) {
			out = append(out, stripped)
			continue
		}
		if hasAnyPrefix(stripped, dropPrefixes) {
			continue
		}
		if nodeLinePattern.MatchString(line) {
			out = append(out, simplifyNodeLine(line))
			continue
		}
		if hasAnyPrefix(stripped, keepPrefixes) {
			out = append(out, normalizeSpace(stripped))
		}
	}
	return out
}
