// Package plan converts raw textual EXPLAIN (ANALYZE, BUFFERS, TIMING)
// reports into normalized metrics and a condensed line-level representation.
// Both passes are pure functions of the raw text.
package plan

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	executionTimePattern = regexp.MustCompile(`Execution Time: ([0-9.]+) ms`)
	sharedSectionPattern = regexp.MustCompile(`\bshared\b(.*)`)
	hitPattern           = regexp.MustCompile(`\bhit=(\d+)`)
	readPattern          = regexp.MustCompile(`\bread=(\d+)`)
	dirtiedPattern       = regexp.MustCompile(`\bdirtied=(\d+)`)
)

// Metrics holds the numbers extracted from one report. Nil means the value
// was absent, which is distinct from zero.
type Metrics struct {
	ExecTimeMs    *float64
	SharedRead    *int64
	SharedHit     *int64
	SharedDirtied *int64
}

// Parse extracts execution time and the outermost shared-buffer counters from
// a raw report. Nested plan nodes each report their own buffers; the cumulative
// total lives on the outermost node, so among buffer lines outside the
// "Planning:" sub-section the last line at minimum indentation wins.
func Parse(report string) Metrics {
	metrics := Metrics{}

	if match := executionTimePattern.FindStringSubmatch(report); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			metrics.ExecTimeMs = &value
		}
	}

	lines := strings.Split(report, "\n")
	planningStart := len(lines)
	for index, line := range lines {
		if strings.TrimSpace(line) == "Planning:" {
			planningStart = index
			break
		}
	}

	candidates := bufferLines(lines[:planningStart])
	if len(candidates) == 0 {
		candidates = bufferLines(lines)
	}
	if len(candidates) == 0 {
		return metrics
	}

	minIndent := candidates[0].indent
	for _, candidate := range candidates[1:] {
		if candidate.indent < minIndent {
			minIndent = candidate.indent
		}
	}
	var selected string
	for _, candidate := range candidates {
		if candidate.indent == minIndent {
			selected = candidate.line
		}
	}

	metrics.SharedRead, metrics.SharedHit, metrics.SharedDirtied = parseSharedBuffers(selected)
	return metrics
}

type indentedLine struct {
	indent int
	line   string
}

func bufferLines(lines []string) []indentedLine {
	var found []indentedLine
	for _, line := range lines {
		if !strings.Contains(line, "Buffers:") {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		found = append(found, indentedLine{indent: indent, line: line})
	}
	return found
}

// parseSharedBuffers reads the shared hit/read/dirtied counters from one
// buffer line. An absent sub-field defaults to 0, but without a "shared"
// marker the whole triple is nil.
func parseSharedBuffers(line string) (read, hit, dirtied *int64) {
	match := sharedSectionPattern.FindStringSubmatch(line)
	if match == nil {
		return nil, nil, nil
	}
	section := match[1]

	extract := func(pattern *regexp.Regexp) *int64 {
		value := int64(0)
		if m := pattern.FindStringSubmatch(section); m != nil {
			parsed, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return &value
			}
			value = parsed
		}
		return &value
	}

	return extract(readPattern), extract(hitPattern), extract(dirtiedPattern)
}

// CacheStatus derives the cache classification of a run from its buffer
// counters: "io" when pages were read, "cached" when everything was a hit,
// "none" when the plan touched no shared pages, "-" when unknown.
func CacheStatus(read, hit *int64) string {
	switch {
	case read == nil && hit == nil:
		return "-"
	case read != nil && *read > 0:
		return "io"
	case read != nil && *read == 0 && hit != nil && *hit > 0:
		return "cached"
	case read != nil && *read == 0 && hit != nil && *hit == 0:
		return "none"
	}
	return "?"
}

// CleanReport strips the psql framing (the "QUERY PLAN" column header and its
// dashed underline) from a raw report.
func CleanReport(output string) string {
	var cleaned []string
	for _, line := range strings.Split(output, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "QUERY PLAN" {
			continue
		}
		if stripped != "" && strings.Count(stripped, "-") == len(stripped) {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.Join(cleaned, "\n")
}
