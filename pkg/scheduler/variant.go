package scheduler

import (
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Placeholder is the token a query template must contain; it is replaced with
// a case's JSON before execution.
const Placeholder = "--PARTIESANDSERVICESPLACEHOLDER--"

// explainPrefix is prepended to templates that do not already request an
// analyzed plan. Matching is case-insensitive on the first non-empty line.
const explainPrefix = "EXPLAIN (ANALYZE, BUFFERS, TIMING)"

// Variant is one loaded query template, named after its file without the
// extension. Its SQL is guaranteed to contain the placeholder and to start
// with the EXPLAIN prefix.
type Variant struct {
	Name string
	Path string
	SQL  string
}

// LoadVariants loads query templates from comma-separated glob patterns,
// sorted by path. Templates missing the placeholder are skipped with a
// warning rather than failing the whole benchmark.
func LoadVariants(patterns string) ([]Variant, error) {
	var paths []string
	for _, pattern := range strings.Split(patterns, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "bad query glob %q", pattern)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	var variants []Variant
	for _, path := range paths {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read query template %q", path)
		}
		sql := string(data)
		if !strings.Contains(sql, Placeholder) {
			log.Warnf("Placeholder missing in %s, skipping", path)
			continue
		}
		variants = append(variants, Variant{
			Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Path: path,
			SQL:  ensureExplain(sql),
		})
	}
	return variants, nil
}

// Fill substitutes the case JSON into the template.
func (v Variant) Fill(caseJSON []byte) string {
	return strings.Replace(v.SQL, Placeholder, string(caseJSON), -1)
}

func ensureExplain(sql string) string {
	firstNonEmpty := ""
	for _, line := range strings.Split(sql, "\n") {
		if strings.TrimSpace(line) != "" {
			firstNonEmpty = strings.TrimSpace(line)
			break
		}
	}
	if strings.HasPrefix(strings.ToUpper(firstNonEmpty), explainPrefix) {
		return sql
	}
	return explainPrefix + "\n" + sql
}
