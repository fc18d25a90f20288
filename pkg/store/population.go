package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// dialogTable is the backing table the workload identifiers are drawn from.
const dialogTable = "Dialog"

// attributeColumns maps sampler attribute names to Dialog columns.
var attributeColumns = map[string]string{
	"party":   "Party",
	"service": "ServiceResource",
}

// DialogPopulation exposes the Dialog table as a sampling population: a rough
// row-count estimate from catalog metadata and pseudo-random physical samples
// via TABLESAMPLE. It never scans the full table.
type DialogPopulation struct {
	client  *Psql
	timeout time.Duration
}

// NewDialogPopulation returns a population probe backed by the given client.
func NewDialogPopulation(client *Psql, timeout time.Duration) *DialogPopulation {
	return &DialogPopulation{client: client, timeout: timeout}
}

// EstimateSize returns the planner's row estimate for the Dialog table.
// A zero or negative estimate means the statistics are stale or missing;
// the caller decides on a fallback.
func (d *DialogPopulation) EstimateSize() (int64, error) {
	sql := fmt.Sprintf(
		"SELECT reltuples::bigint FROM pg_class WHERE relname = '%s' LIMIT 1", dialogTable)
	out, err := d.client.Query(sql, d.timeout)
	if err != nil {
		return 0, errors.Wrap(err, "could not read row estimate")
	}
	if out == "" {
		return 0, nil
	}

	estimate, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected row estimate %q", out)
	}
	return estimate, nil
}

// SampleDistinct draws distinct values of the given attribute from a
// pseudo-random physical subset of the table. The seed makes a draw
// repeatable; different seeds reach different physical subsets.
func (d *DialogPopulation) SampleDistinct(attribute string, percent float64, seed int, limit int) ([]string, error) {
	column, ok := attributeColumns[attribute]
	if !ok {
		return nil, errors.Errorf("unknown attribute %q; use 'party' or 'service'", attribute)
	}

	sql := fmt.Sprintf(
		`SELECT DISTINCT %q FROM %q TABLESAMPLE SYSTEM (%s) REPEATABLE (%d) LIMIT %d`,
		column, dialogTable, strconv.FormatFloat(percent, 'f', 6, 64), seed, limit)

	out, err := d.client.Query(sql, d.timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "sampling %s at %.4f%% failed", attribute, percent)
	}

	var values []string
	for _, line := range strings.Split(out, "\n") {
		if value := strings.TrimSpace(line); value != "" {
			values = append(values, value)
		}
	}
	return values, nil
}
