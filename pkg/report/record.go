// Package report owns the benchmark's output surface: the append-only run
// log, summary tables derived from it, and their CSV forms. Consumers depend
// on exact column names and ordering, so the field lists here are contracts.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// RunFields is the run log column contract.
var RunFields = []string{
	"category",
	"case",
	"party_count",
	"service_count",
	"variant",
	"exec_ms",
	"shared_read",
	"shared_hit",
	"shared_dirtied",
	"cache_status",
	"iteration_seed",
	"round",
	"sql_position",
	"sql_count",
	"sql_order",
}

// RunRecord is one (case, variant, iteration, round, position) execution
// result. Records are append-only and never mutated; nil metric fields mean
// the run soft-failed. The scheduling coordinates are kept so ordering bias
// can be audited post hoc.
type RunRecord struct {
	Category      string
	Case          string
	PartyCount    int
	ServiceCount  int
	Variant       string
	ExecMs        *float64
	SharedRead    *int64
	SharedHit     *int64
	SharedDirtied *int64
	CacheStatus   string
	IterationSeed int64
	Round         int
	Position      int
	VariantCount  int
	Order         string
}

func (r RunRecord) row() []string {
	return []string{
		r.Category,
		r.Case,
		strconv.Itoa(r.PartyCount),
		strconv.Itoa(r.ServiceCount),
		r.Variant,
		formatFloatPtr(r.ExecMs),
		formatIntPtr(r.SharedRead),
		formatIntPtr(r.SharedHit),
		formatIntPtr(r.SharedDirtied),
		r.CacheStatus,
		strconv.FormatInt(r.IterationSeed, 10),
		strconv.Itoa(r.Round),
		strconv.Itoa(r.Position),
		strconv.Itoa(r.VariantCount),
		r.Order,
	}
}

// WriteRunCSV writes the run log for one iteration.
func WriteRunCSV(path string, records []RunRecord) error {
	return writeCSV(path, RunFields, func(w *csv.Writer) error {
		for _, record := range records {
			if err := w.Write(record.row()); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, writeRows func(*csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %q", path)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "could not write header of %q", path)
	}
	if err := writeRows(w); err != nil {
		return errors.Wrapf(err, "could not write rows of %q", path)
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "could not flush %q", path)
}

func formatFloatPtr(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func formatIntPtr(value *int64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatInt(*value, 10)
}
