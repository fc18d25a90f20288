package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/Altinn/dialogporten-utils/pkg/stats"
)

// SummaryFields is the summary table column contract.
var SummaryFields = []string{
	"variant",
	"case",
	"category",
	"party_count",
	"service_count",
	"samples",
	"attempted",
	"completion_rate_pct",
	"exec_avg",
	"exec_min",
	"exec_max",
	"exec_p50",
	"exec_p95",
	"exec_p99",
	"read_avg",
	"read_min",
	"read_max",
	"read_p50",
	"read_p95",
	"read_p99",
	"hit_avg",
	"hit_min",
	"hit_max",
	"hit_p50",
	"hit_p95",
	"hit_p99",
}

// SummaryRecord is one (variant, case) aggregate. It is derived purely from
// RunRecords and regenerated on demand, never persisted as source of truth.
type SummaryRecord struct {
	Variant           string
	Case              string
	Category          string
	PartyCount        int
	ServiceCount      int
	Samples           int
	Attempted         int
	CompletionRatePct float64
	Exec              stats.Summary
	Read              stats.Summary
	Hit               stats.Summary
}

// BuildSummary groups run records by (variant, case) and reduces each bucket.
// Every attempted run counts towards the completion rate; only runs with a
// parsed execution time contribute timing samples.
func BuildSummary(records []RunRecord) []SummaryRecord {
	type key struct {
		variant  string
		caseName string
	}
	type bucket struct {
		meta      RunRecord
		execMs    []float64
		reads     []float64
		hits      []float64
		attempted int
	}

	buckets := map[key]*bucket{}
	var order []key
	for _, record := range records {
		if record.Variant == "" || record.Case == "" {
			continue
		}
		k := key{variant: record.Variant, caseName: record.Case}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			order = append(order, k)
		}
		b.meta = record
		b.attempted++
		if record.ExecMs != nil {
			b.execMs = append(b.execMs, *record.ExecMs)
		}
		if record.SharedRead != nil {
			b.reads = append(b.reads, float64(*record.SharedRead))
		}
		if record.SharedHit != nil {
			b.hits = append(b.hits, float64(*record.SharedHit))
		}
	}

	summaries := make([]SummaryRecord, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		completion := math.NaN()
		if b.attempted > 0 {
			completion = float64(len(b.execMs)) / float64(b.attempted) * 100
		}
		summaries = append(summaries, SummaryRecord{
			Variant:           k.variant,
			Case:              k.caseName,
			Category:          b.meta.Category,
			PartyCount:        b.meta.PartyCount,
			ServiceCount:      b.meta.ServiceCount,
			Samples:           len(b.execMs),
			Attempted:         b.attempted,
			CompletionRatePct: completion,
			Exec:              stats.Summarize(b.execMs),
			Read:              stats.Summarize(b.reads),
			Hit:               stats.Summarize(b.hits),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Variant != summaries[j].Variant {
			return summaries[i].Variant < summaries[j].Variant
		}
		return summaries[i].Case < summaries[j].Case
	})
	return summaries
}

func (s SummaryRecord) row() []string {
	return []string{
		s.Variant,
		s.Case,
		s.Category,
		strconv.Itoa(s.PartyCount),
		strconv.Itoa(s.ServiceCount),
		strconv.Itoa(s.Samples),
		strconv.Itoa(s.Attempted),
		formatStat(s.CompletionRatePct, 2),
		formatStat(s.Exec.Avg, 4),
		formatStat(s.Exec.Min, 4),
		formatStat(s.Exec.Max, 4),
		formatStat(s.Exec.P50, 4),
		formatStat(s.Exec.P95, 4),
		formatStat(s.Exec.P99, 4),
		formatStat(s.Read.Avg, 2),
		formatStat(s.Read.Min, 0),
		formatStat(s.Read.Max, 0),
		formatStat(s.Read.P50, 0),
		formatStat(s.Read.P95, 0),
		formatStat(s.Read.P99, 0),
		formatStat(s.Hit.Avg, 2),
		formatStat(s.Hit.Min, 0),
		formatStat(s.Hit.Max, 0),
		formatStat(s.Hit.P50, 0),
		formatStat(s.Hit.P95, 0),
		formatStat(s.Hit.P99, 0),
	}
}

// formatStat renders a statistic for CSV; NaN (the undefined marker) becomes
// an empty cell, never a zero.
func formatStat(value float64, decimals int) string {
	if math.IsNaN(value) {
		return ""
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// WriteSummaryCSV writes the summary table.
func WriteSummaryCSV(path string, summaries []SummaryRecord) error {
	return writeCSV(path, SummaryFields, func(w *csv.Writer) error {
		for _, summary := range summaries {
			if err := w.Write(summary.row()); err != nil {
				return err
			}
		}
		return nil
	})
}
