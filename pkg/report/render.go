package report

import (
	"io"
	"math"
	"sort"

	"github.com/olekukonko/tablewriter"
)

// VariantRollup is the coarsest view: one line per query variant, averaging
// the per-case statistics without weighting by sample count. A variant that
// only completed on small cases is not rewarded for it.
type VariantRollup struct {
	Variant           string
	Cases             int
	CompletionRatePct float64
	ExecAvg           float64
	ExecP50           float64
	ExecP95           float64
	ExecP99           float64
	ReadAvg           float64
	HitAvg            float64
}

// BuildVariantRollups reduces summary records to one rollup per variant. Each
// statistic is the unweighted mean of that statistic over the variant's cases,
// with undefined (NaN) case values skipped; a statistic undefined for every
// case stays NaN.
func BuildVariantRollups(summaries []SummaryRecord) []VariantRollup {
	type accumulator struct {
		cases      int
		completion meanAcc
		execAvg    meanAcc
		execP50    meanAcc
		execP95    meanAcc
		execP99    meanAcc
		readAvg    meanAcc
		hitAvg     meanAcc
	}

	accs := map[string]*accumulator{}
	var order []string
	for _, summary := range summaries {
		acc, ok := accs[summary.Variant]
		if !ok {
			acc = &accumulator{}
			accs[summary.Variant] = acc
			order = append(order, summary.Variant)
		}
		acc.cases++
		acc.completion.add(summary.CompletionRatePct)
		acc.execAvg.add(summary.Exec.Avg)
		acc.execP50.add(summary.Exec.P50)
		acc.execP95.add(summary.Exec.P95)
		acc.execP99.add(summary.Exec.P99)
		acc.readAvg.add(summary.Read.Avg)
		acc.hitAvg.add(summary.Hit.Avg)
	}
	sort.Strings(order)

	rollups := make([]VariantRollup, 0, len(order))
	for _, variant := range order {
		acc := accs[variant]
		rollups = append(rollups, VariantRollup{
			Variant:           variant,
			Cases:             acc.cases,
			CompletionRatePct: acc.completion.mean(),
			ExecAvg:           acc.execAvg.mean(),
			ExecP50:           acc.execP50.mean(),
			ExecP95:           acc.execP95.mean(),
			ExecP99:           acc.execP99.mean(),
			ReadAvg:           acc.readAvg.mean(),
			HitAvg:            acc.hitAvg.mean(),
		})
	}
	return rollups
}

type meanAcc struct {
	sum   float64
	count int
}

func (m *meanAcc) add(value float64) {
	if math.IsNaN(value) {
		return
	}
	m.sum += value
	m.count++
}

func (m *meanAcc) mean() float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.count)
}

// RenderRollupTable writes the per-variant rollup as an ASCII table.
func RenderRollupTable(out io.Writer, rollups []VariantRollup) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{
		"variant", "cases", "completion %",
		"exec avg", "exec p50", "exec p95", "exec p99",
		"read avg", "hit avg",
	})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT})

	for _, rollup := range rollups {
		table.Append([]string{
			rollup.Variant,
			formatStat(float64(rollup.Cases), 0),
			formatStat(rollup.CompletionRatePct, 2),
			formatStat(rollup.ExecAvg, 4),
			formatStat(rollup.ExecP50, 4),
			formatStat(rollup.ExecP95, 4),
			formatStat(rollup.ExecP99, 4),
			formatStat(rollup.ReadAvg, 2),
			formatStat(rollup.HitAvg, 2),
		})
	}
	table.Render()
}
