// Package scheduler drives benchmark execution: it decides the order in which
// query variants run within each fairness round and performs the runs one at
// a time against the database. Execution is strictly sequential; parallel runs
// would contend for the store cache being measured.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Altinn/dialogporten-utils/pkg/cases"
	"github.com/Altinn/dialogporten-utils/pkg/plan"
	"github.com/Altinn/dialogporten-utils/pkg/report"
)

// ScriptRunner executes one SQL script and returns its raw output.
type ScriptRunner interface {
	RunScript(sql string, timeout time.Duration) (string, error)
}

// ExplainBlock is a captured plan report, labeled so it can be written to a
// per-run file and concatenated into the corpus.
type ExplainBlock struct {
	Label   string
	Content string
}

// Config holds the per-run knobs that do not change between iterations.
type Config struct {
	PartyHi   int
	ServiceHi int
	Timeout   time.Duration
}

// Scheduler runs (case, variant) pairs through a ScriptRunner.
type Scheduler struct {
	runner ScriptRunner
	config Config
}

// New returns a Scheduler executing through runner.
func New(runner ScriptRunner, config Config) *Scheduler {
	return &Scheduler{runner: runner, config: config}
}

// RunIteration executes every fairness round of one iteration over the given
// cases and variants, in the order RoundOrder dictates, and returns the run
// records plus the captured plan reports. A run that times out or errors
// yields a record with nil metrics and a warning; only context cancellation
// stops the iteration, and even then the records collected so far are
// returned so partial results can be flushed.
func (s *Scheduler) RunIteration(ctx context.Context, testCases []cases.Case,
	variants []Variant, iteration int, iterationSeed int64,
	rounds int) ([]report.RunRecord, []ExplainBlock, error) {

	var records []report.RunRecord
	var explains []ExplainBlock

	totalRuns := rounds * len(variants) * len(testCases)
	runIndex := 0

	for round := 0; round < rounds; round++ {
		order, orderLabel := RoundOrder(len(variants), iteration, round)
		for positionIndex, variantIndex := range order {
			position := positionIndex + 1
			variant := variants[variantIndex]
			for _, testCase := range testCases {
				if err := ctx.Err(); err != nil {
					return records, explains, err
				}
				runIndex++
				log.Infof("[%d/%d] seed %d round %d/%d position %d/%d: %s on %s",
					runIndex, totalRuns, iterationSeed, round+1, rounds,
					position, len(variants), variant.Name, testCase.Name)

				record, block := s.runOne(testCase, variant)
				record.IterationSeed = iterationSeed
				record.Round = round + 1
				record.Position = position
				record.VariantCount = len(variants)
				record.Order = orderLabel
				records = append(records, record)

				if block != nil {
					block.Label = fmt.Sprintf("%s__%s__r%02d_p%02d.txt",
						testCase.Name, variant.Name, round+1, position)
					explains = append(explains, *block)
				}
			}
		}
	}

	return records, explains, nil
}

func (s *Scheduler) runOne(testCase cases.Case, variant Variant) (report.RunRecord, *ExplainBlock) {
	record := report.RunRecord{
		Category:     cases.Category(testCase.PartyCount(), testCase.ServiceCount(), s.config.PartyHi, s.config.ServiceHi),
		Case:         testCase.Name,
		PartyCount:   testCase.PartyCount(),
		ServiceCount: testCase.ServiceCount(),
		Variant:      variant.Name,
		CacheStatus:  plan.CacheStatus(nil, nil),
	}

	caseJSON, err := testCase.JSON()
	if err != nil {
		log.Warnf("Could not serialize case %s: %v", testCase.Name, err)
		return record, nil
	}

	output, err := s.runner.RunScript(variant.Fill(caseJSON), s.config.Timeout)
	if err != nil {
		log.Warnf("Run failed for %s on %s: %v", variant.Name, testCase.Name, err)
		return record, nil
	}

	cleaned := plan.CleanReport(output)
	metrics := plan.Parse(cleaned)
	record.ExecMs = metrics.ExecTimeMs
	record.SharedRead = metrics.SharedRead
	record.SharedHit = metrics.SharedHit
	record.SharedDirtied = metrics.SharedDirtied
	record.CacheStatus = plan.CacheStatus(metrics.SharedRead, metrics.SharedHit)

	return record, &ExplainBlock{Content: strings.TrimRight(cleaned, "\n")}
}
