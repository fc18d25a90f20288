package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Altinn/dialogporten-utils/pkg/cases"
	"github.com/Altinn/dialogporten-utils/pkg/conf"
	"github.com/Altinn/dialogporten-utils/pkg/dictionary"
	"github.com/Altinn/dialogporten-utils/pkg/executor"
	"github.com/Altinn/dialogporten-utils/pkg/experiment"
	"github.com/Altinn/dialogporten-utils/pkg/plan"
	"github.com/Altinn/dialogporten-utils/pkg/report"
	"github.com/Altinn/dialogporten-utils/pkg/sampler"
	"github.com/Altinn/dialogporten-utils/pkg/scheduler"
	"github.com/Altinn/dialogporten-utils/pkg/store"
	"github.com/Altinn/dialogporten-utils/pkg/utils/errutil"
)

var (
	// Pool acquisition: for each attribute either generate a pool of the
	// given size from the database or reuse an existing file.
	partyPoolCountFlag = conf.NewIntFlag(
		"generate_party_pool_with_count", "Generate a party pool of the given size.", 0)
	partyPoolFileFlag = conf.NewFileFlag(
		"with_party_pool_file", "Use an existing party pool file (one value per line).", "")
	servicePoolCountFlag = conf.NewIntFlag(
		"generate_service_pool_with_count", "Generate a service pool of the given size.", 0)
	servicePoolFileFlag = conf.NewFileFlag(
		"with_service_pool_file", "Use an existing service pool file (one value per line).", "")

	generateSetFlag = conf.NewStringFlag(
		"generate_set",
		"Semicolon-separated list of parties,services,groups combinations "+
			"(e.g. '1,1,1;5,3000,4'). Empty uses the default magnitude grid.",
		"")
	sqlsFlag = conf.NewStringFlag(
		"sqls", "Comma-separated glob(s) for SQL query variant files.", "sql/*.sql")

	iterationsFlag = conf.NewIntFlag(
		"iterations", "Number of benchmark iterations, each with its own seed and case set.", 1)
	seedFlag = conf.NewIntFlag(
		"seed", "Base seed; iteration i uses seed+i.", 20260205)
	roundsFlag = conf.NewIntFlag(
		"rounds_per_iteration",
		"Number of fairness rounds per iteration. Each round runs every variant with rotated order.", 2)
	paddingFlag = conf.NewIntFlag(
		"padding", "Zero padding width for iteration names.", 3)
	outDirFlag = conf.NewStringFlag(
		"out_dir", "Session root directory (default: benchmark-YYYYMMDD-HHMM in cwd).", "")

	partyHiFlag = conf.NewIntFlag(
		"party_hi", "Party count above which a case is categorized high.", 10)
	serviceHiFlag = conf.NewIntFlag(
		"service_hi", "Service count above which a case is categorized high.", 20)
)

func main() {
	conf.SetAppName("dsbench")
	conf.SetHelp(`Dialog search benchmark: runs SQL query variants over generated
access cases against a PostgreSQL database and reports per-variant plan metrics.`)
	errutil.Check(conf.ParseFlags())
	log.SetLevel(conf.LogLevel())

	errutil.Check(validateFlags())

	session, err := experiment.NewSession(outDirFlag.Value())
	errutil.Check(err)
	errutil.Check(session.OpenMasterLog())
	defer session.CloseMasterLog()
	errutil.Check(session.DumpConfig())

	// SIGINT does not abandon the session: collected records are still
	// flushed so a long run interrupted near the end is not a total loss.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	psql := store.NewPsql(executor.NewLocal(),
		store.ConnStringFlag.Value(), store.PsqlPathFlag.Value())
	queryTimeout := store.QueryTimeoutFlag.Value()

	partyPool, err := acquirePool(psql, "party",
		partyPoolCountFlag.Value(), partyPoolFileFlag.Value(), session.PartiesPath)
	errutil.Check(err)
	servicePool, err := acquirePool(psql, "service",
		servicePoolCountFlag.Value(), servicePoolFileFlag.Value(), session.ServicesPath)
	errutil.Check(err)

	variants, err := scheduler.LoadVariants(sqlsFlag.Value())
	errutil.Check(err)
	if len(variants) == 0 {
		log.Fatalf("No usable query variants for %q", sqlsFlag.Value())
	}
	variantPaths := make([]string, 0, len(variants))
	for _, variant := range variants {
		variantPaths = append(variantPaths, variant.Path)
	}
	_, err = session.CopyTemplates(variantPaths)
	errutil.Check(err)
	log.Infof("Loaded %d query variants", len(variants))

	combos, err := requestedCombos(len(partyPool), len(servicePool))
	errutil.Check(err)

	sched := scheduler.New(psql, scheduler.Config{
		PartyHi:   partyHiFlag.Value(),
		ServiceHi: serviceHiFlag.Value(),
		Timeout:   queryTimeout,
	})

	var aggregate []report.RunRecord
	var catalog []scheduler.ExplainBlock

	for iteration := 0; iteration < iterationsFlag.Value(); iteration++ {
		iterSeed := int64(seedFlag.Value() + iteration)
		iterName := fmt.Sprintf("%0*d", paddingFlag.Value(), iterSeed)
		log.Infof("Iteration %d/%d (seed %d)", iteration+1, iterationsFlag.Value(), iterSeed)

		testCases, err := generateCases(session, iterName, iterSeed, combos, partyPool, servicePool)
		errutil.Check(err)
		if len(testCases) == 0 {
			log.Warnf("No cases generated for iteration %s", iterName)
			continue
		}

		records, explains, runErr := sched.RunIteration(
			ctx, testCases, variants, iteration, iterSeed, roundsFlag.Value())

		if len(records) == 0 {
			log.Warnf("No benchmark rows produced for iteration %s", iterName)
		} else {
			csvPath := filepath.Join(session.CSVDir, iterName+".csv")
			errutil.Check(report.WriteRunCSV(csvPath, records))
			aggregate = append(aggregate, records...)
		}

		errutil.Check(writeExplains(session, iterName, explains))
		catalog = append(catalog, explains...)

		if runErr != nil {
			log.Warnf("Iteration %s interrupted: %v; flushing partial results", iterName, runErr)
			break
		}
	}

	if len(aggregate) == 0 {
		log.Fatal("No results to report")
	}

	log.Info("Writing summary and concatenated plan reports")
	summaries := report.BuildSummary(aggregate)
	summaryPath := filepath.Join(session.RootDir, "summary-"+session.Timestamp+".csv")
	errutil.Check(report.WriteSummaryCSV(summaryPath, summaries))

	for round := 1; round <= roundsFlag.Value(); round++ {
		var roundRecords []report.RunRecord
		for _, record := range aggregate {
			if record.Round == round {
				roundRecords = append(roundRecords, record)
			}
		}
		roundPath := filepath.Join(session.RootDir, fmt.Sprintf("summary-round%d.csv", round))
		errutil.Check(report.WriteSummaryCSV(roundPath, report.BuildSummary(roundRecords)))
	}

	explainsAllPath := filepath.Join(session.RootDir, "explains_all.txt")
	errutil.Check(writeCorpus(explainsAllPath, catalog))
	if err := condenseCorpus(explainsAllPath); err != nil {
		log.Warnf("Could not condense plan corpus: %v", err)
	}

	report.RenderRollupTable(os.Stdout, report.BuildVariantRollups(summaries))
	fmt.Println(session.RootDir)
}

func validateFlags() error {
	if iterationsFlag.Value() < 1 {
		return errors.New("iterations must be >= 1")
	}
	if roundsFlag.Value() < 1 {
		return errors.New("rounds_per_iteration must be >= 1")
	}
	if err := validatePoolFlags("party", partyPoolCountFlag.Value(), partyPoolFileFlag.Value()); err != nil {
		return err
	}
	return validatePoolFlags("service", servicePoolCountFlag.Value(), servicePoolFileFlag.Value())
}

func validatePoolFlags(attribute string, count int, file string) error {
	if count > 0 && file != "" {
		return errors.Errorf(
			"choose either generating a %s pool or using a %s pool file, not both", attribute, attribute)
	}
	if count <= 0 && file == "" {
		return errors.Errorf(
			"a %s pool is required: set a pool size to generate or give a pool file", attribute)
	}
	return nil
}

// acquirePool either copies an existing pool file into the session or samples
// a fresh pool from the database, recording it in the session either way.
func acquirePool(psql *store.Psql, attribute string, count int, file string, destPath string) ([]string, error) {
	if file != "" {
		log.Infof("Using existing %s pool file: %s", attribute, file)
		pool, err := readPoolFile(file)
		if err != nil {
			return nil, err
		}
		return pool, writePoolFile(destPath, pool)
	}

	log.Infof("Sampling %s pool of %d from the database", attribute, count)
	population := store.NewDialogPopulation(psql, store.QueryTimeoutFlag.Value())
	pool, err := sampler.New(population).Sample(attribute, count)
	if err != nil {
		if errors.Cause(err) != sampler.ErrExhaustedAttempts {
			return nil, err
		}
		log.Warnf("Continuing with a partial %s pool: %v", attribute, err)
	}
	if len(pool) == 0 {
		return nil, errors.Errorf("%s sampling returned no values", attribute)
	}
	return pool, writePoolFile(destPath, pool)
}

func readPoolFile(path string) ([]string, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read pool file %q", path)
	}
	var values []string
	for _, line := range strings.Split(string(data), "\n") {
		if value := strings.TrimSpace(line); value != "" {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return nil, errors.Errorf("pool file %q is empty", path)
	}
	return values, nil
}

func writePoolFile(path string, values []string) error {
	body := strings.Join(values, "\n") + "\n"
	return errors.Wrapf(ioutil.WriteFile(path, []byte(body), 0644),
		"could not write pool file %q", path)
}

func requestedCombos(partyPoolSize, servicePoolSize int) ([]cases.Combo, error) {
	if strings.TrimSpace(generateSetFlag.Value()) == "" {
		return cases.DefaultCombinations(partyPoolSize, servicePoolSize), nil
	}
	return cases.ParseCombos(generateSetFlag.Value())
}

// generateCases builds one iteration's case set on disk and loads it back in
// run order. Combinations the pools cannot satisfy are skipped with a
// warning.
func generateCases(session *experiment.Session, iterName string, iterSeed int64,
	combos []cases.Combo, partyPool, servicePool []string) ([]cases.Case, error) {

	dir, err := session.IterationCasesDir(iterName)
	if err != nil {
		return nil, err
	}

	generator := cases.NewGenerator(iterSeed)
	counter, err := cases.NextCounter(dir, iterSeed, false)
	if err != nil {
		return nil, err
	}

	for _, combo := range combos {
		clamped := cases.ClampCombo(combo, len(partyPool), len(servicePool))
		name := cases.Filename(counter, iterSeed, false, clamped)
		generated, err := generator.Generate(partyPool, servicePool,
			clamped.Parties, clamped.Services, clamped.Groups)
		if err != nil {
			if errors.Cause(err) == cases.ErrInvalidArity {
				log.Warnf("Skipping combination %dp-%ds-%dg: %v",
					clamped.Parties, clamped.Services, clamped.Groups, err)
				continue
			}
			return nil, err
		}
		generated.Name = name
		if _, err := cases.Write(dir, name, generated); err != nil {
			return nil, err
		}
		counter++
	}

	return cases.LoadDir(dir)
}

func writeExplains(session *experiment.Session, iterName string, explains []scheduler.ExplainBlock) error {
	if len(explains) == 0 {
		return nil
	}
	dir, err := session.IterationExplainsDir(iterName)
	if err != nil {
		return err
	}
	for _, block := range explains {
		path := filepath.Join(dir, block.Label)
		if err := ioutil.WriteFile(path, []byte(block.Content+"\n"), 0644); err != nil {
			return errors.Wrapf(err, "could not write plan report %q", path)
		}
	}
	return nil
}

func writeCorpus(path string, catalog []scheduler.ExplainBlock) error {
	var builder strings.Builder
	for _, block := range catalog {
		builder.WriteString("== " + block.Label + " ==\n")
		builder.WriteString(block.Content)
		builder.WriteString("\n\n")
	}
	return errors.Wrapf(ioutil.WriteFile(path, []byte(builder.String()), 0644),
		"could not write %q", path)
}

// condenseCorpus rewrites the concatenated plan corpus into its condensed,
// dictionary-compressed form next to the original.
func condenseCorpus(corpusPath string) error {
	data, err := ioutil.ReadFile(corpusPath)
	if err != nil {
		return errors.Wrapf(err, "could not read %q", corpusPath)
	}
	condensed := plan.Condense(strings.Split(string(data), "\n"))
	encoded, err := dictionary.EncodeCorpus(condensed)
	if err != nil {
		return err
	}
	outPath := corpusPath + ".condensed.txt"
	return errors.Wrapf(ioutil.WriteFile(outPath, []byte(encoded), 0644),
		"could not write %q", outPath)
}
