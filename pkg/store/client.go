// Package store shells out to psql for every interaction with the measured
// PostgreSQL database. The benchmark never opens a database connection of its
// own: the query-executing process is an external collaborator invoked with a
// bounded timeout, and the store cache it warms up is part of the measurement.
package store

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Altinn/dialogporten-utils/pkg/executor"
)

// ErrTimeout marks a query which exceeded its deadline. The in-flight psql
// process has been killed and its output discarded.
var ErrTimeout = errors.New("query timed out")

// Psql invokes the psql binary against a fixed connection string.
type Psql struct {
	exec       executor.Executor
	connString string
	binPath    string
}

// NewPsql returns a Psql client running commands through the given executor.
func NewPsql(exec executor.Executor, connString string, binPath string) *Psql {
	if binPath == "" {
		binPath = "psql"
	}
	return &Psql{
		exec:       exec,
		connString: connString,
		binPath:    binPath,
	}
}

// Query executes a single SQL command in tuples-only, unaligned mode and
// returns the trimmed stdout. Used for sampling and metadata lookups.
func (p *Psql) Query(sql string, timeout time.Duration) (string, error) {
	out, err := p.run(sql, "-t -A -q", timeout)
	return strings.TrimSpace(out), err
}

// RunScript executes a SQL script (typically an EXPLAIN ANALYZE variant with
// the case already substituted in) and returns the raw report from stdout.
func (p *Psql) RunScript(sql string, timeout time.Duration) (string, error) {
	return p.run(sql, "-q", timeout)
}

func (p *Psql) run(sql string, options string, timeout time.Duration) (string, error) {
	scriptFile, err := ioutil.TempFile("", "dsbench-*.sql")
	if err != nil {
		return "", errors.Wrap(err, "could not create temporary SQL file")
	}
	defer os.Remove(scriptFile.Name())

	if _, err := scriptFile.WriteString(sql); err != nil {
		scriptFile.Close()
		return "", errors.Wrap(err, "could not write temporary SQL file")
	}
	if err := scriptFile.Close(); err != nil {
		return "", errors.Wrap(err, "could not close temporary SQL file")
	}

	command := fmt.Sprintf("%s %s %s -f %s",
		p.binPath, shellQuote(p.connString), options, shellQuote(scriptFile.Name()))

	handle, err := p.exec.Execute(command)
	if err != nil {
		return "", errors.Wrap(err, "could not launch psql")
	}

	if !handle.Wait(timeout) {
		if stopErr := handle.Stop(); stopErr != nil {
			log.Warn("Could not stop timed out psql process: ", stopErr)
		}
		return "", errors.Wrapf(ErrTimeout, "after %s", timeout)
	}

	exitCode, err := handle.ExitCode()
	if err != nil {
		return "", err
	}
	stdout, err := handle.Stdout()
	if err != nil {
		return "", err
	}

	if exitCode != 0 {
		stderr, _ := handle.Stderr()
		return stdout, errors.Errorf("psql exited with code %d: %s",
			exitCode, strings.TrimSpace(stderr))
	}

	return stdout, nil
}

// shellQuote wraps s in single quotes so the executor's shell passes it
// through as one argument.
func shellQuote(s string) string {
	return "'" + strings.Replace(s, "'", `'\''`, -1) + "'"
}
