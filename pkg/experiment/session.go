// Package experiment owns a benchmark session's identity and on-disk layout:
// the root directory tree, the master log, and the recorded configuration.
// Everything a session produces lives under its root so a finished run can be
// archived or diffed as a single directory.
package experiment

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Altinn/dialogporten-utils/pkg/conf"
)

// Session is one benchmark run rooted in a dedicated directory tree:
//
//	<root>/
//	  casesets/<iteration>/   generated case files
//	  sqls/                   frozen copies of the query templates
//	  output/
//	    csvs/<iteration>.csv  per-iteration run logs
//	    explains/<iteration>/ per-run plan reports
//	    parties.txt           the party value pool
//	    services.txt          the service value pool
//	  Master.log
type Session struct {
	UUID      string
	Timestamp string
	RootDir   string

	CasesetsDir string
	SqlsDir     string
	OutputDir   string
	CSVDir      string
	ExplainsDir string

	PartiesPath  string
	ServicesPath string

	logFile *os.File
}

// NewSession creates the session directory tree. An empty rootDir places the
// session under the working directory as benchmark-YYYYMMDD-HHMM.
func NewSession(rootDir string) (*Session, error) {
	now := time.Now()

	id, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "could not generate session UUID")
	}

	if rootDir == "" {
		rootDir = "benchmark-" + now.Format("20060102-1504")
	}

	session := &Session{
		UUID:      id.String(),
		Timestamp: now.Format("200601021504"),
		RootDir:   rootDir,
	}
	session.CasesetsDir = filepath.Join(rootDir, "casesets")
	session.SqlsDir = filepath.Join(rootDir, "sqls")
	session.OutputDir = filepath.Join(rootDir, "output")
	session.CSVDir = filepath.Join(session.OutputDir, "csvs")
	session.ExplainsDir = filepath.Join(session.OutputDir, "explains")
	session.PartiesPath = filepath.Join(session.OutputDir, "parties.txt")
	session.ServicesPath = filepath.Join(session.OutputDir, "services.txt")

	for _, dir := range []string{
		session.CasesetsDir,
		session.SqlsDir,
		session.CSVDir,
		session.ExplainsDir,
	} {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, errors.Wrapf(err, "could not create session directory %q", dir)
		}
	}

	return session, nil
}

// IterationCasesDir returns (and creates) the case directory for one
// iteration.
func (s *Session) IterationCasesDir(iterationName string) (string, error) {
	dir := filepath.Join(s.CasesetsDir, iterationName)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", errors.Wrapf(err, "could not create case directory %q", dir)
	}
	return dir, nil
}

// IterationExplainsDir returns (and creates) the plan report directory for
// one iteration.
func (s *Session) IterationExplainsDir(iterationName string) (string, error) {
	dir := filepath.Join(s.ExplainsDir, iterationName)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", errors.Wrapf(err, "could not create explain directory %q", dir)
	}
	return dir, nil
}

// OpenMasterLog creates Master.log in the session root and tees all logging
// to it on top of stderr.
func (s *Session) OpenMasterLog() error {
	path := filepath.Join(s.RootDir, "Master.log")
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %q", path)
	}
	s.logFile = file
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	log.Info("Starting benchmark session with uuid: ", s.UUID)
	return nil
}

// CloseMasterLog detaches the master log and closes the file.
func (s *Session) CloseMasterLog() {
	if s.logFile == nil {
		return
	}
	log.SetOutput(os.Stderr)
	s.logFile.Close()
	s.logFile = nil
}

// DumpConfig records the effective flag configuration in the session root so
// a run can be reproduced from its directory alone.
func (s *Session) DumpConfig() error {
	path := filepath.Join(s.RootDir, "config.env")
	body := conf.DumpConfig()
	if err := ioutil.WriteFile(path, []byte(body), 0644); err != nil {
		return errors.Wrapf(err, "could not write %q", path)
	}
	return nil
}

// CopyTemplates freezes the query template files into the session's sqls
// directory and returns the copied paths in input order.
func (s *Session) CopyTemplates(paths []string) ([]string, error) {
	copied := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read query template %q", path)
		}
		target := filepath.Join(s.SqlsDir, filepath.Base(path))
		if err := ioutil.WriteFile(target, data, 0644); err != nil {
			return nil, errors.Wrapf(err, "could not copy query template to %q", target)
		}
		copied = append(copied, target)
	}
	return copied, nil
}
