package cases

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// Filenames encode (sequence counter, optional seed, magnitudes) purely for
// traceability: NNN-[seed-]Pp-Ss-Gg.json. Nothing downstream depends on the
// encoding.
var (
	counterWithSeedPattern = regexp.MustCompile(`^(\d{3})-(\d+)-.*\.json$`)
	counterPattern         = regexp.MustCompile(`^(\d{3})-.*\.json$`)
)

// Filename builds the case filename for the given counter and combo.
func Filename(counter int, seed int64, includeSeed bool, combo Combo) string {
	if includeSeed {
		return fmt.Sprintf("%03d-%d-%dp-%ds-%dg.json",
			counter, seed, combo.Parties, combo.Services, combo.Groups)
	}
	return fmt.Sprintf("%03d-%dp-%ds-%dg.json",
		counter, combo.Parties, combo.Services, combo.Groups)
}

// NextCounter scans dir for previously written case files and returns the
// next free sequence number. With includeSeed only files written under the
// same seed are considered.
func NextCounter(dir string, seed int64, includeSeed bool) (int, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "could not list case directory %q", dir)
	}

	maxCounter := 0
	for _, entry := range entries {
		name := entry.Name()
		var match []string
		if includeSeed {
			match = counterWithSeedPattern.FindStringSubmatch(name)
			if match == nil {
				continue
			}
			fileSeed, err := strconv.ParseInt(match[2], 10, 64)
			if err != nil || fileSeed != seed {
				continue
			}
		} else {
			match = counterPattern.FindStringSubmatch(name)
			if match == nil {
				continue
			}
		}
		counter, err := strconv.Atoi(match[1])
		if err == nil && counter > maxCounter {
			maxCounter = counter
		}
	}
	return maxCounter + 1, nil
}

// Write stores the case under dir with the given name and returns the full
// path.
func Write(dir, name string, c Case) (string, error) {
	data, err := c.JSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "could not write case file %q", path)
	}
	return path, nil
}
