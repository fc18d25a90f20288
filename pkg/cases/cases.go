// Package cases builds and stores workload descriptions: named cases made of
// groups of party and service identifiers, generated deterministically from
// sampled value pools and a seed.
package cases

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Group is one access grouping inside a case. Parties across the groups of a
// case form a strict partition of the case's party set; Services are
// independent subsets of the case's service set and may overlap between
// groups. The asymmetry models overlapping resource access and is deliberate.
type Group struct {
	Parties  []string `json:"Parties"`
	Services []string `json:"Services"`
}

// Case is a named workload: an ordered list of groups. Cases are immutable
// after creation; the scheduler only reads them.
type Case struct {
	Name   string
	Groups []Group
}

// PartyCount returns the cardinality of the union of Parties across groups.
func (c Case) PartyCount() int {
	return unionSize(c.Groups, func(g Group) []string { return g.Parties })
}

// ServiceCount returns the cardinality of the union of Services across groups.
func (c Case) ServiceCount() int {
	return unionSize(c.Groups, func(g Group) []string { return g.Services })
}

func unionSize(groups []Group, pick func(Group) []string) int {
	seen := map[string]bool{}
	for _, group := range groups {
		for _, value := range pick(group) {
			seen[value] = true
		}
	}
	return len(seen)
}

// JSON returns the stable on-disk form of the case: one JSON array of
// {Parties, Services} objects. This is also the form substituted into query
// templates.
func (c Case) JSON() ([]byte, error) {
	data, err := json.Marshal(c.Groups)
	if err != nil {
		return nil, errors.Wrapf(err, "could not serialize case %q", c.Name)
	}
	return data, nil
}

// Category buckets a case by magnitude: high/low party count crossed with
// high/low service count, e.g. "hpc/lsc".
func Category(partyCount, serviceCount, partyHi, serviceHi int) string {
	p := "lpc"
	if partyCount > partyHi {
		p = "hpc"
	}
	s := "lsc"
	if serviceCount > serviceHi {
		s = "hsc"
	}
	return fmt.Sprintf("%s/%s", p, s)
}

// LoadDir reads every case file in dir, skipping unparseable files with a
// warning, and returns the cases ordered by (party count, service count,
// name) so runs proceed from small to large workloads.
func LoadDir(dir string) ([]Case, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "could not list case files in %q", dir)
	}
	sort.Strings(paths)

	var loaded []Case
	for _, path := range paths {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			log.Warnf("Could not read case file %s: %v", path, err)
			continue
		}
		var groups []Group
		if err := json.Unmarshal(data, &groups); err != nil {
			log.Warnf("Could not parse case file %s: %v", path, err)
			continue
		}
		loaded = append(loaded, Case{
			Name:   filepath.Base(path),
			Groups: groups,
		})
	}

	sort.Slice(loaded, func(i, j int) bool {
		pi, pj := loaded[i].PartyCount(), loaded[j].PartyCount()
		if pi != pj {
			return pi < pj
		}
		si, sj := loaded[i].ServiceCount(), loaded[j].ServiceCount()
		if si != sj {
			return si < sj
		}
		return loaded[i].Name < loaded[j].Name
	})

	return loaded, nil
}
