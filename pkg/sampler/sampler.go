// Package sampler acquires a target number of distinct real-world attribute
// values from an enormous population without scanning it. The population is an
// opaque capability exposing only a rough size estimate and "sample roughly X%
// of rows with a given seed"; the sampler drives it with a coupon-collector
// style adaptive loop.
package sampler

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// defaultEstimate stands in when the store has no usable row estimate.
	defaultEstimate = int64(1000000000)

	// oversampleFactor compensates for duplicate values inside one
	// physical sample by requesting a proportionally larger fraction.
	oversampleFactor = 50

	// maxAttempts bounds the sampling loop regardless of convergence.
	maxAttempts = 20
)

// ErrInsufficientPopulation is returned when the store's own estimate shows
// the population is smaller than the requested number of distinct values.
var ErrInsufficientPopulation = errors.New("population is smaller than the requested sample")

// ErrExhaustedAttempts is returned together with a partial pool when the
// sampling loop did not converge. Callers should treat it as a soft failure:
// warn and continue with the shorter pool.
var ErrExhaustedAttempts = errors.New("sampling attempts exhausted before reaching target")

// ValuePool is an ordered set of distinct, non-empty attribute values.
// It is built incrementally in first-seen order and immutable once returned.
type ValuePool []string

// Population is the minimal store capability the sampler needs.
type Population interface {
	// EstimateSize returns a rough population size from store metadata.
	// Non-positive means no estimate is available.
	EstimateSize() (int64, error)
	// SampleDistinct extracts up to limit distinct values of the
	// attribute from a pseudo-random subset covering roughly percent of
	// the population. Equal seeds reach equal subsets.
	SampleDistinct(attribute string, percent float64, seed int, limit int) ([]string, error)
}

// Sampler draws distinct values from a Population.
type Sampler struct {
	population Population
}

// New returns a Sampler over the given population.
func New(population Population) *Sampler {
	return &Sampler{population: population}
}

// Sample collects targetCount distinct values of the attribute.
// On a shortfall it returns the partial pool together with
// ErrExhaustedAttempts; it returns ErrInsufficientPopulation only when the
// store's estimate proves the request cannot be satisfied.
func (s *Sampler) Sample(attribute string, targetCount int) (ValuePool, error) {
	if targetCount < 1 {
		return nil, errors.Errorf("target count must be >= 1, got %d", targetCount)
	}

	estimate, err := s.population.EstimateSize()
	if err != nil {
		log.Warn("Could not read population estimate, assuming default: ", err)
		estimate = 0
	}
	if estimate > 0 && estimate < int64(targetCount) {
		return nil, errors.Wrapf(ErrInsufficientPopulation,
			"requested %d distinct values of %s from estimated %d rows",
			targetCount, attribute, estimate)
	}
	if estimate <= 0 {
		estimate = defaultEstimate
	}

	percent := float64(targetCount) / float64(estimate) * 100 * oversampleFactor
	if percent > 100 {
		percent = 100
	}

	seen := map[string]bool{}
	pool := ValuePool{}

	for attempt := 1; attempt <= maxAttempts && len(pool) < targetCount; attempt++ {
		previous := len(pool)

		values, err := s.population.SampleDistinct(attribute, percent, attempt, targetCount)
		if err != nil {
			log.Warnf("Sampling attempt %d for %s failed: %v", attempt, attribute, err)
		}
		for _, value := range values {
			if value == "" || seen[value] {
				continue
			}
			seen[value] = true
			pool = append(pool, value)
			if len(pool) == targetCount {
				break
			}
		}

		// No progress means the physical subset keeps hitting known
		// values; widen it geometrically.
		if len(pool) == previous {
			percent = percent * 2
			if percent > 100 {
				percent = 100
			}
		}

		log.Debugf("Sampling %s: attempt %d collected %d/%d at %.4f%%",
			attribute, attempt, len(pool), targetCount, percent)
	}

	if len(pool) < targetCount {
		return pool, errors.Wrapf(ErrExhaustedAttempts,
			"collected %d/%d distinct values of %s", len(pool), targetCount, attribute)
	}
	return pool, nil
}
