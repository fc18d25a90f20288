package cases

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// ErrInvalidArity marks a request that would produce an empty group or uses
// non-positive counts. It is a user input error: skip the case in batch mode,
// abort for a single request.
var ErrInvalidArity = errors.New("invalid case arity")

// ErrPoolExhausted marks a draw larger than the backing value pool.
var ErrPoolExhausted = errors.New("value pool smaller than requested draw")

// Generator produces cases deterministically from a seed. A single Generator
// is used for a whole batch so consecutive cases draw from one pseudo-random
// sequence, exactly reproducible from (pools, combos, seed).
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds one case: totalParties parties drawn without replacement
// from partyPool and partitioned round-robin into groupCount groups after a
// shuffle, plus per-group service subsets of a shared totalServices-sized
// service set. Group service subsets are independent random draws of size
// uniform in [ceil(0.5*totalServices), totalServices]; they are not a
// partition.
func (g *Generator) Generate(partyPool, servicePool []string, totalParties, totalServices, groupCount int) (Case, error) {
	if totalParties < 1 || totalServices < 1 {
		return Case{}, errors.Wrapf(ErrInvalidArity,
			"party and service counts must be >= 1, got %d and %d", totalParties, totalServices)
	}
	if groupCount < 1 {
		return Case{}, errors.Wrapf(ErrInvalidArity, "group count must be >= 1, got %d", groupCount)
	}
	if totalParties < groupCount {
		return Case{}, errors.Wrapf(ErrInvalidArity,
			"group count %d exceeds total parties %d (no empty groups)", groupCount, totalParties)
	}

	parties, err := g.sample(partyPool, totalParties)
	if err != nil {
		return Case{}, errors.Wrap(err, "drawing parties")
	}
	partyGroups := g.distributeParties(parties, groupCount)

	serviceGroups, err := g.groupServices(servicePool, totalServices, groupCount)
	if err != nil {
		return Case{}, errors.Wrap(err, "drawing services")
	}

	groups := make([]Group, groupCount)
	for index := range groups {
		groups[index] = Group{
			Parties:  partyGroups[index],
			Services: serviceGroups[index],
		}
	}
	return Case{Groups: groups}, nil
}

// sample draws n values without replacement, in random order.
func (g *Generator) sample(pool []string, n int) ([]string, error) {
	if n > len(pool) {
		return nil, errors.Wrapf(ErrPoolExhausted, "need %d values, pool holds %d", n, len(pool))
	}
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n], nil
}

// distributeParties partitions the drawn parties round-robin after a shuffle,
// yielding near-even, non-empty groups.
func (g *Generator) distributeParties(parties []string, groupCount int) [][]string {
	shuffled := make([]string, len(parties))
	copy(shuffled, parties)
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make([][]string, groupCount)
	for index, party := range shuffled {
		slot := index % groupCount
		groups[slot] = append(groups[slot], party)
	}
	return groups
}

// groupServices picks the full per-case service set, then an independent
// random-size subset of it for every group.
func (g *Generator) groupServices(servicePool []string, totalServices, groupCount int) ([][]string, error) {
	selected, err := g.sample(servicePool, totalServices)
	if err != nil {
		return nil, err
	}

	minSize := int(math.Ceil(float64(totalServices) * 0.5))
	if minSize < 1 {
		minSize = 1
	}

	groups := make([][]string, groupCount)
	for index := range groups {
		size := minSize + g.rng.Intn(totalServices-minSize+1)
		subset, err := g.sample(selected, size)
		if err != nil {
			return nil, err
		}
		groups[index] = subset
	}
	return groups, nil
}
