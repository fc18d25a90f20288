package cases

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MaxDefaultCases caps the default grid; the cross-product is sub-sampled to
// at most this many combinations.
const MaxDefaultCases = 50

// The default grid spans magnitude scales rather than a dense cross-product.
var (
	defaultPartyCandidates   = []int{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000}
	defaultServiceCandidates = []int{1, 2, 5, 10, 100, 1000, 3000}
	defaultGroupCandidates   = []int{1, 2, 5, 10, 20, 50}
)

// Combo is one (parties, services, groups) request.
type Combo struct {
	Parties  int
	Services int
	Groups   int
}

// DefaultCombinations builds the default (party, service, group) grid, clamped
// to the pool sizes and deterministically sub-sampled to MaxDefaultCases by
// picking evenly spaced indices. First and last combinations are always kept
// when the grid exceeds the cap, guaranteeing both ends of the magnitude
// range are covered.
func DefaultCombinations(partyPoolSize, servicePoolSize int) []Combo {
	partyValues := clampList(defaultPartyCandidates, partyPoolSize, "party count")
	serviceValues := clampList(defaultServiceCandidates, servicePoolSize, "service count")

	var combos []Combo
	for _, parties := range partyValues {
		for _, services := range serviceValues {
			for _, groups := range defaultGroupCandidates {
				combos = append(combos, Combo{Parties: parties, Services: services, Groups: groups})
			}
		}
	}

	if len(combos) > MaxDefaultCases {
		indices := pickEvenlySpacedIndices(len(combos), MaxDefaultCases)
		picked := make([]Combo, 0, len(indices))
		for _, index := range indices {
			picked = append(picked, combos[index])
		}
		combos = picked
	}

	return dedupeCombos(combos)
}

// ParseCombos parses a semicolon-separated list of "parties,services,groups"
// entries, e.g. "1,1,1;5,3000,4".
func ParseCombos(spec string) ([]Combo, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, errors.New("generate set cannot be empty")
	}

	var combos []Combo
	for _, raw := range strings.Split(spec, ";") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) != 3 {
			return nil, errors.Errorf(
				"invalid generate set entry %q, expected 'parties,services,groups'", entry)
		}
		values := make([]int, 3)
		for index, part := range parts {
			value, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, errors.Errorf("invalid generate set entry %q, must be integers", entry)
			}
			values[index] = value
		}
		combos = append(combos, Combo{Parties: values[0], Services: values[1], Groups: values[2]})
	}

	if len(combos) == 0 {
		return nil, errors.New("generate set did not contain any valid entries")
	}
	return combos, nil
}

// ClampCombo limits a combo's party and service counts to the pool sizes,
// warning when a value had to be lowered.
func ClampCombo(combo Combo, partyPoolSize, servicePoolSize int) Combo {
	combo.Parties = clampValue(combo.Parties, partyPoolSize, "party count")
	combo.Services = clampValue(combo.Services, servicePoolSize, "service count")
	return combo
}

func clampValue(value, max int, label string) int {
	if value > max {
		log.Warnf("%s %d exceeds available %d; clamped to %d", label, value, max, max)
		return max
	}
	return value
}

func clampList(values []int, max int, label string) []int {
	clamped := false
	var unique []int
	seen := map[int]bool{}
	for _, value := range values {
		if value > max {
			value = max
			clamped = true
		}
		if !seen[value] {
			seen[value] = true
			unique = append(unique, value)
		}
	}
	if clamped {
		log.Warnf("Some %s values exceed available %d; clamped", label, max)
	}
	return unique
}

// pickEvenlySpacedIndices selects target indices spread evenly over
// [0, count). For target > 1 the first and last index are always included;
// rounding collisions are backfilled with the lowest unused indices.
func pickEvenlySpacedIndices(count, target int) []int {
	if target <= 0 {
		return nil
	}
	if target == 1 {
		if count == 0 {
			return nil
		}
		return []int{count / 2}
	}
	if count <= target {
		indices := make([]int, count)
		for index := range indices {
			indices[index] = index
		}
		return indices
	}

	step := float64(count-1) / float64(target-1)
	seen := map[int]bool{}
	var unique []int
	for i := 0; i < target; i++ {
		index := int(math.Round(float64(i) * step))
		if !seen[index] {
			seen[index] = true
			unique = append(unique, index)
		}
	}
	for index := 0; index < count && len(unique) < target; index++ {
		if !seen[index] {
			seen[index] = true
			unique = append(unique, index)
		}
	}
	sort.Ints(unique)
	return unique
}

func dedupeCombos(combos []Combo) []Combo {
	seen := map[Combo]bool{}
	var unique []Combo
	for _, combo := range combos {
		if !seen[combo] {
			seen[combo] = true
			unique = append(unique, combo)
		}
	}
	return unique
}
