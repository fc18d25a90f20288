package scheduler

// Order direction labels recorded with every run.
const (
	OrderForward = "forward"
	OrderReverse = "reverse"
)

// RoundOrder returns the variant execution order for one fairness round as a
// permutation of variant indices, plus its direction label. Rounds are
// zero-based within an iteration.
//
// Even rounds run forward, odd rounds reversed, and both are rotated by
// iteration + round/2 so that over iterations every variant visits every
// position in both directions. Cache warm-up then spreads evenly instead of
// always favoring whichever variant sorts first.
func RoundOrder(variantCount, iteration, round int) ([]int, string) {
	if variantCount <= 0 {
		return nil, direction(round)
	}

	order := make([]int, variantCount)
	for i := range order {
		order[i] = i
	}
	if round%2 == 1 {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	offset := (iteration + round/2) % variantCount
	if offset < 0 {
		offset += variantCount
	}
	rotated := make([]int, 0, variantCount)
	rotated = append(rotated, order[offset:]...)
	rotated = append(rotated, order[:offset]...)
	return rotated, direction(round)
}

func direction(round int) string {
	if round%2 == 1 {
		return OrderReverse
	}
	return OrderForward
}
