package bank

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
)

// Weights is a discrete distribution over choice names, e.g.
// {"am": 70, "au": 30}. Weights need not sum to any particular total.
type Weights map[string]int

// ParseWeights decodes a JSON weight map passed on the command line.
func ParseWeights(s string) (Weights, error) {
	if s == "" {
		return nil, nil
	}
	var w Weights
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return nil, fmt.Errorf("failed to parse weight map %q: %w", s, err)
	}
	return w, nil
}

// Choose draws one name from the distribution. Iteration order is made
// deterministic by sorting the names, so equal seeds give equal draws.
func (w Weights) Choose(rng *rand.Rand) (string, error) {
	if len(w) == 0 {
		return "", fmt.Errorf("empty weight map")
	}

	names := make([]string, 0, len(w))
	total := 0
	for name, weight := range w {
		if weight < 0 {
			return "", fmt.Errorf("negative weight for %q", name)
		}
		names = append(names, name)
		total += weight
	}
	if total == 0 {
		return "", fmt.Errorf("weight map sums to zero")
	}
	sort.Strings(names)

	pick := rng.Intn(total)
	for _, name := range names {
		pick -= w[name]
		if pick < 0 {
			return name, nil
		}
	}
	return names[len(names)-1], nil
}
