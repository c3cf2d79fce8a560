// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import "github.com/majewsky/gg/option"

// Normalize the weights into the range [0, 1].
//
// The range is spanned by the given bounds, where unset bounds are taken
// from the weights themselves. Bounds are widened to include all weights,
// so a weight below the lower bound never flips the order. If the range
// is empty, all weights are normalized to 0.
func Normalize(weights map[string]float64, minWeight, maxWeight option.Option[float64]) map[string]float64 {
	normalized := make(map[string]float64, len(weights))
	if len(weights) == 0 {
		return normalized
	}
	lower, hasLower := minWeight.Unpack()
	upper, hasUpper := maxWeight.Unpack()
	first := true
	for _, w := range weights {
		if (first && !hasLower) || w < lower {
			lower = w
		}
		if (first && !hasUpper) || w > upper {
			upper = w
		}
		first = false
	}
	span := upper - lower
	for subject, w := range weights {
		if span == 0 {
			normalized[subject] = 0
			continue
		}
		normalized[subject] = (w - lower) / span
	}
	return normalized
}
