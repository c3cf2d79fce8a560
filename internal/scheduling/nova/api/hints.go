// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"sort"
)

// Scheduler hints attached to the request, as lists of values by key.
// A key can be present with an empty list.
type SchedulingHints map[string][]string

// Check if the hint is present, even if it carries no values.
func (h SchedulingHints) Has(key string) bool {
	_, ok := h[key]
	return ok
}

// Get the first value of the hint, if there is one.
func (h SchedulingHints) First(key string) (string, bool) {
	values := h[key]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Parse the raw scheduler hints from the Nova request spec.
//
// A hint can be given as a single string or a list of strings.
// A null hint is kept as present without values. Any other
// value is rejected.
func ParseSchedulingHints(raw map[string]any) (SchedulingHints, error) {
	hints := make(SchedulingHints, len(raw))
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	// Sorted so that the reported error is deterministic.
	sort.Strings(keys)
	for _, key := range keys {
		switch v := raw[key].(type) {
		case nil:
			hints[key] = []string{}
		case string:
			hints[key] = []string{v}
		case []string:
			hints[key] = append([]string{}, v...)
		case []any:
			values := make([]string, 0, len(v))
			for i, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("scheduler hint %q: value %d is %T, expected string", key, i, item)
				}
				values = append(values, s)
			}
			hints[key] = values
		default:
			return nil, fmt.Errorf("scheduler hint %q: unsupported value of type %T", key, v)
		}
	}
	return hints, nil
}
