// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"errors"
)

var (
	// This error is returned from the step at any time when the step should be skipped.
	ErrStepSkipped = errors.New("step skipped")
)

// Reason label used when an error doesn't tell why it happened.
const unknownReason = "unknown"

// Errors can implement this interface to expose a short,
// low-cardinality reason that is used as a metric label.
type reasoner interface {
	Reason() string
}

// Get the reason of the error for metrics.
func errorReason(err error) string {
	var r reasoner
	if errors.As(err, &r) {
		return r.Reason()
	}
	return unknownReason
}
