// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
)

// Wrapper for weighers that validates them after execution.
type WeigherValidator[RequestType PipelineRequest] struct {
	// The wrapped weigher to validate.
	Weigher Step[RequestType]
}

// Initialize the wrapped weigher with its options.
func (s *WeigherValidator[RequestType]) Init(opts conf.RawOpts) error {
	return s.Weigher.Init(opts)
}

// Wrap the weigher in a validator.
func validateWeigher[RequestType PipelineRequest](weigher Step[RequestType]) *WeigherValidator[RequestType] {
	return &WeigherValidator[RequestType]{Weigher: weigher}
}

// Run the weigher and validate what happens.
func (s *WeigherValidator[RequestType]) Run(traceLog *slog.Logger, request RequestType) (*StepResult, error) {
	result, err := s.Weigher.Run(traceLog, request)
	if err != nil {
		return nil, err
	}
	// The same subject may appear multiple times in the request,
	// so deduplicate the subjects first before the validation.
	deduplicated := map[string]struct{}{}
	for _, subject := range request.GetSubjects() {
		deduplicated[subject] = struct{}{}
	}
	for subject := range deduplicated {
		_, weighed := result.Activations[subject]
		_, failed := result.Errors[subject]
		if weighed == failed {
			return nil, fmt.Errorf("safety: subject %s must be either weighed or failed", subject)
		}
	}
	if len(result.Activations)+len(result.Errors) != len(deduplicated) {
		return nil, errors.New("safety: step returned results for subjects not in the request")
	}
	for subject, w := range result.Activations {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("safety: non-finite weight for subject %s", subject)
		}
	}
	for subject, m := range result.Multipliers {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("safety: non-finite multiplier for subject %s", subject)
		}
	}
	return result, nil
}
