// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package lib

import (
	"log/slog"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
)

type mockPipelineRequest struct {
	Subjects []string
	Weights  map[string]float64
}

func (m mockPipelineRequest) GetSubjects() []string          { return m.Subjects }
func (m mockPipelineRequest) GetWeights() map[string]float64 { return m.Weights }
func (m mockPipelineRequest) GetTraceLogArgs() []slog.Attr {
	return []slog.Attr{slog.String("greq", "test")}
}

type mockStep struct {
	InitFunc func(opts conf.RawOpts) error
	RunFunc  func(traceLog *slog.Logger, request mockPipelineRequest) (*StepResult, error)
}

func (m *mockStep) Init(opts conf.RawOpts) error {
	if m.InitFunc == nil {
		return nil
	}
	return m.InitFunc(opts)
}

func (m *mockStep) Run(traceLog *slog.Logger, request mockPipelineRequest) (*StepResult, error) {
	return m.RunFunc(traceLog, request)
}
