// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/lib"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/nova/api"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/nova/plugins/weighers"
)

// Weighers used when the scheduler config doesn't name any.
var DefaultWeighers = []conf.WeigherConfig{{Name: "cpu"}}

type NovaPipeline = lib.Pipeline[api.PipelineRequest]

// Create the nova weigher pipeline from the scheduler config.
func NewPipeline(config conf.SchedulerConfig, monitor lib.PipelineMonitor) (NovaPipeline, error) {
	supported := make(map[string]func() lib.Step[api.PipelineRequest], len(weighers.Index))
	for name, makeWeigher := range weighers.Index {
		supported[name] = func() lib.Step[api.PipelineRequest] {
			return makeWeigher(config)
		}
	}
	confed := config.Weighers
	if len(confed) == 0 {
		confed = DefaultWeighers
	}
	return lib.NewPipeline("nova", supported, confed, monitor)
}
