// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package weighers

import (
	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/lib"
	"github.com/cobaltcore-dev/cortex-harvest/internal/scheduling/nova/api"
)

type NovaWeigher = lib.Step[api.PipelineRequest]

// Configuration of weighers supported by the nova scheduler.
var Index = map[string]func(conf.SchedulerConfig) NovaWeigher{}
