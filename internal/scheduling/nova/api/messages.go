// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package api

// Host aggregate a compute host belongs to.
type Aggregate struct {
	UUID     string            `json:"uuid,omitempty"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// Resource state of a compute host, as seen by the Nova scheduler.
type HostState struct {
	// Name of the compute host, used as key for the weights.
	ComputeHost        string `json:"host"`
	HypervisorHostname string `json:"hypervisor_hostname"`
	// Network identity of the host, used to match the core usage telemetry.
	HostIP             string  `json:"host_ip"`
	VCPUsTotal         int     `json:"vcpus_total"`
	VCPUsUsed          int     `json:"vcpus_used"`
	CPUAllocationRatio float64 `json:"cpu_allocation_ratio"`
	// Aggregates of the host. If not given, the synced aggregates are used.
	Aggregates []Aggregate `json:"aggregates,omitempty"`
}

// Request generated by the Nova scheduler when calling cortex.
// The request contains a spec of the VM to be scheduled, a list of hosts and
// their resource state, and a map of weights calculated by the Nova weigher pipeline.
type ExternalSchedulerRequest struct {
	Spec NovaObject[NovaSpec] `json:"spec"`
	// Request context from Nova that contains additional meta information.
	Context NovaRequestContext `json:"context"`
	// Whether the Nova scheduling request is a rebuild request.
	Rebuild bool `json:"rebuild"`
	// Whether the Nova scheduling request is a resize request.
	Resize bool `json:"resize"`
	// Whether the Nova scheduling request is a live migration.
	Live bool `json:"live"`
	// Whether the affected VM is a VMware VM.
	VMware  bool               `json:"vmware"`
	Hosts   []HostState        `json:"hosts"`
	Weights map[string]float64 `json:"weights"`
}

// Response generated by cortex for the Nova scheduler.
// Cortex returns an ordered list of hosts that the VM should be scheduled on.
type ExternalSchedulerResponse struct {
	Hosts []string `json:"hosts"`
	// Final weights of the hosts.
	Weights map[string]float64 `json:"weights"`
	// Hosts that could not be weighed, with a message why.
	// These hosts keep the weight Nova gave them.
	Errors map[string]string `json:"errors,omitempty"`
}

// Wrapped Nova object. Nova returns objects in this format.
type NovaObject[V any] struct {
	Name      string   `json:"nova_object.name"`
	Namespace string   `json:"nova_object.namespace"`
	Version   string   `json:"nova_object.version"`
	Data      V        `json:"nova_object.data"`
	Changes   []string `json:"nova_object.changes"`
}

// Spec object from the Nova scheduler pipeline.
// See: https://github.com/sapcc/nova/blob/stable/xena-m3/nova/objects/request_spec.py
type NovaSpec struct {
	ProjectID        string                 `json:"project_id"`
	UserID           string                 `json:"user_id"`
	AvailabilityZone string                 `json:"availability_zone"`
	NInstances       int                    `json:"num_instances"`
	InstanceUUID     string                 `json:"instance_uuid"`
	Flavor           NovaObject[NovaFlavor] `json:"flavor"`
	// Raw scheduler hints, parse them with ParseSchedulingHints.
	SchedulerHints map[string]any `json:"scheduler_hints"`
}

// Nova flavor metadata for the specified VM.
type NovaFlavor struct {
	Name       string            `json:"name"`
	MemoryMB   int               `json:"memory_mb"`
	VCPUs      int               `json:"vcpus"`
	RootDiskGB int               `json:"root_gb"`
	FlavorID   string            `json:"flavorid"`
	ExtraSpecs map[string]string `json:"extra_specs"`
}

// Nova request context object. For the fields of this object, see:
//
// - This: https://github.com/sapcc/nova/blob/a56409/nova/context.py#L166
// - And: https://github.com/openstack/oslo.context/blob/db20dd/oslo_context/context.py#L329
type NovaRequestContext struct {
	UserID          string   `json:"user"`
	ProjectID       string   `json:"project_id"`
	DomainID        string   `json:"domain"`
	UserDomainID    string   `json:"user_domain"`
	ProjectDomainID string   `json:"project_domain"`
	IsAdmin         bool     `json:"is_admin"`
	ReadOnly        bool     `json:"read_only"`
	RequestID       string   `json:"request_id"`
	GlobalRequestID *string  `json:"global_request_id"`
	ResourceUUID    string   `json:"resource_uuid"`
	Roles           []string `json:"roles"`
	UserName        string   `json:"user_name"`
	ProjectName     string   `json:"project_name"`
}
