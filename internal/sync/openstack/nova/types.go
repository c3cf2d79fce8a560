// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"encoding/json"
	"fmt"
)

// Host aggregate membership of one compute host.
// An aggregate with n hosts is stored as n rows.
type Aggregate struct {
	UUID             string  `json:"uuid" db:"uuid"`
	Name             string  `json:"name" db:"name"`
	AvailabilityZone *string `json:"availability_zone" db:"availability_zone"`
	ComputeHost      string  `json:"compute_host" db:"compute_host"`
	// Aggregate metadata as a json encoded string map.
	Metadata string `json:"metadata" db:"metadata"`
}

// Table in which the aggregates are stored.
func (Aggregate) TableName() string { return "openstack_aggregates" }

// Decode the metadata of the aggregate.
func (a Aggregate) GetMetadata() (map[string]string, error) {
	if a.Metadata == "" {
		return map[string]string{}, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(a.Metadata), &metadata); err != nil {
		return nil, fmt.Errorf("invalid metadata of aggregate %s: %w", a.UUID, err)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	return metadata, nil
}
