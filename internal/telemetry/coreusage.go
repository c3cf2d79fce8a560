// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"errors"
	"fmt"
	"slices"
)

// Core usage of one host as reported by the telemetry manager.
//
// Besides the regular cores guaranteed to workloads, a host exposes
// "green" cores that are harvested from idle capacity.
type CoreUsage struct {
	// Network identity of the host, matched against the host ip
	// that nova reports for the compute host.
	HostIP string `json:"host-ip" db:"host_ip"`
	// Available and used regular cores.
	RegularCoresAvailable float64 `json:"reg-cores-avl" db:"reg_cores_avl"`
	RegularCoresUsed      float64 `json:"reg-cores-usg" db:"reg_cores_usg"`
	// Available and used green (harvestable) cores.
	GreenCoresAvailable float64 `json:"green-cores-avl" db:"green_cores_avl"`
	GreenCoresUsed      float64 `json:"green-cores-usg" db:"green_cores_usg"`
}

// Table under which the core usage is stored.
func (CoreUsage) TableName() string { return "feature_core_usage" }

// Document published by the telemetry manager.
type Document struct {
	CoreUsage []CoreUsage `json:"core_usage"`
}

// Read access to the current set of core usage records.
type CoreUsageReader interface {
	CoreUsages() []CoreUsage
}

// Immutable set of core usage records, indexed by host ip.
type Snapshot struct {
	records  []CoreUsage
	byHostIP map[string][]int
}

// Create a snapshot over a copy of the given records.
func NewSnapshot(records []CoreUsage) Snapshot {
	s := Snapshot{
		records:  slices.Clone(records),
		byHostIP: make(map[string][]int, len(records)),
	}
	for i, r := range s.records {
		s.byHostIP[r.HostIP] = append(s.byHostIP[r.HostIP], i)
	}
	return s
}

// Get a copy of all records in the snapshot.
func (s Snapshot) CoreUsages() []CoreUsage {
	return slices.Clone(s.records)
}

func (s Snapshot) coreUsagesOf(hostIP string) []CoreUsage {
	indices := s.byHostIP[hostIP]
	matches := make([]CoreUsage, 0, len(indices))
	for _, i := range indices {
		matches = append(matches, s.records[i])
	}
	return matches
}

var (
	// No core usage record matches the host.
	ErrNotFound = errors.New("no core usage record found")
	// More than one core usage record matches the host.
	ErrAmbiguous = errors.New("ambiguous core usage records")
)

// Error returned when the core usage of a host cannot be determined.
type LookupError struct {
	HostIP string
	// Number of records that matched the host ip.
	Matches int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s for host ip %q (%d matches)", e.Unwrap().Error(), e.HostIP, e.Matches)
}

func (e *LookupError) Unwrap() error {
	if e.Matches == 0 {
		return ErrNotFound
	}
	return ErrAmbiguous
}

// Find the single core usage record of the host with the given ip.
// Host ips are compared by exact string match. A nil reader holds no records.
func Lookup(reader CoreUsageReader, hostIP string) (CoreUsage, error) {
	var matches []CoreUsage
	if indexed, ok := reader.(interface{ coreUsagesOf(string) []CoreUsage }); ok {
		matches = indexed.coreUsagesOf(hostIP)
	} else if reader != nil {
		for _, r := range reader.CoreUsages() {
			if r.HostIP == hostIP {
				matches = append(matches, r)
			}
		}
	}
	if len(matches) != 1 {
		return CoreUsage{}, &LookupError{HostIP: hostIP, Matches: len(matches)}
	}
	return matches[0], nil
}
