// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package nova

import (
	"context"
	"fmt"

	"github.com/cobaltcore-dev/cortex-harvest/internal/db"
)

// Read access to the synced aggregates.
type AggregateStore struct {
	DB *db.DB
}

func NewAggregateStore(d *db.DB) *AggregateStore {
	return &AggregateStore{DB: d}
}

// Get the aggregates of the given compute hosts, keyed by compute host.
// Hosts that belong to no aggregate are missing from the result.
func (s *AggregateStore) AggregatesByHost(ctx context.Context, hosts []string) (map[string][]Aggregate, error) {
	wanted := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		wanted[h] = struct{}{}
	}
	var all []Aggregate
	query := "SELECT * FROM " + Aggregate{}.TableName() + " ORDER BY uuid"
	if _, err := s.DB.WithContext(ctx).Select(&all, query); err != nil {
		return nil, fmt.Errorf("failed to load aggregates: %w", err)
	}
	result := make(map[string][]Aggregate)
	for _, a := range all {
		if _, ok := wanted[a.ComputeHost]; !ok {
			continue
		}
		result[a.ComputeHost] = append(result[a.ComputeHost], a)
	}
	return result, nil
}
