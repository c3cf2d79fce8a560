// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cobaltcore-dev/cortex-harvest/internal/db"
)

// Persistent store of the latest core usage reported by the telemetry manager.
type Store struct {
	DB *db.DB
}

func NewStore(d *db.DB) *Store {
	return &Store{DB: d}
}

// Register and create the core usage table.
func (s *Store) Init() error {
	table := s.DB.AddTable(CoreUsage{})
	if err := s.DB.CreateTable(table); err != nil {
		return fmt.Errorf("failed to create core usage table: %w", err)
	}
	return nil
}

// Load the current core usage into an immutable snapshot.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var records []CoreUsage
	query := "SELECT * FROM " + CoreUsage{}.TableName()
	if _, err := s.DB.WithContext(ctx).Select(&records, query); err != nil {
		return Snapshot{}, fmt.Errorf("failed to load core usage: %w", err)
	}
	return NewSnapshot(records), nil
}

// Replace the stored core usage with the given records.
func (s *Store) Replace(records []CoreUsage) error {
	for _, r := range records {
		if err := validate(r); err != nil {
			return err
		}
	}
	if err := db.ReplaceAll(s.DB, records); err != nil {
		return err
	}
	slog.Debug("replaced core usage", "records", len(records))
	return nil
}

func validate(r CoreUsage) error {
	if r.HostIP == "" {
		return errors.New("core usage record without host ip")
	}
	for _, v := range []float64{
		r.RegularCoresAvailable, r.RegularCoresUsed,
		r.GreenCoresAvailable, r.GreenCoresUsed,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("core usage of host ip %q contains non-finite values", r.HostIP)
		}
		if v < 0 {
			return fmt.Errorf("core usage of host ip %q contains negative core counts", r.HostIP)
		}
	}
	return nil
}
