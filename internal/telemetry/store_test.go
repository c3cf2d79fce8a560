// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"errors"
	"math"
	"testing"

	testlibDB "github.com/cobaltcore-dev/cortex-harvest/testlib/db"
)

func TestStore_ReplaceAndSnapshot(t *testing.T) {
	dbEnv := testlibDB.SetupDBEnv(t)
	defer dbEnv.Close()
	store := NewStore(dbEnv.DB)
	if err := store.Init(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !dbEnv.TableExists(CoreUsage{}) {
		t.Fatal("expected core usage table to exist")
	}

	snapshot, err := store.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snapshot.CoreUsages()) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snapshot.CoreUsages())
	}

	if err := store.Replace([]CoreUsage{
		{HostIP: "10.0.0.1", RegularCoresAvailable: 100, RegularCoresUsed: 95, GreenCoresAvailable: 50, GreenCoresUsed: 50},
		{HostIP: "10.0.0.2", RegularCoresAvailable: 10, GreenCoresAvailable: 10},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.Replace([]CoreUsage{
		{HostIP: "10.0.0.1", RegularCoresAvailable: 80, RegularCoresUsed: 40, GreenCoresAvailable: 20, GreenCoresUsed: 5},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	snapshot, err = store.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	record, err := Lookup(snapshot, "10.0.0.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.RegularCoresAvailable != 80 || record.GreenCoresUsed != 5 {
		t.Errorf("expected latest record, got %+v", record)
	}
	if _, err := Lookup(snapshot, "10.0.0.2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected replaced host to be gone, got %v", err)
	}
}

func TestStore_ReplaceRejectsInvalidRecords(t *testing.T) {
	dbEnv := testlibDB.SetupDBEnv(t)
	defer dbEnv.Close()
	store := NewStore(dbEnv.DB)
	if err := store.Init(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.Replace([]CoreUsage{{HostIP: "10.0.0.1", RegularCoresAvailable: 1}}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tests := []struct {
		name    string
		records []CoreUsage
	}{
		{"missing host ip", []CoreUsage{{RegularCoresAvailable: 1}}},
		{"nan value", []CoreUsage{{HostIP: "10.0.0.2", GreenCoresUsed: math.NaN()}}},
		{"infinite value", []CoreUsage{{HostIP: "10.0.0.2", RegularCoresUsed: math.Inf(1)}}},
		{"negative value", []CoreUsage{{HostIP: "10.0.0.2", GreenCoresAvailable: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Replace(tt.records); err == nil {
				t.Fatal("expected error, got nil")
			}
			// The previous set must survive a rejected replacement.
			snapshot, err := store.Snapshot(t.Context())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, err := Lookup(snapshot, "10.0.0.1"); err != nil {
				t.Errorf("expected previous record to survive, got %v", err)
			}
		})
	}
}
