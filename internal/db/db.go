// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/go-gorp/gorp"
	_ "github.com/lib/pq"
	"github.com/sapcc/go-bits/easypg"
)

// Wrapper around gorp.DbMap that adds some convenience functions.
type DB struct {
	*gorp.DbMap
	// Reconnect settings used by the liveness check.
	reconnect conf.DBReconnectConfig
	monitor   Monitor
}

type Table interface {
	TableName() string
}

// Create a new postgres database and wait until it is connected.
func NewPostgresDB(ctx context.Context, c conf.DBConfig, monitor Monitor) DB {
	stripYaml := func(s string) string { return strings.ReplaceAll(s, "\n", "") }
	dbURL, err := easypg.URLFrom(easypg.URLParts{
		HostName:          stripYaml(c.Host),
		Port:              strconv.Itoa(c.Port),
		UserName:          stripYaml(c.User),
		Password:          stripYaml(c.Password),
		ConnectionOptions: "sslmode=disable",
		DatabaseName:      stripYaml(c.Database),
	})
	if err != nil {
		panic(err)
	}
	slog.Info("connecting to database", "host", c.Host, "database", c.Database)
	db, err := sql.Open("postgres", dbURL.String())
	if err != nil {
		panic(err)
	}

	maxRetries := c.Reconnect.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 10
	}
	retryInterval := time.Duration(c.Reconnect.RetryIntervalSeconds) * time.Second
	if retryInterval <= 0 {
		retryInterval = time.Second
	}
	for i := range maxRetries {
		if monitor.connectionAttempts != nil {
			monitor.connectionAttempts.Inc()
		}
		err := db.PingContext(ctx)
		if err == nil {
			break
		}
		if i == maxRetries-1 {
			panic("giving up connecting to database")
		}
		slog.Error("failed to connect to database, retrying...", "error", err)
		select {
		case <-ctx.Done():
			panic(ctx.Err())
		case <-time.After(retryInterval):
		}
	}

	db.SetMaxOpenConns(16)
	dbMap := &gorp.DbMap{Db: db, Dialect: gorp.PostgresDialect{}}
	slog.Info("database is ready")
	return DB{DbMap: dbMap, reconnect: c.Reconnect, monitor: monitor}
}

// Ping the database periodically until the context is cancelled.
// Panics when the database stays unreachable for the configured number of retries.
func (d *DB) CheckLivenessPeriodically(ctx context.Context) {
	interval := time.Duration(d.reconnect.LivenessPingIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	maxRetries := d.reconnect.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 10
	}
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if err := d.Db.PingContext(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			if d.monitor.connectionAttempts != nil {
				d.monitor.connectionAttempts.Inc()
			}
			slog.Error("database liveness check failed", "error", err, "failures", failures)
			if failures >= maxRetries {
				panic("database is unreachable, giving up")
			}
			continue
		}
		if failures > 0 {
			slog.Info("database is reachable again")
		}
		failures = 0
	}
}

// Adds missing functionality to gorp.DbMap which creates one table.
func (d *DB) CreateTable(table ...*gorp.TableMap) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, t := range table {
		slog.Info("creating table", "table", t.TableName)
		sql := t.SqlForCreate(true) // true means to add IF NOT EXISTS
		if _, err := tx.Exec(sql); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to rollback transaction", "error", rbErr)
			}
			return fmt.Errorf("failed to create table %s: %w", t.TableName, err)
		}
	}
	return tx.Commit()
}

// Adds a Model table to the database.
func (d *DB) AddTable(t Table) *gorp.TableMap {
	slog.Info("adding table", "table", t.TableName())
	return d.AddTableWithName(t, t.TableName())
}

// Check if a table exists in the database.
func (d *DB) TableExists(t Table) bool {
	query := `SELECT EXISTS (
		SELECT 1
		FROM   information_schema.tables
		WHERE  table_name = :table_name
	);`
	if _, ok := d.Dialect.(gorp.SqliteDialect); ok {
		query = "SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = :table_name"
	}
	var exists bool
	err := d.SelectOne(&exists, query, map[string]any{"table_name": t.TableName()})
	if err != nil {
		slog.Error("failed to check if table exists", "error", err)
		return false
	}
	return exists
}

// Convenience function to the database connection.
func (d *DB) Close() {
	if err := d.DbMap.Db.Close(); err != nil {
		slog.Error("failed to close database connection", "error", err)
	}
}

// Replace all rows of the table with the given records in one transaction.
// Readers either see the old or the new set, never a mix of both.
func ReplaceAll[T Table](d *DB, records []T) error {
	var model T
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	rollback := func(cause error) error {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("failed to rollback transaction", "error", rbErr)
		}
		return cause
	}
	//nolint:gosec // The table name is not user input.
	if _, err := tx.Exec("DELETE FROM " + model.TableName()); err != nil {
		return rollback(fmt.Errorf("failed to clear table %s: %w", model.TableName(), err))
	}
	for i := range records {
		if err := tx.Insert(&records[i]); err != nil {
			return rollback(fmt.Errorf("failed to insert into %s: %w", model.TableName(), err))
		}
	}
	return tx.Commit()
}

// Database or transaction that supports update and insert methods.
type upsertable interface {
	Update(list ...any) (int64, error)
	Insert(list ...any) error
}

// Upsert a model into the database (Insert if possible, otherwise Update).
func Upsert(u upsertable, model any) error {
	err := u.Insert(model)
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value violates unique constraint") &&
		!strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	_, err = u.Update(model)
	return err
}
