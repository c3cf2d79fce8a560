// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/cobaltcore-dev/cortex-harvest/internal/conf"
	"github.com/cobaltcore-dev/cortex-harvest/internal/db"
	"github.com/cobaltcore-dev/cortex-harvest/testlib/db/containers"
	"github.com/go-gorp/gorp"
	_ "github.com/mattn/go-sqlite3"
)

type DBEnv struct {
	*db.DB
	Close func()
}

// Set up a database for a test. Uses sqlite unless POSTGRES_CONTAINER=1,
// in which case a real postgres container is started with docker.
func SetupDBEnv(t *testing.T) DBEnv {
	var env DBEnv
	if os.Getenv("POSTGRES_CONTAINER") == "1" {
		slog.Info("using real postgres container")
		container := containers.PostgresContainer{}
		container.Init(t)
		pg := db.NewPostgresDB(context.Background(), conf.DBConfig{
			Host:     "localhost",
			Port:     container.GetPort(),
			User:     "postgres",
			Password: "secret",
			Database: "postgres",
		}, db.Monitor{})
		env.DB = &pg
		env.Close = func() {
			env.DB.Close()
			container.Close()
		}
	} else {
		slog.Info("using sqlite")
		tmpDir := t.TempDir()
		sqlDB, err := sql.Open("sqlite3", tmpDir+"/test.db")
		if err != nil {
			t.Fatal(err)
		}
		env.DB = &db.DB{DbMap: &gorp.DbMap{Db: sqlDB, Dialect: gorp.SqliteDialect{}}}
		env.Close = func() {
			env.DB.Close()
		}
	}
	if os.Getenv("TRACE_SQL") == "1" {
		env.DbMap.TraceOn("[gorp]", log.New(os.Stdout, "cortex-harvest:", log.Lmicroseconds))
	}
	return env
}
