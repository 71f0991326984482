// Package ledger keeps a local record of deployment runs and the contracts
// each run put on chain, similar to the deployments folder a Hardhat project
// keeps. The schema is managed by goose with migrations embedded per dialect.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fundingdeploy/internal/filex"
	"github.com/dmitrijs2005/fundingdeploy/internal/ledger/migrations"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
	DriverNone     = "none"
)

type dialect struct {
	driver       string
	gooseDialect string
	dir          string
	numbered     bool
}

var dialects = map[string]dialect{
	DriverSQLite:   {driver: "sqlite", gooseDialect: "sqlite3", dir: "sqlite"},
	DriverPostgres: {driver: "pgx", gooseDialect: "pgx", dir: "postgres", numbered: true},
	"postgres":     {driver: "pgx", gooseDialect: "pgx", dir: "postgres", numbered: true},
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

var sqlOpen = sql.Open

// Open connects to the ledger database and brings its schema up to date.
// Relative sqlite paths get their parent directory created first.
func Open(ctx context.Context, driver, dsn string, logger logging.Logger) (*Ledger, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	if d.driver == DriverSQLite && isFilePath(dsn) {
		path, err := filex.EnsureParentDir(dsn)
		if err != nil {
			return nil, fmt.Errorf("prepare ledger dir: %w", err)
		}
		dsn = path
	}

	db, err := sqlOpen(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if d.driver == DriverSQLite {
		// one writer; concurrent sqlite connections would just wait on the lock
		db.SetMaxOpenConns(1)
	}

	if err := runMigrations(ctx, db, d); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate ledger: %w", err), db.Close())
	}

	logger.Debug(ctx, "ledger ready", "driver", d.driver)
	return New(db, d.numbered), nil
}

func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(d.gooseDialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, d.dir)
}

func isFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
