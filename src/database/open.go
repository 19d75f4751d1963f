// Package database opens the target database and runs model-generated SQL
// behind an explicit execution boundary.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/azuread"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/elee1766/nl2sql/src/config"
)

// Target names the server and database a connection string points at.
type Target struct {
	Server   string
	Database string
}

// sqlDriverName picks the database/sql driver for a configured driver and
// connection string. SQL Server strings asking for Entra ID authentication go
// through the azuread driver.
func sqlDriverName(driver, dsn string) (string, error) {
	switch driver {
	case config.DriverSQLServer, "":
		if strings.Contains(strings.ToLower(dsn), "fedauth") {
			return azuread.DriverName, nil
		}
		return "sqlserver", nil
	case config.DriverPostgres:
		return "pgx", nil
	case config.DriverDuckDB:
		return "duckdb", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Open opens and pings the database. The handle's pool scopes connections per
// query.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, err := sqlDriverName(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return db, nil
}

// DescribeTarget extracts host and database from a connection string for the
// boot banner. Unparseable strings yield an empty Target.
func DescribeTarget(driver, dsn string) Target {
	switch driver {
	case config.DriverSQLServer, "":
		cfg, err := msdsn.Parse(dsn)
		if err != nil {
			return Target{}
		}
		server := cfg.Host
		if cfg.Instance != "" {
			server += `\` + cfg.Instance
		}
		return Target{Server: server, Database: cfg.Database}
	case config.DriverPostgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return Target{}
		}
		return Target{Server: cfg.Host, Database: cfg.Database}
	case config.DriverDuckDB:
		path, _, _ := strings.Cut(dsn, "?")
		if path == "" {
			path = ":memory:"
		}
		return Target{Server: "duckdb", Database: path}
	default:
		return Target{}
	}
}
