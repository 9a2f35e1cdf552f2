package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_mysql.sql
var mysqlSchema string

type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to the application store. driver is "sqlite" (path is a file
// or ":memory:") or "mysql" (path is a DSN).
func Open(driver, path string) (*DB, error) {
	switch driver {
	case "sqlite", "":
		return openSQLite(path)
	case "mysql":
		return openMySQL(path)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", driver)
	}
}

func openSQLite(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	d := &DB{conn: conn, driver: "sqlite"}
	if err := d.addTurnID(); err != nil {
		return nil, err
	}
	return d, nil
}

func openMySQL(dsn string) (*DB, error) {
	if !strings.Contains(dsn, "parseTime=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true"
	}
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}
	// the MySQL driver runs one statement per Exec
	for _, stmt := range strings.Split(mysqlSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	d := &DB{conn: conn, driver: "mysql"}
	if err := d.addTurnID(); err != nil {
		return nil, err
	}
	return d, nil
}

// addTurnID upgrades a chats table created before turn ids were logged.
// CREATE TABLE IF NOT EXISTS leaves such a table as it was.
func (d *DB) addTurnID() error {
	q := "SELECT COUNT(*) FROM pragma_table_info('chats') WHERE name = 'turn_id'"
	alter := "ALTER TABLE chats ADD COLUMN turn_id TEXT"
	if d.driver == "mysql" {
		q = "SELECT COUNT(*) FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = 'chats' AND COLUMN_NAME = 'turn_id'"
		alter = "ALTER TABLE chats ADD COLUMN turn_id VARCHAR(36) NULL AFTER id"
	}
	var n int
	if err := d.conn.QueryRow(q).Scan(&n); err != nil {
		return fmt.Errorf("checking chats.turn_id: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := d.conn.Exec(alter); err != nil {
		return fmt.Errorf("adding chats.turn_id: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Driver reports which backend is in use. Tools put it in their descriptions
// so the model writes the right SQL dialect.
func (d *DB) Driver() string {
	return d.driver
}

// Ping checks the connection is still usable.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}
