package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// DataFileName is the default database file name under the app home dir.
	DataFileName string = "oddmeter.db"

	timestampFormat = "2006-01-02T15:04:05Z"

	createVersionTableSQL = `CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`

	selectVersionSQL = `SELECT COALESCE(MAX(version), 0) FROM schema_version`

	insertVersionSQL = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`
)

var (
	//go:embed sql/*.sql
	migrationFS embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// Init creates the database file if needed and applies pending schema
// migrations. Safe to call repeatedly.
func Init(dbFilePath string) error {
	if dbFilePath == "" {
		return errors.New("dbFilePath not specified")
	}

	db, err := GetDB(dbFilePath)
	if err != nil {
		return fmt.Errorf("opening database %s: %w", dbFilePath, err)
	}
	defer db.Close()

	if _, err := db.Exec(createVersionTableSQL); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	if err := db.QueryRow(selectVersionSQL).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}

	for _, name := range names {
		v, err := migrationVersion(name)
		if err != nil {
			return fmt.Errorf("parsing migration name %s: %w", name, err)
		}
		if v <= current {
			continue
		}

		b, err := migrationFS.ReadFile("sql/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := db.Exec(string(b)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}

		now := time.Now().UTC().Format(timestampFormat)
		if _, err := db.Exec(insertVersionSQL, v, now); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}

		slog.Debug("applied migration", "version", v, "file", name)
	}

	return nil
}

// GetDB opens the database at the given path.
func GetDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("path not specified")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite allows a single writer at a time. One pooled connection makes
	// concurrent writers queue instead of failing with SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	return conn, nil
}

func migrationNames() ([]string, error) {
	entries, err := migrationFS.ReadDir("sql")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// migrationVersion extracts the numeric prefix of a migration file name,
// e.g. 2 from "002_indexes.sql".
func migrationVersion(name string) (int, error) {
	base, _, found := strings.Cut(name, "_")
	if !found {
		base = strings.TrimSuffix(name, ".sql")
	}
	return strconv.Atoi(base)
}
