// Package persistence provides SQLite-based storage for the question bank.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// CurrentSchemaVersion defines the current schema version for migration support.
const CurrentSchemaVersion = 2

// InitializeDatabase creates and initializes the SQLite database with the required schema.
// This function is idempotent and safe to call multiple times.
func InitializeDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initializeSchemaWithMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initializeSchemaWithMigrations ensures the database schema is at the current version.
func initializeSchemaWithMigrations(db *sql.DB) error {
	currentVersion, err := GetSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// If database is empty (version 0), create fresh schema
	if currentVersion == 0 {
		return createSchema(db)
	}

	// If database is up-to-date, no migration needed
	if currentVersion == CurrentSchemaVersion {
		return nil
	}

	return runMigrations(db, currentVersion, CurrentSchemaVersion)
}

// runMigrations applies database migrations from current version to target version.
func runMigrations(db *sql.DB, fromVersion, toVersion int) error {
	for version := fromVersion + 1; version <= toVersion; version++ {
		if err := runMigration(db, version); err != nil {
			return fmt.Errorf("migration to version %d failed: %w", version, err)
		}

		if err := setSchemaVersion(db, version); err != nil {
			return fmt.Errorf("failed to update schema version to %d: %w", version, err)
		}
	}
	return nil
}

// runMigration applies a specific version migration.
func runMigration(db *sql.DB, version int) error {
	switch version {
	case 1:
		return migrateToVersion1(db)
	case 2:
		return migrateToVersion2(db)
	default:
		return fmt.Errorf("unknown migration version: %d", version)
	}
}

// migrateToVersion1 is a no-op; version 1 databases were created whole by createSchema.
func migrateToVersion1(_ *sql.DB) error { return nil }

// migrateToVersion2 adds accent and sex columns for TTS voice selection,
// the human-readable verification detail, and the batch index for metrics
// correlation.
func migrateToVersion2(db *sql.DB) error {
	migrations := []string{
		"ALTER TABLE questions ADD COLUMN accent TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE questions ADD COLUMN sex TEXT NOT NULL DEFAULT ''",
		"ALTER TABLE questions ADD COLUMN valid_status TEXT NOT NULL DEFAULT ''",
		"CREATE INDEX IF NOT EXISTS idx_questions_batch ON questions(batch_id)",
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %s: %w", migration, err)
		}
	}

	return nil
}

// createSchema creates all required tables and indices.
func createSchema(db *sql.DB) error {
	tables := []string{
		// Schema version tracking
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		// Question bank. Parts 3 and 4 store question and answer as JSON
		// arrays; prompt holds the part 3 conversation script (JSON) or the
		// part 4 talk text. img holds the path of the rendered image under
		// the photo root, img_prompt the text it was rendered from.
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL,
			part INTEGER NOT NULL CHECK (part BETWEEN 1 AND 4),
			level INTEGER NOT NULL CHECK (level BETWEEN 1 AND 5),
			accent TEXT NOT NULL DEFAULT '',
			sex TEXT NOT NULL DEFAULT '',
			used INTEGER NOT NULL DEFAULT 0,
			valid INTEGER NOT NULL DEFAULT 0,
			valid_status TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL DEFAULT '',
			prompt TEXT NOT NULL DEFAULT '',
			answer TEXT NOT NULL,
			a TEXT NOT NULL DEFAULT '',
			b TEXT NOT NULL DEFAULT '',
			c TEXT NOT NULL DEFAULT '',
			d TEXT NOT NULL DEFAULT '',
			img_prompt TEXT NOT NULL DEFAULT '',
			img TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
	}

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_questions_part_level ON questions(part, level)",
		"CREATE INDEX IF NOT EXISTS idx_questions_valid ON questions(valid)",
		"CREATE INDEX IF NOT EXISTS idx_questions_used ON questions(used)",
		"CREATE INDEX IF NOT EXISTS idx_questions_batch ON questions(batch_id)",
	}

	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, ddl := range indices {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := setSchemaVersion(db, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return nil
}

// setSchemaVersion records the current schema version.
func setSchemaVersion(db *sql.DB, version int) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO schema_version (version) VALUES (?)
	`, version)
	if err != nil {
		return fmt.Errorf("database exec error: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the current schema version from the database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	// First ensure the schema_version table exists
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`)
	if err != nil {
		return 0, fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil // No version set yet
	}
	if err != nil {
		return 0, fmt.Errorf("schema version scan error: %w", err)
	}
	return version, nil
}
