package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// familyMetaID is the key of the only row in family_meta
const familyMetaID = 1

// FamilyMeta is the store-level header kept alongside the people tables
type FamilyMeta struct {
	Version     string
	Description string
	CreatedAt   int64
	ModifiedAt  int64
}

// busyTimeoutMillis is how long a connection waits for another writer's lock
const busyTimeoutMillis = 5000

// withBusyTimeout adds the go-sqlite3 busy timeout to dsn unless one is set
func withBusyTimeout(dsn string) string {
	// go-sqlite3 accepts both _busy_timeout and _timeout
	if strings.Contains(dsn, "_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", dsn, sep, busyTimeoutMillis)
}

// InitDB opens the sqlite database used for store metadata and creates its table
func InitDB(dataSourceName string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", withBusyTimeout(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable write-ahead logging so readers do not block the GORM writer
	if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Warn("failed to set WAL mode", zap.Error(err))
	}

	sqlStmt := `
	CREATE TABLE IF NOT EXISTS family_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		modified_at INTEGER NOT NULL
	);
	`
	if _, err = db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create family_meta table: %w", err)
	}

	log.Info("metadata database initialized", zap.String("dsn", dataSourceName))
	return db, nil
}

// GetFamilyMeta returns the stored header, or sql.ErrNoRows before the first save
func GetFamilyMeta(db *sql.DB) (FamilyMeta, error) {
	var meta FamilyMeta

	queryBuilder := psql.Select("version", "description", "created_at", "modified_at").
		From("family_meta").
		Where(sq.Eq{"id": familyMetaID}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return FamilyMeta{}, fmt.Errorf("failed to build SQL query for GetFamilyMeta: %w", err)
	}

	err = db.QueryRow(sqlStr, args...).Scan(&meta.Version, &meta.Description, &meta.CreatedAt, &meta.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FamilyMeta{}, sql.ErrNoRows
		}
		return FamilyMeta{}, fmt.Errorf("failed to query family metadata: %w", err)
	}
	return meta, nil
}

// SetFamilyMeta inserts or replaces the header row
func SetFamilyMeta(db *sql.DB, meta FamilyMeta) error {
	queryBuilder := psql.Insert("family_meta").
		Columns("id", "version", "description", "created_at", "modified_at").
		Values(familyMetaID, meta.Version, meta.Description, meta.CreatedAt, meta.ModifiedAt).
		Suffix("ON CONFLICT(id) DO UPDATE SET").
		Suffix("version = excluded.version,").
		Suffix("description = excluded.description,").
		Suffix("created_at = excluded.created_at,").
		Suffix("modified_at = excluded.modified_at")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for SetFamilyMeta: %w", err)
	}

	if _, err = db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SetFamilyMeta: %w", err)
	}
	return nil
}
