package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/jmoiron/sqlx"

	// Register the postgres and sqlite database/sql drivers.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	documentRowID = 1
)

// Statements are written with ? placeholders and rebound per driver.
const (
	seedDocumentSQL = `INSERT INTO ledger_documents (id, version, body, updated_at)
		VALUES (?, 0, ?, ?) ON CONFLICT (id) DO NOTHING`
	loadDocumentSQL   = `SELECT version, body FROM ledger_documents WHERE id = ?`
	updateDocumentSQL = `UPDATE ledger_documents SET version = ?, body = ?, updated_at = ?
		WHERE id = ? AND version = ?`
)

type documentRow struct {
	Version int64  `db:"version"`
	Body    []byte `db:"body"`
}

// SQLStore keeps the document as a single row and guards every write with a
// compare-and-swap on the row version, so two processes sharing one database
// cannot overwrite each other's changes.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// OpenSQLStore connects to dsn with the given driver and prepares the schema.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	store, err := NewSQLStore(ctx, db.DB, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	s := &SQLStore{db: sqlx.NewDb(db, driver), driver: driver}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	bodyType := "TEXT"
	if s.driver == DriverPostgres {
		bodyType = "JSONB"
	}
	ddl := `CREATE TABLE IF NOT EXISTS ledger_documents (
		id INTEGER PRIMARY KEY,
		version BIGINT NOT NULL,
		body ` + bodyType + ` NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create ledger_documents: %w", err)
	}

	body, err := json.Marshal(models.NewDocument())
	if err != nil {
		return fmt.Errorf("failed to encode empty document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(seedDocumentSQL), documentRowID, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to seed ledger document: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (*models.Document, error) {
	var row documentRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(loadDocumentSQL), documentRowID); err != nil {
		return nil, fmt.Errorf("failed to load ledger document: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(row.Body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode ledger document: %w", err)
	}
	doc.Version = row.Version
	doc.Normalize()
	return &doc, nil
}

func (s *SQLStore) Persist(ctx context.Context, doc *models.Document) error {
	prevVersion, prevUpdated := doc.Version, doc.UpdatedAt
	doc.Version++
	doc.UpdatedAt = time.Now().UTC()
	restore := func() { doc.Version, doc.UpdatedAt = prevVersion, prevUpdated }

	body, err := json.Marshal(doc)
	if err != nil {
		restore()
		return fmt.Errorf("failed to encode ledger document: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(updateDocumentSQL), doc.Version, string(body), doc.UpdatedAt, documentRowID, prevVersion)
	if err != nil {
		restore()
		return fmt.Errorf("failed to persist ledger document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		restore()
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		restore()
		return ErrVersionConflict
	}
	return nil
}
