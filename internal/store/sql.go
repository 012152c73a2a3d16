package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"homeheroes/internal/models"
)

// DefaultPollInterval is how often SQL subscriptions check for a new revision
const DefaultPollInterval = time.Second

// SQLStore keeps each family document as one JSON row. A revision counter
// bumped on every write stands in for server push: subscriptions poll the
// revision and deliver the document when it moves.
type SQLStore struct {
	db           *sql.DB
	dialect      Dialect
	pollInterval time.Duration
}

// Open connects to the configured database (sqlite, postgres or mysql) and
// ensures the documents table exists.
func Open(dbType, dbPath, dbURL string, pollInterval time.Duration) (*SQLStore, error) {
	var dialect Dialect
	var dialectConfig DialectConfig

	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		dialect = NewPostgresDialect()
		dialectConfig = DialectConfig{URL: dbURL}
	case "mysql":
		dialect = NewMySQLDialect()
		dialectConfig = DialectConfig{URL: dbURL}
	case "sqlite", "sqlite3", "":
		dialect = NewSQLiteDialect()
		dialectConfig = DialectConfig{Path: dbPath}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply dialect-specific configuration
	if err := dialect.ConfigureConnection(db); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if _, err := db.Exec(dialect.CreateTableQuery()); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &SQLStore{db: db, dialect: dialect, pollInterval: pollInterval}, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Subscribe polls the document's revision and pushes a snapshot on every
// change. The first snapshot is delivered before the first poll tick.
func (s *SQLStore) Subscribe(ctx context.Context, key string) (<-chan Snapshot, error) {
	snap, revision, err := s.read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	updates := make(chan Snapshot, 1)
	updates <- snap

	go func() {
		defer close(updates)
		lastRevision := revision
		lastExists := snap.Exists

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			snap, revision, err := s.read(ctx, key)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				push(ctx, updates, Snapshot{Err: err})
				continue
			}
			if snap.Exists == lastExists && revision == lastRevision {
				continue
			}
			lastRevision = revision
			lastExists = snap.Exists
			if !push(ctx, updates, snap) {
				return
			}
		}
	}()

	return updates, nil
}

// Write replaces the document and bumps its revision. Fails with ErrNotFound
// when the document was never created.
func (s *SQLStore) Write(ctx context.Context, key string, state models.FamilyState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := s.dialect.RewriteQuery(
		"UPDATE families SET doc = ?, revision = revision + 1, updated_at = CURRENT_TIMESTAMP WHERE family_key = ?")
	result, err := s.db.ExecContext(ctx, query, string(doc), key)
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check write result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateIfAbsent stores the seed document unless one already exists
func (s *SQLStore) CreateIfAbsent(ctx context.Context, key string, state models.FamilyState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := s.dialect.RewriteQuery(s.dialect.InsertIgnoreQuery())
	if _, err := s.db.ExecContext(ctx, query, key, string(doc)); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (s *SQLStore) read(ctx context.Context, key string) (Snapshot, int64, error) {
	query := s.dialect.RewriteQuery("SELECT doc, revision FROM families WHERE family_key = ?")

	var doc string
	var revision int64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&doc, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{Exists: false}, 0, nil
	}
	if err != nil {
		return Snapshot{}, 0, err
	}

	var state models.FamilyState
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return Snapshot{}, 0, fmt.Errorf("failed to decode document: %w", err)
	}
	return Snapshot{Exists: true, State: state}, revision, nil
}

// push delivers a snapshot unless the subscription is being torn down.
// It reports false once ctx is done.
func push(ctx context.Context, updates chan<- Snapshot, snap Snapshot) bool {
	select {
	case updates <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
