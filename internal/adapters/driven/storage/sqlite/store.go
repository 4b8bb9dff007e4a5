package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

const dbFile = "history.db"

// Store owns the SQLite connection behind the transcript archive.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database in dataDir.
// If dataDir is empty, defaults to ~/.ragchat/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragchat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("Opened transcript archive at %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TranscriptArchive returns a TranscriptArchive backed by this store.
func (s *Store) TranscriptArchive() driven.TranscriptArchive {
	return &transcriptArchive{store: s}
}

// migrate applies pending NNN_name.up.sql files, one transaction each.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_transcript.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("Applied migration %s", name)
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// transcriptArchive implements driven.TranscriptArchive.
type transcriptArchive struct {
	store *Store
}

var _ driven.TranscriptArchive = (*transcriptArchive)(nil)

// Append stores one completed exchange.
func (a *transcriptArchive) Append(ctx context.Context, exchange domain.ArchivedExchange) error {
	if exchange.SessionID == "" {
		return domain.NewValidationError("session_id", domain.ErrInvalidInput)
	}

	sources := exchange.Answer.Sources
	if sources == nil {
		sources = []domain.SourceCitation{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	_, err = a.store.db.ExecContext(ctx, `
		INSERT INTO exchanges (
			session_id, generation,
			question_id, question, asked_at,
			answer_id, answer, answered_at,
			failed, confidence, prompt_used, sources
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exchange.SessionID, exchange.Generation,
		exchange.Question.ID, exchange.Question.Content, exchange.Question.CreatedAt.UnixMilli(),
		exchange.Answer.ID, exchange.Answer.Content, exchange.Answer.CreatedAt.UnixMilli(),
		exchange.Answer.Failed, exchange.Answer.Confidence, exchange.Answer.PromptUsed, string(sourcesJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

// ListSessions returns archived sessions, most recent first.
func (a *transcriptArchive) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := a.store.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MIN(asked_at), MAX(answered_at)
		FROM exchanges
		GROUP BY session_id
		ORDER BY MAX(answered_at) DESC, session_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.SessionSummary{}
	for rows.Next() {
		var (
			summary         domain.SessionSummary
			startedAt, last int64
		)
		if err := rows.Scan(&summary.ID, &summary.Exchanges, &startedAt, &last); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		summary.StartedAt = time.UnixMilli(startedAt)
		summary.LastAt = time.UnixMilli(last)
		sessions = append(sessions, summary)
	}
	return sessions, rows.Err()
}

// Exchanges returns a session's exchanges in the order they were stored.
func (a *transcriptArchive) Exchanges(ctx context.Context, sessionID string) ([]domain.ArchivedExchange, error) {
	rows, err := a.store.db.QueryContext(ctx, `
		SELECT generation,
		       question_id, question, asked_at,
		       answer_id, answer, answered_at,
		       failed, confidence, prompt_used, sources
		FROM exchanges
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []domain.ArchivedExchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		ex.SessionID = sessionID
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchanges: %w", err)
	}
	if len(exchanges) == 0 {
		return nil, domain.ErrNotFound
	}
	return exchanges, nil
}

func scanExchange(rows *sql.Rows) (domain.ArchivedExchange, error) {
	var (
		ex                domain.ArchivedExchange
		askedAt, answerAt int64
		sourcesJSON       string
	)
	err := rows.Scan(
		&ex.Generation,
		&ex.Question.ID, &ex.Question.Content, &askedAt,
		&ex.Answer.ID, &ex.Answer.Content, &answerAt,
		&ex.Answer.Failed, &ex.Answer.Confidence, &ex.Answer.PromptUsed, &sourcesJSON,
	)
	if err != nil {
		return ex, fmt.Errorf("scanning exchange: %w", err)
	}

	ex.Question.IsUser = true
	ex.Question.CreatedAt = time.UnixMilli(askedAt)
	ex.Answer.CreatedAt = time.UnixMilli(answerAt)

	if err := json.Unmarshal([]byte(sourcesJSON), &ex.Answer.Sources); err != nil {
		return ex, fmt.Errorf("unmarshalling sources: %w", err)
	}
	if len(ex.Answer.Sources) == 0 {
		ex.Answer.Sources = nil
	}
	return ex, nil
}
