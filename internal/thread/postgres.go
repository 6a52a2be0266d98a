package thread

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore persists the conversation mapping in Postgres, so mappings
// survive restarts. It satisfies the same Store contract as MemoryStore.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(log *slog.Logger, pool *pgxpool.Pool) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresStore{
		pool:   pool,
		logger: log.With(slog.String("store", "postgres")),
	}
}

// Migrate applies the embedded schema migrations against dsn.
func Migrate(dsn string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	migrateDSN := strings.Replace(dsn, "postgres://", "pgx5://", 1)
	m, err := migrate.NewWithSourceInstance("iofs", source, migrateDSN)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, conversationID string) (string, bool, error) {
	var threadID string
	err := s.pool.QueryRow(ctx,
		`SELECT thread_id FROM conversation_threads WHERE conversation_id = $1`,
		conversationID,
	).Scan(&threadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get mapping: %w", err)
	}
	return threadID, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, conversationID, threadID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("conversation id is required")
	}
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("thread id is required")
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_threads (conversation_id, thread_id)
		 VALUES ($1, $2)
		 ON CONFLICT (conversation_id) DO NOTHING`,
		conversationID, threadID,
	)
	if err != nil {
		return fmt.Errorf("put mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, ok, err := s.Get(ctx, conversationID)
		if err != nil {
			return err
		}
		if ok && existing != threadID {
			return fmt.Errorf("conversation %s already mapped to %s", conversationID, existing)
		}
	}
	return nil
}
