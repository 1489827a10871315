package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions as JSONB rows with an expires_at column.
// Expired rows are filtered on read and purged opportunistically on write.
//
// Expected schema:
//
//	CREATE TABLE sessions (
//	    id         TEXT PRIMARY KEY,
//	    data       JSONB NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresStore creates a Postgres-backed session store. A zero ttl
// defaults to one hour.
func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &PostgresStore{pool: pool, ttl: ttl}
}

// Create persists a new session, assigning an ID when empty.
func (s *PostgresStore) Create(ctx context.Context, sess *Session) error {
	now := time.Now()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	query := `
		INSERT INTO sessions (id, data, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.Exec(ctx, query, sess.ID, data, now.Add(s.ttl), now); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get fetches a session and slides its expiry forward.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	query := `
		UPDATE sessions
		SET expires_at = $2
		WHERE id = $1 AND expires_at > now()
		RETURNING data
	`

	var data []byte
	err := s.pool.QueryRow(ctx, query, id, time.Now().Add(s.ttl)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Update replaces a stored session and slides its expiry forward.
func (s *PostgresStore) Update(ctx context.Context, sess *Session) error {
	now := time.Now()
	sess.UpdatedAt = now

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	query := `
		UPDATE sessions
		SET data = $2, expires_at = $3, updated_at = $4
		WHERE id = $1 AND expires_at > now()
	`
	tag, err := s.pool.Exec(ctx, query, sess.ID, data, now.Add(s.ttl), now)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session and purges any expired rows while it is here.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1 OR expires_at <= now()`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
