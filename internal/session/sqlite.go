// internal/session/sqlite.go
//
// SQLite-backed Repository. One row per session in the sessions table,
// holding the full roster + GameState as a JSON blob, plus one row per
// participant in session_players for querying membership without parsing
// the blob. Schema lives in sql/001_init.sql.

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fredrikpaulin/DUNGEONS/internal/engine"
)

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a Repository over an opened database.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

// storedState is the JSON blob shape inside sessions.state.
type storedState struct {
	HostID  string            `json:"hostId"`
	Members []Member          `json:"members"`
	Game    *engine.GameState `json:"gameState,omitempty"`
}

func (r *sqliteRepository) Save(ctx context.Context, rec *Record) error {
	blob, err := json.Marshal(storedState{HostID: rec.HostID, Members: rec.Members, Game: rec.Game})
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", rec.ID, err)
	}

	now := time.Now().UnixMilli()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, adventure_id, state, phase, created_at, updated_at)
		VALUES (?,?,?,?,?,?)`,
		rec.ID, rec.AdventureID, string(blob), rec.Phase, rec.CreatedAt, now); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_players WHERE session_id=?`, rec.ID); err != nil {
		return fmt.Errorf("clear session players %s: %w", rec.ID, err)
	}
	for _, m := range rec.Members {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal member %s: %w", m.UserID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_players (session_id, user_id, player_data, joined_at)
			VALUES (?,?,?,?)`,
			rec.ID, m.UserID, string(data), now); err != nil {
			return fmt.Errorf("save session player %s: %w", m.UserID, err)
		}
	}

	return tx.Commit()
}

func (r *sqliteRepository) Load(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, adventure_id, state, phase, created_at FROM sessions WHERE id=?`, id)

	var rec Record
	var blob string
	if err := row.Scan(&rec.ID, &rec.AdventureID, &blob, &rec.Phase, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var stored storedState
	if err := json.Unmarshal([]byte(blob), &stored); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	rec.HostID = stored.HostID
	rec.Members = stored.Members
	rec.Game = stored.Game
	return &rec, nil
}

func (r *sqliteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_players WHERE session_id=?`, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	return err
}
