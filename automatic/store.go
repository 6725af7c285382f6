package automatic

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createGamesTable = `CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	agent0 TEXT NOT NULL,
	agent1 TEXT NOT NULL,
	swapped INTEGER NOT NULL,
	winner_agent INTEGER NOT NULL,
	turns INTEGER NOT NULL,
	plies INTEGER NOT NULL,
	seeds0 INTEGER NOT NULL,
	seeds1 INTEGER NOT NULL,
	created_at TEXT NOT NULL
)`

// Store keeps finished self-play games in a SQLite file.
type Store struct {
	db *sql.DB
}

func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time avoids SQLITE_BUSY from concurrent workers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, createGamesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating games table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveGame(ctx context.Context, r *GameResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, agent0, agent1, swapped, winner_agent, turns, plies, seeds0, seeds1, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.Agents[0].String(), r.Agents[1].String(), r.Swapped, r.WinnerAgent,
		r.Turns, r.Plies, r.Seeds[0], r.Seeds[1], time.Now().UTC().Format(time.RFC3339))
	return err
}

// Standing is the win count for one agent string in one seat.
type Standing struct {
	Agent string
	Index int
	Wins  int
}

// Standings tallies stored games by winning agent. Draws are reported with
// Index -1 and an empty Agent.
func (s *Store) Standings(ctx context.Context) ([]Standing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		CASE winner_agent WHEN 0 THEN agent0 WHEN 1 THEN agent1 ELSE '' END,
		winner_agent, COUNT(*)
		FROM games GROUP BY 1, 2 ORDER BY 2`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Agent, &st.Index, &st.Wins); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n)
	return n, err
}
