// Package archive persists durable room, player and round records in
// Postgres. Live game state stays in the room engines; the archive is the
// system of record for history that must survive restarts.
package archive

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptparty/server/internal/models"
)

// Repository writes game records through a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertRoom records a room's identity and latest phase.
func (r *Repository) UpsertRoom(ctx context.Context, room *models.Room) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rooms (id, join_code, phase, actor_cursor, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET phase = EXCLUDED.phase, actor_cursor = EXCLUDED.actor_cursor`,
		room.ID, room.JoinCode, string(room.Phase), room.ActorCursor, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert room: %w", err)
	}
	return nil
}

// UpsertPlayer records a player's seat.
func (r *Repository) UpsertPlayer(ctx context.Context, player *models.Player) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (id, room_id, display_name, is_host, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name`,
		player.ID, player.RoomID, player.DisplayName, player.IsHost, player.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

// RecordRound writes a finished round and its ratings in one transaction.
func (r *Repository) RecordRound(ctx context.Context, round *models.Round) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin record round: %w", err)
	}
	defer tx.Rollback(ctx)

	var promptText string
	if round.SelectedPrompt != nil {
		promptText = round.SelectedPrompt.Text
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rounds (id, room_id, actor_id, prompt_text, started_at,
			min_cutoff_at, max_end_at, end_reason, average_rating, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		round.ID, round.RoomID, round.ActorID, promptText, round.StartedAt,
		round.MinCutoffAt, round.MaxEndAt, string(round.EndReason),
		round.AverageRating, round.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	for _, rating := range round.Ratings {
		_, err = tx.Exec(ctx, `
			INSERT INTO ratings (round_id, player_id, value, rated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (round_id, player_id) DO NOTHING`,
			rating.RoundID, rating.PlayerID, rating.Value, rating.RatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit record round: %w", err)
	}
	return nil
}
