package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aidosbek/swisscut/models"
)

var ErrMatchEventMatchInvalid = errors.New("match event references an invalid match")

type MatchEventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.MatchEvent) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchEvent, error)
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
	// DeleteForRound removes the events of every match in the given round.
	DeleteForRound(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) error
	// DeleteForRoundsAbove removes the events of matches in rounds beyond the
	// given one. Runs before those matches are deleted so no event can be
	// orphaned by a partial failure.
	DeleteForRoundsAbove(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) error
}

type postgresMatchEventRepository struct {
	db *sql.DB
}

func NewPostgresMatchEventRepository(db *sql.DB) MatchEventRepository {
	return &postgresMatchEventRepository{db: db}
}

func (r *postgresMatchEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.MatchEvent) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_events (match_id, winner_id, finish_type, points_awarded)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		event.MatchID, event.WinnerID, event.FinishType, event.PointsAwarded,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match event for match %d: %w", event.MatchID, err)
	}
	return nil
}

func (r *postgresMatchEventRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.MatchEvent, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, winner_id, finish_type, points_awarded, created_at
		FROM match_events
		WHERE match_id = $1
		ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match events for match %d: %w", matchID, err)
	}
	defer rows.Close()

	events := make([]*models.MatchEvent, 0)
	for rows.Next() {
		var e models.MatchEvent
		if scanErr := rows.Scan(&e.ID, &e.MatchID, &e.WinnerID, &e.FinishType, &e.PointsAwarded, &e.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match event row: %w", scanErr)
		}
		events = append(events, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match event rows iteration: %w", err)
	}
	return events, nil
}

func (r *postgresMatchEventRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM match_events WHERE match_id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match events for match %d: %w", matchID, err)
	}
	return nil
}

func (r *postgresMatchEventRepository) DeleteForRound(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM match_events
		WHERE match_id IN (
			SELECT id FROM matches
			WHERE tournament_id = $1 AND stage = $2 AND round = $3
		)`
	if _, err := executor.ExecContext(ctx, query, tournamentID, stage, round); err != nil {
		return fmt.Errorf("failed to delete match events for round %d: %w", round, err)
	}
	return nil
}

func (r *postgresMatchEventRepository) DeleteForRoundsAbove(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) error {
	executor := r.getExecutor(exec)
	query := `
		DELETE FROM match_events
		WHERE match_id IN (
			SELECT id FROM matches
			WHERE tournament_id = $1 AND stage = $2 AND round > $3
		)`
	if _, err := executor.ExecContext(ctx, query, tournamentID, stage, round); err != nil {
		return fmt.Errorf("failed to delete match events beyond round %d: %w", round, err)
	}
	return nil
}
