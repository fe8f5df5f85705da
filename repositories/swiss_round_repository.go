package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aidosbek/swisscut/models"
)

var ErrSwissRoundNotFound = errors.New("swiss round not found")

type SwissRoundRepository interface {
	// Upsert creates the round record for (tournament_id, round_number) or
	// returns the existing one unchanged, so re-invocation never duplicates
	// the round itself.
	Upsert(ctx context.Context, exec SQLExecutor, round *models.SwissRound) error
	GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber int) (*models.SwissRound, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.SwissRound, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.SwissRoundStatus) error
}

type postgresSwissRoundRepository struct {
	db *sql.DB
}

func NewPostgresSwissRoundRepository(db *sql.DB) SwissRoundRepository {
	return &postgresSwissRoundRepository{db: db}
}

func (r *postgresSwissRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSwissRoundRepository) Upsert(ctx context.Context, exec SQLExecutor, round *models.SwissRound) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO swiss_rounds (tournament_id, round_number, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id, round_number)
		DO UPDATE SET tournament_id = EXCLUDED.tournament_id
		RETURNING id, status, created_at`

	err := executor.QueryRowContext(ctx, query,
		round.TournamentID, round.RoundNumber, round.Status,
	).Scan(&round.ID, &round.Status, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert swiss round %d for tournament %d: %w", round.RoundNumber, round.TournamentID, err)
	}
	return nil
}

func (r *postgresSwissRoundRepository) scanRound(rowScanner interface{ Scan(...interface{}) error }) (*models.SwissRound, error) {
	var sr models.SwissRound
	err := rowScanner.Scan(&sr.ID, &sr.TournamentID, &sr.RoundNumber, &sr.Status, &sr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSwissRoundNotFound
		}
		return nil, err
	}
	return &sr, nil
}

func (r *postgresSwissRoundRepository) GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber int) (*models.SwissRound, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, round_number, status, created_at
		FROM swiss_rounds
		WHERE tournament_id = $1 AND round_number = $2`
	return r.scanRound(executor.QueryRowContext(ctx, query, tournamentID, roundNumber))
}

func (r *postgresSwissRoundRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.SwissRound, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, round_number, status, created_at
		FROM swiss_rounds
		WHERE tournament_id = $1
		ORDER BY round_number ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query swiss rounds for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	rounds := make([]*models.SwissRound, 0)
	for rows.Next() {
		sr, scanErr := r.scanRound(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan swiss round row: %w", scanErr)
		}
		rounds = append(rounds, sr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during swiss round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresSwissRoundRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.SwissRoundStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE swiss_rounds SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSwissRoundNotFound)
}
