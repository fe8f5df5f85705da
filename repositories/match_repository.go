package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aidosbek/swisscut/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchNumberConflict    = errors.New("match number already taken in this round")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, stage *models.Stage, round *int) ([]*models.Match, error)
	CountByRound(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) (int, error)
	UpdateScoreStatusWinner(ctx context.Context, exec SQLExecutor, id int, scoreA, scoreB int, status models.MatchStatus, winnerID *int) error
	// SetBracketSlot fills one side of a top-cut match addressed by its
	// topology key. Returns false without error when the target match does
	// not exist yet (advancement ran ahead of shell generation).
	SetBracketSlot(ctx context.Context, exec SQLExecutor, tournamentID, round, matchNumber int, slot string, participantID int) (bool, error)
	ResetForReplay(ctx context.Context, exec SQLExecutor, id int) error
	DeleteByRoundGreaterThan(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) (int64, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, stage, round, match_number, participant_a_id, participant_b_id,
	       score_a, score_b, target_points, status, winner_id, is_bye, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, stage, round, match_number, participant_a_id, participant_b_id,
			 score_a, score_b, target_points, status, winner_id, is_bye)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Stage,
		match.Round,
		match.MatchNumber,
		match.ParticipantAID,
		match.ParticipantBID,
		match.ScoreA,
		match.ScoreB,
		match.TargetPoints,
		match.Status,
		match.WinnerID,
		match.IsBye,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.Stage, &m.Round, &m.MatchNumber,
		&m.ParticipantAID, &m.ParticipantBID, &m.ScoreA, &m.ScoreB,
		&m.TargetPoints, &m.Status, &m.WinnerID, &m.IsBye, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := r.scanMatch(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, stage *models.Stage, round *int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if stage != nil {
		queryBuilder.WriteString(" AND stage = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *stage)
		placeholderIndex++
	}
	if round != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *round)
	}

	queryBuilder.WriteString(" ORDER BY stage ASC, round ASC, match_number ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountByRound(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND stage = $2 AND round = $3`
	var count int
	if err := executor.QueryRowContext(ctx, query, tournamentID, stage, round).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches for tournament %d round %d: %w", tournamentID, round, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) UpdateScoreStatusWinner(ctx context.Context, exec SQLExecutor, id int, scoreA, scoreB int, status models.MatchStatus, winnerID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET score_a = $1, score_b = $2, status = $3, winner_id = $4 WHERE id = $5`
	result, err := executor.ExecContext(ctx, query, scoreA, scoreB, status, winnerID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetBracketSlot(ctx context.Context, exec SQLExecutor, tournamentID, round, matchNumber int, slot string, participantID int) (bool, error) {
	executor := r.getExecutor(exec)
	column := "participant_a_id"
	if slot == "B" {
		column = "participant_b_id"
	}
	query := fmt.Sprintf(`
		UPDATE matches SET %s = $1
		WHERE tournament_id = $2 AND stage = $3 AND round = $4 AND match_number = $5`, column)
	result, err := executor.ExecContext(ctx, query, participantID, tournamentID, models.StageTopCut, round, matchNumber)
	if err != nil {
		return false, r.handleMatchError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresMatchRepository) ResetForReplay(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET score_a = 0, score_b = 0, status = $1, winner_id = NULL WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, models.MatchPending, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByRoundGreaterThan(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) (int64, error) {
	executor := r.getExecutor(exec)
	query := `DELETE FROM matches WHERE tournament_id = $1 AND stage = $2 AND round > $3`
	result, err := executor.ExecContext(ctx, query, tournamentID, stage, round)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches beyond round %d: %w", round, err)
	}
	return result.RowsAffected()
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// "23503": foreign_key_violation, "23505": unique_violation
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_participant_a_id_fkey", "matches_participant_b_id_fkey", "matches_winner_id_fkey":
			return ErrMatchParticipantInvalid
		case "matches_round_match_number_key":
			return ErrMatchNumberConflict
		}
	}
	return err
}
