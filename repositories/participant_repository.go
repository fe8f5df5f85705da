package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aidosbek/swisscut/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant already registered for this tournament")
	ErrParticipantTournamentInvalid = errors.New("participant tournament conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error)
	// ListByTournament returns the tournament's participants, optionally
	// filtered to the given statuses (nil means all).
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, statuses []models.ParticipantStatus) ([]*models.Participant, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error
	UpdateAvatarKey(ctx context.Context, exec SQLExecutor, id int, avatarKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, user_id, display_name, status, avatar_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		participant.TournamentID,
		participant.UserID,
		participant.DisplayName,
		participant.Status,
		participant.AvatarKey,
	).Scan(&participant.ID, &participant.CreatedAt)

	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	var p models.Participant
	err := rowScanner.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.DisplayName, &p.Status, &p.AvatarKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, user_id, display_name, status, avatar_key, created_at
		FROM participants
		WHERE id = $1`
	participant, err := r.scanParticipant(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan participant by id %d: %w", id, err)
	}
	return participant, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, statuses []models.ParticipantStatus) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, user_id, display_name, status, avatar_key, created_at
		FROM participants
		WHERE tournament_id = $1`
	args := []interface{}{tournamentID}

	if len(statuses) > 0 {
		statusStrings := make([]string, len(statuses))
		for i, s := range statuses {
			statusStrings[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings))
	}
	query += ` ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, scanErr := r.scanParticipant(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipantStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE participants SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateAvatarKey(ctx context.Context, exec SQLExecutor, id int, avatarKey *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE participants SET avatar_key = $1 WHERE id = $2`, avatarKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "participants_tournament_id_fkey":
			return ErrParticipantTournamentInvalid
		case "participants_tournament_id_user_id_key", "participants_tournament_id_display_name_key":
			return ErrParticipantConflict
		}
	}
	return err
}
