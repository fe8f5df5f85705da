package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aidosbek/swisscut/models"
	"github.com/aidosbek/swisscut/repositories"
	"github.com/aidosbek/swisscut/storage"
)

type RegisterParticipantInput struct {
	DisplayName string `json:"display_name"`
	UserID      *int   `json:"user_id,omitempty"`
}

type ParticipantService interface {
	Register(ctx context.Context, tournamentID int, input RegisterParticipantInput) (*models.Participant, error)
	CheckIn(ctx context.Context, participantID int) (*models.Participant, error)
	Drop(ctx context.Context, participantID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int, statuses []models.ParticipantStatus) ([]*models.Participant, error)
	UploadAvatar(ctx context.Context, participantID int, contentType string, file io.Reader) (*models.Participant, error)
	Remove(ctx context.Context, participantID int) error
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *participantService) Register(ctx context.Context, tournamentID int, input RegisterParticipantInput) (*models.Participant, error) {
	if input.DisplayName == "" {
		return nil, ErrDisplayNameRequired
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	// Регистрация закрывается со стартом первого раунда.
	if tournament.Status != models.StatusDraft && tournament.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: registration is closed", ErrTournamentNotEligible)
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       input.UserID,
		DisplayName:  input.DisplayName,
		Status:       models.ParticipantApproved,
	}
	if err := s.participantRepo.Create(ctx, nil, participant); err != nil {
		switch {
		case errors.Is(err, repositories.ErrParticipantConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrParticipantTournamentInvalid):
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "participant registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", participant.ID))
	return participant, nil
}

func (s *participantService) CheckIn(ctx context.Context, participantID int) (*models.Participant, error) {
	return s.setStatus(ctx, participantID, models.ParticipantCheckedIn)
}

func (s *participantService) Drop(ctx context.Context, participantID int) (*models.Participant, error) {
	return s.setStatus(ctx, participantID, models.ParticipantDropped)
}

func (s *participantService) setStatus(ctx context.Context, participantID int, status models.ParticipantStatus) (*models.Participant, error) {
	participant, err := s.loadParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant.Status == status {
		return participant, nil
	}

	if err := s.participantRepo.UpdateStatus(ctx, nil, participantID, status); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	participant.Status = status

	s.logger.InfoContext(ctx, "participant status changed",
		slog.Int("participant_id", participantID),
		slog.String("status", string(status)))
	return participant, nil
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int, statuses []models.ParticipantStatus) ([]*models.Participant, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, nil, tournamentID, statuses)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		s.attachAvatarURL(p)
	}
	return participants, nil
}

func (s *participantService) UploadAvatar(ctx context.Context, participantID int, contentType string, file io.Reader) (*models.Participant, error) {
	if s.uploader == nil {
		return nil, ErrUploaderNotConfigured
	}

	participant, err := s.loadParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("participants/%d/avatar", participantID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload participant avatar: %w", err)
	}

	if err := s.participantRepo.UpdateAvatarKey(ctx, nil, participantID, &result.Key); err != nil {
		return nil, err
	}
	participant.AvatarKey = &result.Key
	s.attachAvatarURL(participant)
	return participant, nil
}

func (s *participantService) Remove(ctx context.Context, participantID int) error {
	participant, err := s.loadParticipant(ctx, participantID)
	if err != nil {
		return err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, participant.TournamentID)
	if err != nil && !errors.Is(err, repositories.ErrTournamentNotFound) {
		return err
	}
	// После старта участник остаётся в истории матчей; его можно только дропнуть.
	if tournament != nil && (tournament.Status == models.StatusStarted || tournament.Status == models.StatusCompleted) {
		return fmt.Errorf("%w: drop the participant instead of removing", ErrTournamentNotEligible)
	}

	if err := s.participantRepo.Delete(ctx, nil, participantID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	if participant.AvatarKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *participant.AvatarKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete participant avatar from storage",
				slog.Int("participant_id", participantID),
				slog.Any("error", delErr))
		}
	}
	return nil
}

func (s *participantService) loadParticipant(ctx context.Context, participantID int) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, nil, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return participant, nil
}

func (s *participantService) attachAvatarURL(p *models.Participant) {
	if p.AvatarKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*p.AvatarKey)
	if url != "" {
		p.AvatarURL = &url
	}
}
