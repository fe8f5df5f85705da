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
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name         string `json:"name"`
	TargetPoints int    `json:"target_points"`
	SwissRounds  int    `json:"swiss_rounds"`
	CutSize      int    `json:"cut_size"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetDetails returns the tournament with its organizer, participants,
	// matches and swiss round records attached.
	GetDetails(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)
}

// Допустимые переходы статуса. Пустой список — терминальный статус.
var tournamentStatusTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusDraft:     {models.StatusPending},
	models.StatusPending:   {models.StatusDraft, models.StatusStarted},
	models.StatusStarted:   {models.StatusCompleted},
	models.StatusCompleted: {},
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	swissRoundRepo  repositories.SwissRoundRepository
	userRepo        repositories.UserRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	swissRoundRepo repositories.SwissRoundRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		swissRoundRepo:  swissRoundRepo,
		userRepo:        userRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.TargetPoints <= 0 {
		return nil, ErrInvalidTargetPoints
	}
	if input.SwissRounds <= 0 {
		return nil, ErrInvalidSwissRoundCount
	}
	if !models.AllowedCutSizes[input.CutSize] {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCutSize, input.CutSize)
	}

	tournament := &models.Tournament{
		Name:         input.Name,
		OrganizerID:  organizerID,
		TargetPoints: input.TargetPoints,
		SwissRounds:  input.SwissRounds,
		CutSize:      input.CutSize,
		Status:       models.StatusDraft,
	}
	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNameConflict):
			return nil, ErrTournamentNameConflict
		case errors.Is(err, repositories.ErrTournamentOrganizerInvalid):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("name", tournament.Name))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.attachLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) GetDetails(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		organizer, err := s.userRepo.GetByID(gctx, tournament.OrganizerID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil
			}
			return err
		}
		tournament.Organizer = organizer
		return nil
	})

	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gctx, nil, id, nil)
		if err != nil {
			return err
		}
		tournament.Participants = make([]models.Participant, 0, len(participants))
		for _, p := range participants {
			s.attachAvatarURL(p)
			tournament.Participants = append(tournament.Participants, *p)
		}
		return nil
	})

	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, nil, id, nil, nil)
		if err != nil {
			return err
		}
		tournament.Matches = make([]models.Match, 0, len(matches))
		for _, m := range matches {
			tournament.Matches = append(tournament.Matches, *m)
		}
		return nil
	})

	g.Go(func() error {
		rounds, err := s.swissRoundRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return err
		}
		tournament.SwissRoundsL = make([]models.SwissRound, 0, len(rounds))
		for _, r := range rounds {
			tournament.SwissRoundsL = append(tournament.SwissRoundsL, *r)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.attachLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if _, known := tournamentStatusTransitions[status]; !known {
		return nil, fmt.Errorf("%w: %q", ErrTournamentInvalidStatus, status)
	}

	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range tournamentStatusTransitions[tournament.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, status)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	tournament.Status = status

	s.logger.InfoContext(ctx, "tournament status changed",
		slog.Int("tournament_id", id),
		slog.String("status", string(status)))
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.tournamentRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	if tournament.LogoKey != nil && s.uploader != nil {
		if delErr := s.uploader.Delete(ctx, *tournament.LogoKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete tournament logo from storage",
				slog.Int("tournament_id", id),
				slog.Any("error", delErr))
		}
	}
	return nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrUploaderNotConfigured
	}

	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/logo", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	if err := s.tournamentRepo.UpdateLogoKey(ctx, nil, id, &result.Key); err != nil {
		return nil, err
	}
	tournament.LogoKey = &result.Key
	s.attachLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) attachLogoURL(t *models.Tournament) {
	if t.LogoKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.LogoKey)
	if url != "" {
		t.LogoURL = &url
	}
}

func (s *tournamentService) attachAvatarURL(p *models.Participant) {
	if p.AvatarKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*p.AvatarKey)
	if url != "" {
		p.AvatarURL = &url
	}
}
