package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aidosbek/swisscut/brackets"
	"github.com/aidosbek/swisscut/models"
	"github.com/aidosbek/swisscut/repositories"
)

// MatchService records results. The normal path is RecordFinish: one finish
// event per call, score derived from the event log. SetMatchScore is the
// judge's override and wipes the event log it contradicts.
type MatchService interface {
	RecordFinish(ctx context.Context, matchID, winnerParticipantID int, finishType models.FinishType) (*models.Match, error)
	SetMatchScore(ctx context.Context, matchID, scoreA, scoreB int) (*models.Match, error)
	ResetMatch(ctx context.Context, matchID int) (*models.Match, error)
	GetByID(ctx context.Context, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, stage *models.Stage, round *int) ([]*models.Match, error)
	ListEvents(ctx context.Context, matchID int) ([]*models.MatchEvent, error)
}

type matchService struct {
	tx             repositories.Transactor
	matchRepo      repositories.MatchRepository
	matchEventRepo repositories.MatchEventRepository
	swissRoundRepo repositories.SwissRoundRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	matchEventRepo repositories.MatchEventRepository,
	swissRoundRepo repositories.SwissRoundRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:             tx,
		matchRepo:      matchRepo,
		matchEventRepo: matchEventRepo,
		swissRoundRepo: swissRoundRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *matchService) RecordFinish(ctx context.Context, matchID, winnerParticipantID int, finishType models.FinishType) (*models.Match, error) {
	points, ok := models.FinishPoints[finishType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFinishType, finishType)
	}

	var match *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.loadMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if match.Status == models.MatchComplete {
			return ErrMatchAlreadyComplete
		}
		if match.IsBye {
			return ErrMatchIsBye
		}
		if !match.HasParticipant(winnerParticipantID) {
			return fmt.Errorf("%w: participant %d", ErrInvalidWinner, winnerParticipantID)
		}

		event := &models.MatchEvent{
			MatchID:       matchID,
			WinnerID:      winnerParticipantID,
			FinishType:    finishType,
			PointsAwarded: points,
		}
		if err := s.matchEventRepo.Create(ctx, exec, event); err != nil {
			return err
		}

		if match.ParticipantAID != nil && *match.ParticipantAID == winnerParticipantID {
			match.ScoreA += points
		} else {
			match.ScoreB += points
		}
		s.resolveOutcome(match)

		if err := s.matchRepo.UpdateScoreStatusWinner(ctx, exec, match.ID, match.ScoreA, match.ScoreB, match.Status, match.WinnerID); err != nil {
			return err
		}
		if match.Status == models.MatchComplete {
			return s.onMatchCompleted(ctx, exec, match)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(match)
	return match, nil
}

func (s *matchService) SetMatchScore(ctx context.Context, matchID, scoreA, scoreB int) (*models.Match, error) {
	if scoreA < 0 || scoreB < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrValidationFailed)
	}

	var match *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.loadMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if match.IsBye {
			return ErrMatchIsBye
		}
		if scoreA >= match.TargetPoints && scoreB >= match.TargetPoints {
			return fmt.Errorf("%w: both sides cannot reach the target", ErrValidationFailed)
		}

		// The override invalidates the per-finish history.
		if err := s.matchEventRepo.DeleteByMatch(ctx, exec, matchID); err != nil {
			return err
		}

		match.ScoreA = scoreA
		match.ScoreB = scoreB
		match.Status = models.MatchPending
		match.WinnerID = nil
		s.resolveOutcome(match)

		if err := s.matchRepo.UpdateScoreStatusWinner(ctx, exec, match.ID, match.ScoreA, match.ScoreB, match.Status, match.WinnerID); err != nil {
			return err
		}
		if match.Status == models.MatchComplete {
			return s.onMatchCompleted(ctx, exec, match)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(match)
	return match, nil
}

func (s *matchService) ResetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	var match *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.loadMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if match.IsBye {
			return ErrMatchIsBye
		}

		if err := s.matchEventRepo.DeleteByMatch(ctx, exec, matchID); err != nil {
			return err
		}
		if err := s.matchRepo.ResetForReplay(ctx, exec, matchID); err != nil {
			return err
		}
		match.ScoreA = 0
		match.ScoreB = 0
		match.Status = models.MatchPending
		match.WinnerID = nil

		// The round is no longer complete once one of its matches replays.
		if match.Stage == models.StageSwiss {
			round, err := s.swissRoundRepo.GetByNumber(ctx, exec, match.TournamentID, match.Round)
			if err != nil {
				if errors.Is(err, repositories.ErrSwissRoundNotFound) {
					return nil
				}
				return err
			}
			if round.Status == models.SwissRoundComplete {
				return s.swissRoundRepo.UpdateStatus(ctx, exec, round.ID, models.SwissRoundActive)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(match)
	return match, nil
}

func (s *matchService) GetByID(ctx context.Context, matchID int) (*models.Match, error) {
	return s.loadMatch(ctx, nil, matchID)
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, stage *models.Stage, round *int) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID, stage, round)
}

func (s *matchService) ListEvents(ctx context.Context, matchID int) ([]*models.MatchEvent, error) {
	if _, err := s.loadMatch(ctx, nil, matchID); err != nil {
		return nil, err
	}
	return s.matchEventRepo.ListByMatch(ctx, nil, matchID)
}

func (s *matchService) loadMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, exec, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// resolveOutcome completes the match once a side reaches the target.
// A finish can overshoot the target; the overshoot is kept in the score.
func (s *matchService) resolveOutcome(m *models.Match) {
	switch {
	case m.ScoreA >= m.TargetPoints:
		m.Status = models.MatchComplete
		m.WinnerID = m.ParticipantAID
	case m.ScoreB >= m.TargetPoints:
		m.Status = models.MatchComplete
		m.WinnerID = m.ParticipantBID
	}
}

// onMatchCompleted runs the stage-specific follow-up inside the same
// transaction: a swiss round flips to complete when its last match finishes,
// a bracket winner moves into the next round's shell if it already exists.
func (s *matchService) onMatchCompleted(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	switch match.Stage {
	case models.StageSwiss:
		roundMatches, err := s.matchRepo.ListByTournament(ctx, exec, match.TournamentID, &match.Stage, &match.Round)
		if err != nil {
			return err
		}
		for _, m := range roundMatches {
			if m.ID != match.ID && m.Status != models.MatchComplete {
				return nil
			}
		}
		round, err := s.swissRoundRepo.GetByNumber(ctx, exec, match.TournamentID, match.Round)
		if err != nil {
			if errors.Is(err, repositories.ErrSwissRoundNotFound) {
				return nil
			}
			return err
		}
		return s.swissRoundRepo.UpdateStatus(ctx, exec, round.ID, models.SwissRoundComplete)

	case models.StageTopCut:
		if match.WinnerID == nil {
			return nil
		}
		nextNumber, slot := brackets.NextSlot(match.MatchNumber)
		updated, err := s.matchRepo.SetBracketSlot(ctx, exec, match.TournamentID, match.Round+1, nextNumber, string(slot), *match.WinnerID)
		if err != nil {
			return err
		}
		if !updated {
			// Normal until the next round is generated; AdvanceBracket will
			// carry the winner over then.
			s.logger.DebugContext(ctx, "no next-round match to propagate winner into",
				slog.Int("match_id", match.ID),
				slog.Int("round", match.Round+1),
				slog.Int("match_number", nextNumber))
		}
	}
	return nil
}

func (s *matchService) broadcastMatch(match *models.Match) {
	if s.hub == nil || match == nil {
		return
	}
	room := tournamentRoom(match.TournamentID)
	s.hub.BroadcastToRoom(room, brackets.Message{Type: brackets.EventMatchUpdated, Payload: match, RoomID: room})
}
