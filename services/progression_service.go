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

// SwissRoundResult is the payload returned by swiss round generation.
type SwissRoundResult struct {
	Round            *models.SwissRound `json:"round"`
	Matches          []*models.Match    `json:"matches"`
	ParticipantCount int                `json:"participant_count"`
}

// ProgressionService drives the tournament through its stages: swiss round
// pairing, standings, top-cut seeding, bracket advancement and rollback.
// Every multi-record write runs inside a single transaction so readers never
// observe a half-built round.
type ProgressionService interface {
	GenerateSwissRound1(ctx context.Context, tournamentID int) (*SwissRoundResult, error)
	GenerateSwissRound(ctx context.Context, tournamentID, roundNumber int) (*SwissRoundResult, error)
	Standings(ctx context.Context, tournamentID int) ([]brackets.Standing, error)
	GenerateTopCut(ctx context.Context, tournamentID int, cutSizeOverride *int) ([]*models.Match, error)
	AdvanceBracket(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ResetBracketRound(ctx context.Context, tournamentID, roundNumber int) error
}

type progressionService struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	swissRoundRepo  repositories.SwissRoundRepository
	matchEventRepo  repositories.MatchEventRepository
	pairer          *brackets.SwissPairer
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewProgressionService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	swissRoundRepo repositories.SwissRoundRepository,
	matchEventRepo repositories.MatchEventRepository,
	pairer *brackets.SwissPairer,
	hub *brackets.Hub,
	logger *slog.Logger,
) ProgressionService {
	return &progressionService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		swissRoundRepo:  swissRoundRepo,
		matchEventRepo:  matchEventRepo,
		pairer:          pairer,
		hub:             hub,
		logger:          logger,
	}
}

var eligibleStatuses = []models.ParticipantStatus{
	models.ParticipantApproved,
	models.ParticipantCheckedIn,
}

func (s *progressionService) GenerateSwissRound1(ctx context.Context, tournamentID int) (*SwissRoundResult, error) {
	return s.generateSwissRound(ctx, tournamentID, 1)
}

func (s *progressionService) GenerateSwissRound(ctx context.Context, tournamentID, roundNumber int) (*SwissRoundResult, error) {
	return s.generateSwissRound(ctx, tournamentID, roundNumber)
}

func (s *progressionService) generateSwissRound(ctx context.Context, tournamentID, roundNumber int) (*SwissRoundResult, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusStarted {
		return nil, fmt.Errorf("%w: tournament %d is %s", ErrTournamentNotEligible, tournamentID, tournament.Status)
	}
	if roundNumber < 1 || roundNumber > tournament.SwissRounds {
		return nil, fmt.Errorf("%w: round %d of %d", ErrInvalidRoundNumber, roundNumber, tournament.SwissRounds)
	}

	var result *SwissRoundResult
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		eligible, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID, eligibleStatuses)
		if err != nil {
			return err
		}
		if len(eligible) < 2 {
			return fmt.Errorf("%w: found %d", ErrInsufficientParticipants, len(eligible))
		}

		round := &models.SwissRound{
			TournamentID: tournamentID,
			RoundNumber:  roundNumber,
			Status:       models.SwissRoundActive,
		}
		if err := s.swissRoundRepo.Upsert(ctx, exec, round); err != nil {
			return err
		}

		// The upsert alone does not make match creation idempotent; the
		// precondition check shares the transaction with the inserts.
		count, err := s.matchRepo.CountByRound(ctx, exec, tournamentID, models.StageSwiss, roundNumber)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: swiss round %d has %d matches", ErrRoundAlreadyExists, roundNumber, count)
		}

		var pairings []brackets.Pairing
		if roundNumber == 1 {
			pairings, err = s.pairer.PairFirstRound(eligible)
		} else {
			pairings, err = s.pairLaterRound(ctx, exec, tournamentID, eligible)
		}
		if err != nil {
			if errors.Is(err, brackets.ErrNotEnoughParticipants) {
				return fmt.Errorf("%w: found %d", ErrInsufficientParticipants, len(eligible))
			}
			return err
		}

		matches := buildRoundMatches(tournament, models.StageSwiss, roundNumber, pairings)
		for _, m := range matches {
			if err := s.matchRepo.Create(ctx, exec, m); err != nil {
				if errors.Is(err, repositories.ErrMatchNumberConflict) {
					return fmt.Errorf("%w: concurrent generation of swiss round %d", ErrRoundAlreadyExists, roundNumber)
				}
				return err
			}
		}

		result = &SwissRoundResult{Round: round, Matches: matches, ParticipantCount: len(eligible)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "swiss round generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", roundNumber),
		slog.Int("matches", len(result.Matches)),
		slog.Int("participants", result.ParticipantCount))
	s.broadcast(tournamentID, brackets.EventRoundGenerated, result)
	return result, nil
}

// pairLaterRound orders the eligible participants by current standings and
// pairs adjacent ranks, avoiding rematches and rotating the bye.
func (s *progressionService) pairLaterRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, eligible []*models.Participant) ([]brackets.Pairing, error) {
	stage := models.StageSwiss
	swissMatches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, &stage, nil)
	if err != nil {
		return nil, err
	}

	standings := brackets.CalculateStandings(eligible, swissMatches)

	byID := make(map[int]*models.Participant, len(eligible))
	for _, p := range eligible {
		byID[p.ID] = p
	}
	ranked := make([]*models.Participant, 0, len(standings))
	for _, st := range standings {
		if p, ok := byID[st.ParticipantID]; ok {
			ranked = append(ranked, p)
		}
	}

	played := make(map[brackets.PairKey]bool)
	hadBye := make(map[int]bool)
	for _, m := range swissMatches {
		if m.ParticipantAID == nil {
			continue
		}
		if m.IsBye || m.ParticipantBID == nil {
			hadBye[*m.ParticipantAID] = true
			continue
		}
		played[brackets.NewPairKey(*m.ParticipantAID, *m.ParticipantBID)] = true
	}

	return s.pairer.PairByStandings(ranked, played, hadBye)
}

func (s *progressionService) Standings(ctx context.Context, tournamentID int) ([]brackets.Standing, error) {
	if _, err := s.loadTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByTournament(ctx, nil, tournamentID, eligibleStatuses)
	if err != nil {
		return nil, err
	}
	stage := models.StageSwiss
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, &stage, nil)
	if err != nil {
		return nil, err
	}
	return brackets.CalculateStandings(participants, matches), nil
}

func (s *progressionService) GenerateTopCut(ctx context.Context, tournamentID int, cutSizeOverride *int) ([]*models.Match, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusStarted {
		return nil, fmt.Errorf("%w: tournament %d is %s", ErrTournamentNotEligible, tournamentID, tournament.Status)
	}

	cutSize := tournament.CutSize
	if cutSizeOverride != nil {
		cutSize = *cutSizeOverride
	}
	if !models.AllowedCutSizes[cutSize] {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCutSize, cutSize)
	}

	var matches []*models.Match
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.matchRepo.CountByRound(ctx, exec, tournamentID, models.StageTopCut, 1)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: top cut already generated", ErrRoundAlreadyExists)
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID, eligibleStatuses)
		if err != nil {
			return err
		}
		stage := models.StageSwiss
		swissMatches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, &stage, nil)
		if err != nil {
			return err
		}

		standings := brackets.CalculateStandings(participants, swissMatches)
		byID := make(map[int]*models.Participant, len(participants))
		for _, p := range participants {
			byID[p.ID] = p
		}
		qualifiers := make([]*models.Participant, 0, cutSize)
		for _, st := range standings {
			if len(qualifiers) == cutSize {
				break
			}
			if p, ok := byID[st.ParticipantID]; ok {
				qualifiers = append(qualifiers, p)
			}
		}
		if len(qualifiers) == 0 {
			return ErrInsufficientQualifiers
		}

		slots, err := brackets.SeedBracket(qualifiers)
		if err != nil {
			if errors.Is(err, brackets.ErrNoQualifiers) {
				return ErrInsufficientQualifiers
			}
			return err
		}

		matches = make([]*models.Match, 0, len(slots)/2)
		for i := 0; i+1 < len(slots); i += 2 {
			a, b := slots[i], slots[i+1]
			if a == nil && b != nil {
				// Balanced seeding always fills slot A first; tolerate the
				// inverse by promoting B rather than creating a headless bye.
				s.logger.WarnContext(ctx, "seeding left slot A empty, promoting slot B",
					slog.Int("tournament_id", tournamentID), slog.Int("match_number", i/2+1))
				a, b = b, nil
			}
			if a == nil {
				return fmt.Errorf("%w: both slots empty for match %d", ErrBracketInconsistent, i/2+1)
			}

			m := newBracketMatch(tournament, 1, i/2+1)
			aID := a.ID
			m.ParticipantAID = &aID
			if b == nil {
				applyBye(m)
			} else {
				bID := b.ID
				m.ParticipantBID = &bID
			}
			if err := s.matchRepo.Create(ctx, exec, m); err != nil {
				if errors.Is(err, repositories.ErrMatchNumberConflict) {
					return fmt.Errorf("%w: concurrent top cut generation", ErrRoundAlreadyExists)
				}
				return err
			}
			matches = append(matches, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "top cut generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("cut_size", cutSize),
		slog.Int("matches", len(matches)))
	s.broadcast(tournamentID, brackets.EventBracketSeeded, matches)
	return matches, nil
}

func (s *progressionService) AdvanceBracket(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	newMatches := make([]*models.Match, 0)
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		stage := models.StageTopCut
		all, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, &stage, nil)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			return ErrBracketNotFound
		}

		rounds := make(map[int][]*models.Match)
		maxRound := 0
		for _, m := range all {
			rounds[m.Round] = append(rounds[m.Round], m)
			if m.Round > maxRound {
				maxRound = m.Round
			}
		}

		// Advance from the highest fully complete round. Re-running finds
		// the same base (the freshly created round is still pending), which
		// keeps the operation idempotent.
		base := 0
		for r := maxRound; r >= 1; r-- {
			if roundComplete(rounds[r]) {
				base = r
				break
			}
		}
		if base == 0 {
			return fmt.Errorf("%w: round %d", ErrBracketRoundNotComplete, maxRound)
		}

		baseMatches := rounds[base]
		if len(baseMatches) == 1 {
			// Final decided; nothing to advance into.
			return nil
		}

		nextRound := base + 1
		needed := (len(baseMatches) + 1) / 2
		for n := len(rounds[nextRound]) + 1; n <= needed; n++ {
			shell := newBracketMatch(tournament, nextRound, n)
			if err := s.matchRepo.Create(ctx, exec, shell); err != nil {
				if errors.Is(err, repositories.ErrMatchNumberConflict) {
					return fmt.Errorf("%w: concurrent advancement", ErrRoundAlreadyExists)
				}
				return err
			}
			newMatches = append(newMatches, shell)
		}

		for _, m := range baseMatches {
			if m.WinnerID == nil {
				s.logger.ErrorContext(ctx, "complete bracket match has no winner",
					slog.Int("tournament_id", tournamentID),
					slog.Int("match_id", m.ID))
				continue
			}
			nextNumber, slot := brackets.NextSlot(m.MatchNumber)
			updated, err := s.matchRepo.SetBracketSlot(ctx, exec, tournamentID, nextRound, nextNumber, string(slot), *m.WinnerID)
			if err != nil {
				return err
			}
			if !updated {
				// Tolerated: advancement ran ahead of shell generation.
				s.logger.WarnContext(ctx, "advancement target match missing",
					slog.Int("tournament_id", tournamentID),
					slog.Int("round", nextRound),
					slog.Int("match_number", nextNumber))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(newMatches) > 0 {
		s.logger.InfoContext(ctx, "bracket advanced",
			slog.Int("tournament_id", tournamentID),
			slog.Int("new_matches", len(newMatches)))
		s.broadcast(tournamentID, brackets.EventBracketAdvanced, newMatches)
	}
	return newMatches, nil
}

func (s *progressionService) ResetBracketRound(ctx context.Context, tournamentID, roundNumber int) error {
	if _, err := s.loadTournament(ctx, tournamentID); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		stage := models.StageTopCut
		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, &stage, &roundNumber)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("%w: top cut round %d", ErrBracketRoundNotFound, roundNumber)
		}

		// Events go first at every step so an aborted run can never leave
		// events referencing a replayable match.
		if err := s.matchEventRepo.DeleteForRoundsAbove(ctx, exec, tournamentID, models.StageTopCut, roundNumber); err != nil {
			return err
		}
		if _, err := s.matchRepo.DeleteByRoundGreaterThan(ctx, exec, tournamentID, models.StageTopCut, roundNumber); err != nil {
			return err
		}
		if err := s.matchEventRepo.DeleteForRound(ctx, exec, tournamentID, models.StageTopCut, roundNumber); err != nil {
			return err
		}
		for _, m := range matches {
			if m.IsBye {
				// Byes are decided by construction and not replayable.
				continue
			}
			if err := s.matchRepo.ResetForReplay(ctx, exec, m.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "bracket round reset",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", roundNumber))
	s.broadcast(tournamentID, brackets.EventBracketReset, map[string]int{"round": roundNumber})
	return nil
}

func (s *progressionService) loadTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *progressionService) broadcast(tournamentID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	room := tournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, brackets.Message{Type: eventType, Payload: payload, RoomID: room})
}

func roundComplete(matches []*models.Match) bool {
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if m.Status != models.MatchComplete {
			return false
		}
	}
	return true
}

// buildRoundMatches folds pairings into match records with dense match
// numbers. Byes come back already complete with the bye score.
func buildRoundMatches(t *models.Tournament, stage models.Stage, round int, pairings []brackets.Pairing) []*models.Match {
	matches := make([]*models.Match, 0, len(pairings))
	for i, pr := range pairings {
		m := &models.Match{
			TournamentID: t.ID,
			Stage:        stage,
			Round:        round,
			MatchNumber:  i + 1,
			TargetPoints: t.TargetPoints,
			Status:       models.MatchPending,
		}
		aID := pr.A.ID
		m.ParticipantAID = &aID
		if pr.B == nil {
			applyBye(m)
		} else {
			bID := pr.B.ID
			m.ParticipantBID = &bID
		}
		matches = append(matches, m)
	}
	return matches
}

func newBracketMatch(t *models.Tournament, round, matchNumber int) *models.Match {
	return &models.Match{
		TournamentID: t.ID,
		Stage:        models.StageTopCut,
		Round:        round,
		MatchNumber:  matchNumber,
		TargetPoints: t.TargetPoints,
		Status:       models.MatchPending,
	}
}

// applyBye completes a match as a bye: the lone participant wins with a
// near-loss margin (target vs target-1) instead of a full shutout, so byes
// do not inflate point differentials.
func applyBye(m *models.Match) {
	m.IsBye = true
	m.ParticipantBID = nil
	m.ScoreA = m.TargetPoints
	m.ScoreB = m.TargetPoints - 1
	m.Status = models.MatchComplete
	m.WinnerID = m.ParticipantAID
}
