package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aidosbek/swisscut/models"
)

type matchFixture struct {
	store *memStore
	svc   MatchService
}

func newMatchFixture() *matchFixture {
	store := newMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewMatchService(
		&fakeTransactor{},
		&fakeMatchRepo{s: store},
		&fakeMatchEventRepo{s: store},
		&fakeSwissRoundRepo{s: store},
		nil,
		logger,
	)
	return &matchFixture{store: store, svc: svc}
}

func (f *matchFixture) pendingMatch(stage models.Stage, round, number, aID, bID, target int) *models.Match {
	return f.store.addMatch(&models.Match{
		TournamentID:   1,
		Stage:          stage,
		Round:          round,
		MatchNumber:    number,
		ParticipantAID: intRef(aID),
		ParticipantBID: intRef(bID),
		TargetPoints:   target,
		Status:         models.MatchPending,
	})
}

func (f *matchFixture) swissRound(roundNumber int, status models.SwissRoundStatus) *models.SwissRound {
	sr := &models.SwissRound{
		ID:           f.store.nextRoundID,
		TournamentID: 1,
		RoundNumber:  roundNumber,
		Status:       status,
	}
	f.store.nextRoundID++
	f.store.rounds[sr.ID] = sr
	return sr
}

func TestRecordFinishAccumulatesPoints(t *testing.T) {
	f := newMatchFixture()
	f.swissRound(1, models.SwissRoundActive)
	m := f.pendingMatch(models.StageSwiss, 1, 1, 1, 2, 4)

	updated, err := f.svc.RecordFinish(context.Background(), m.ID, 1, models.FinishXtreme)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ScoreA != 3 || updated.ScoreB != 0 {
		t.Errorf("expected 3:0 after an xtreme finish, got %d:%d", updated.ScoreA, updated.ScoreB)
	}
	if updated.Status != models.MatchPending {
		t.Errorf("match must stay pending below the target, got %s", updated.Status)
	}

	if _, err := f.svc.RecordFinish(context.Background(), m.ID, 2, models.FinishSpin); err != nil {
		t.Fatal(err)
	}

	updated, err = f.svc.RecordFinish(context.Background(), m.ID, 1, models.FinishOver)
	if err != nil {
		t.Fatal(err)
	}
	// 3 + 2 = 5: перебор сверх цели сохраняется в счёте.
	if updated.ScoreA != 5 || updated.ScoreB != 1 {
		t.Errorf("expected 5:1, got %d:%d", updated.ScoreA, updated.ScoreB)
	}
	if updated.Status != models.MatchComplete || updated.WinnerID == nil || *updated.WinnerID != 1 {
		t.Errorf("side at the target must win the match, got %+v", updated)
	}

	events, err := f.svc.ListEvents(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 events, got %d", len(events))
	}
}

func TestRecordFinishValidation(t *testing.T) {
	f := newMatchFixture()
	f.swissRound(1, models.SwissRoundActive)
	m := f.pendingMatch(models.StageSwiss, 1, 1, 1, 2, 4)

	if _, err := f.svc.RecordFinish(context.Background(), m.ID, 1, "megaburst"); !errors.Is(err, ErrInvalidFinishType) {
		t.Errorf("expected ErrInvalidFinishType, got %v", err)
	}
	if _, err := f.svc.RecordFinish(context.Background(), m.ID, 99, models.FinishSpin); !errors.Is(err, ErrInvalidWinner) {
		t.Errorf("expected ErrInvalidWinner, got %v", err)
	}
	if _, err := f.svc.RecordFinish(context.Background(), 42, 1, models.FinishSpin); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}

	bye := f.store.addMatch(&models.Match{
		TournamentID: 1, Stage: models.StageSwiss, Round: 1, MatchNumber: 2,
		ParticipantAID: intRef(3), ScoreA: 4, ScoreB: 3,
		TargetPoints: 4, Status: models.MatchComplete, WinnerID: intRef(3), IsBye: true,
	})
	if _, err := f.svc.RecordFinish(context.Background(), bye.ID, 3, models.FinishSpin); !errors.Is(err, ErrMatchAlreadyComplete) {
		t.Errorf("expected ErrMatchAlreadyComplete for a decided bye, got %v", err)
	}
}

func TestRecordFinishCompletesSwissRound(t *testing.T) {
	f := newMatchFixture()
	round := f.swissRound(1, models.SwissRoundActive)
	m := f.pendingMatch(models.StageSwiss, 1, 1, 1, 2, 2)

	if _, err := f.svc.RecordFinish(context.Background(), m.ID, 1, models.FinishBurst); err != nil {
		t.Fatal(err)
	}

	if f.store.rounds[round.ID].Status != models.SwissRoundComplete {
		t.Error("swiss round must flip to complete when its last match finishes")
	}
}

func TestRecordFinishLeavesRoundActiveWhileMatchesRemain(t *testing.T) {
	f := newMatchFixture()
	round := f.swissRound(1, models.SwissRoundActive)
	m1 := f.pendingMatch(models.StageSwiss, 1, 1, 1, 2, 2)
	f.pendingMatch(models.StageSwiss, 1, 2, 3, 4, 2)

	if _, err := f.svc.RecordFinish(context.Background(), m1.ID, 1, models.FinishBurst); err != nil {
		t.Fatal(err)
	}

	if f.store.rounds[round.ID].Status != models.SwissRoundActive {
		t.Error("round must stay active while another match is pending")
	}
}

func TestRecordFinishPropagatesBracketWinner(t *testing.T) {
	f := newMatchFixture()
	m := f.pendingMatch(models.StageTopCut, 1, 2, 1, 2, 2)
	shell := f.store.addMatch(&models.Match{
		TournamentID: 1, Stage: models.StageTopCut, Round: 2, MatchNumber: 1,
		TargetPoints: 2, Status: models.MatchPending,
	})

	if _, err := f.svc.RecordFinish(context.Background(), m.ID, 2, models.FinishBurst); err != nil {
		t.Fatal(err)
	}

	// Матч номер 2 кормит слот B следующего матча.
	next := f.store.matches[shell.ID]
	if next.ParticipantBID == nil || *next.ParticipantBID != 2 {
		t.Errorf("winner must land in slot B of the next match, got %v", next.ParticipantBID)
	}
	if next.ParticipantAID != nil {
		t.Error("slot A must stay empty")
	}
}

func TestRecordFinishWithoutNextMatchIsNoop(t *testing.T) {
	f := newMatchFixture()
	m := f.pendingMatch(models.StageTopCut, 1, 1, 1, 2, 2)

	// Следующий раунд ещё не сгенерирован: финиш проходит, продвижение
	// откладывается до AdvanceBracket.
	updated, err := f.svc.RecordFinish(context.Background(), m.ID, 1, models.FinishBurst)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.MatchComplete {
		t.Errorf("match must complete even without a next-round shell, got %s", updated.Status)
	}
}

func TestSetMatchScoreOverride(t *testing.T) {
	f := newMatchFixture()
	f.swissRound(1, models.SwissRoundActive)
	m := f.pendingMatch(models.StageSwiss, 1, 1, 1, 2, 4)

	if _, err := f.svc.RecordFinish(context.Background(), m.ID, 1, models.FinishSpin); err != nil {
		t.Fatal(err)
	}

	updated, err := f.svc.SetMatchScore(context.Background(), m.ID, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ScoreA != 2 || updated.ScoreB != 4 {
		t.Errorf("expected 2:4, got %d:%d", updated.ScoreA, updated.ScoreB)
	}
	if updated.Status != models.MatchComplete || updated.WinnerID == nil || *updated.WinnerID != 2 {
		t.Errorf("side B at the target must win, got %+v", updated)
	}

	events, err := f.svc.ListEvents(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("manual override must wipe the event log, %d left", len(events))
	}
}

func TestSetMatchScoreValidation(t *testing.T) {
	f := newMatchFixture()
	m := f.pendingMatch(models.StageSwiss, 1, 1, 1, 2, 4)

	if _, err := f.svc.SetMatchScore(context.Background(), m.ID, -1, 0); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed for negative score, got %v", err)
	}
	if _, err := f.svc.SetMatchScore(context.Background(), m.ID, 4, 5); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed when both sides reach the target, got %v", err)
	}

	updated, err := f.svc.SetMatchScore(context.Background(), m.ID, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.MatchPending || updated.WinnerID != nil {
		t.Errorf("partial score must keep the match pending, got %+v", updated)
	}
}

func TestResetMatchReopensSwissRound(t *testing.T) {
	f := newMatchFixture()
	round := f.swissRound(1, models.SwissRoundActive)
	m := f.pendingMatch(models.StageSwiss, 1, 1, 1, 2, 2)

	if _, err := f.svc.RecordFinish(context.Background(), m.ID, 1, models.FinishBurst); err != nil {
		t.Fatal(err)
	}
	if f.store.rounds[round.ID].Status != models.SwissRoundComplete {
		t.Fatal("precondition: round must be complete")
	}

	updated, err := f.svc.ResetMatch(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.MatchPending || updated.ScoreA != 0 || updated.ScoreB != 0 || updated.WinnerID != nil {
		t.Errorf("reset must return the match to pending 0:0, got %+v", updated)
	}
	if f.store.rounds[round.ID].Status != models.SwissRoundActive {
		t.Error("reset must reopen the swiss round")
	}
	if events, _ := f.svc.ListEvents(context.Background(), m.ID); len(events) != 0 {
		t.Errorf("reset must delete the match events, %d left", len(events))
	}
}

func TestResetMatchRejectsBye(t *testing.T) {
	f := newMatchFixture()
	bye := f.store.addMatch(&models.Match{
		TournamentID: 1, Stage: models.StageSwiss, Round: 1, MatchNumber: 1,
		ParticipantAID: intRef(1), ScoreA: 4, ScoreB: 3,
		TargetPoints: 4, Status: models.MatchComplete, WinnerID: intRef(1), IsBye: true,
	})

	if _, err := f.svc.ResetMatch(context.Background(), bye.ID); !errors.Is(err, ErrMatchIsBye) {
		t.Fatalf("expected ErrMatchIsBye, got %v", err)
	}
}
