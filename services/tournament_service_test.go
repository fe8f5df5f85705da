package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aidosbek/swisscut/models"
)

func newTournamentService(store *memStore) TournamentService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTournamentService(
		&fakeTournamentRepo{s: store},
		&fakeParticipantRepo{s: store},
		&fakeMatchRepo{s: store},
		&fakeSwissRoundRepo{s: store},
		&fakeUserRepo{users: map[int]*models.User{
			1: {ID: 1, Nickname: "org", Email: "org@example.com", Role: models.RoleOrganizer},
		}},
		nil,
		logger,
	)
}

func TestCreateTournamentValidation(t *testing.T) {
	svc := newTournamentService(newMemStore())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreateTournamentInput
		wantErr error
	}{
		{"missing name", CreateTournamentInput{TargetPoints: 4, SwissRounds: 3, CutSize: 8}, ErrTournamentNameRequired},
		{"zero target", CreateTournamentInput{Name: "cup", SwissRounds: 3, CutSize: 8}, ErrInvalidTargetPoints},
		{"zero rounds", CreateTournamentInput{Name: "cup", TargetPoints: 4, CutSize: 8}, ErrInvalidSwissRoundCount},
		{"bad cut", CreateTournamentInput{Name: "cup", TargetPoints: 4, SwissRounds: 3, CutSize: 7}, ErrInvalidCutSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, 1, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	tournament, err := svc.Create(ctx, 1, CreateTournamentInput{Name: "cup", TargetPoints: 4, SwissRounds: 3, CutSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	if tournament.Status != models.StatusDraft {
		t.Errorf("new tournament must start as draft, got %s", tournament.Status)
	}
}

func TestTournamentStatusTransitions(t *testing.T) {
	store := newMemStore()
	svc := newTournamentService(store)
	ctx := context.Background()
	store.addTournament(&models.Tournament{
		ID: 1, Name: "cup", OrganizerID: 1,
		TargetPoints: 4, SwissRounds: 3, CutSize: 8,
		Status: models.StatusDraft,
	})

	// Перескок через статус запрещён.
	if _, err := svc.UpdateStatus(ctx, 1, models.StatusStarted); !errors.Is(err, ErrTournamentInvalidStatusTransition) {
		t.Errorf("draft -> started must be rejected, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, 1, "paused"); !errors.Is(err, ErrTournamentInvalidStatus) {
		t.Errorf("unknown status must be rejected, got %v", err)
	}

	for _, status := range []models.TournamentStatus{models.StatusPending, models.StatusStarted, models.StatusCompleted} {
		updated, err := svc.UpdateStatus(ctx, 1, status)
		if err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("expected %s, got %s", status, updated.Status)
		}
	}

	// Завершённый турнир терминален.
	if _, err := svc.UpdateStatus(ctx, 1, models.StatusStarted); !errors.Is(err, ErrTournamentInvalidStatusTransition) {
		t.Errorf("completed must be terminal, got %v", err)
	}
}

func TestGetDetailsAggregates(t *testing.T) {
	store := newMemStore()
	svc := newTournamentService(store)
	store.addTournament(&models.Tournament{
		ID: 1, Name: "cup", OrganizerID: 1,
		TargetPoints: 4, SwissRounds: 3, CutSize: 8,
		Status: models.StatusStarted,
	})
	store.addParticipant(1, models.ParticipantCheckedIn)
	store.addParticipant(1, models.ParticipantApproved)
	store.addMatch(completedSwissMatch(1, 1, 1, 1, 2, 4, 1))

	tournament, err := svc.GetDetails(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if tournament.Organizer == nil || tournament.Organizer.ID != 1 {
		t.Error("organizer must be attached")
	}
	if len(tournament.Participants) != 2 {
		t.Errorf("expected 2 participants, got %d", len(tournament.Participants))
	}
	if len(tournament.Matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(tournament.Matches))
	}
}

func TestUploadLogoWithoutUploader(t *testing.T) {
	store := newMemStore()
	svc := newTournamentService(store)
	store.addTournament(&models.Tournament{ID: 1, Name: "cup", Status: models.StatusDraft})

	_, err := svc.UploadLogo(context.Background(), 1, "image/png", nil)
	if !errors.Is(err, ErrUploaderNotConfigured) {
		t.Fatalf("expected ErrUploaderNotConfigured, got %v", err)
	}
}
