package services

// Инмемори-двойники репозиториев для юнит-тестов сервисов. Повторяют
// контрактные мелочи постгрес-реализаций: конфликт номера матча, поведение
// SetBracketSlot при отсутствии цели, фильтрацию статусов участников.

import (
	"context"
	"sort"
	"time"

	"github.com/aidosbek/swisscut/models"
	"github.com/aidosbek/swisscut/repositories"
)

type memStore struct {
	tournaments  map[int]*models.Tournament
	participants map[int]*models.Participant
	matches      map[int]*models.Match
	rounds       map[int]*models.SwissRound
	events       map[int]*models.MatchEvent

	nextParticipantID int
	nextMatchID       int
	nextRoundID       int
	nextEventID       int
}

func newMemStore() *memStore {
	return &memStore{
		tournaments:       make(map[int]*models.Tournament),
		participants:      make(map[int]*models.Participant),
		matches:           make(map[int]*models.Match),
		rounds:            make(map[int]*models.SwissRound),
		events:            make(map[int]*models.MatchEvent),
		nextParticipantID: 1,
		nextMatchID:       1,
		nextRoundID:       1,
		nextEventID:       1,
	}
}

func (s *memStore) addTournament(t *models.Tournament) *models.Tournament {
	s.tournaments[t.ID] = t
	return t
}

func (s *memStore) addParticipant(tournamentID int, status models.ParticipantStatus) *models.Participant {
	p := &models.Participant{
		ID:           s.nextParticipantID,
		TournamentID: tournamentID,
		DisplayName:  "player",
		Status:       status,
		CreatedAt:    time.Now(),
	}
	s.nextParticipantID++
	s.participants[p.ID] = p
	return p
}

func (s *memStore) addMatch(m *models.Match) *models.Match {
	m.ID = s.nextMatchID
	s.nextMatchID++
	m.CreatedAt = time.Now()
	s.matches[m.ID] = m
	return m
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	return &c
}

type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn repositories.TxFunc) error {
	t.calls++
	return fn(nil)
}

type fakeTournamentRepo struct {
	s *memStore
}

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	s := r.s
	t.ID = len(s.tournaments) + 1
	t.CreatedAt = time.Now()
	s.addTournament(t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0, len(r.s.tournaments))
	for _, t := range r.s.tournaments {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, exec repositories.SQLExecutor, id int, logoKey *string) error {
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.s.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.s.tournaments, id)
	return nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = len(r.users) + 1
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeParticipantRepo struct {
	s *memStore
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	p.ID = r.s.nextParticipantID
	r.s.nextParticipantID++
	p.CreatedAt = time.Now()
	r.s.participants[p.ID] = p
	return nil
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Participant, error) {
	p, ok := r.s.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, statuses []models.ParticipantStatus) ([]*models.Participant, error) {
	allowed := make(map[models.ParticipantStatus]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}
	out := make([]*models.Participant, 0)
	for _, p := range r.s.participants {
		if p.TournamentID != tournamentID {
			continue
		}
		if len(statuses) > 0 && !allowed[p.Status] {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParticipantRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.ParticipantStatus) error {
	p, ok := r.s.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeParticipantRepo) UpdateAvatarKey(ctx context.Context, exec repositories.SQLExecutor, id int, avatarKey *string) error {
	p, ok := r.s.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.AvatarKey = avatarKey
	return nil
}

func (r *fakeParticipantRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.s.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.s.participants, id)
	return nil
}

type fakeMatchRepo struct {
	s *memStore
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	for _, existing := range r.s.matches {
		if existing.TournamentID == m.TournamentID &&
			existing.Stage == m.Stage &&
			existing.Round == m.Round &&
			existing.MatchNumber == m.MatchNumber {
			return repositories.ErrMatchNumberConflict
		}
	}
	stored := cloneMatch(m)
	r.s.addMatch(stored)
	m.ID = stored.ID
	m.CreatedAt = stored.CreatedAt
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage *models.Stage, round *int) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if stage != nil && m.Stage != *stage {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		out = append(out, cloneMatch(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stage != out[j].Stage {
			return out[i].Stage < out[j].Stage
		}
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out, nil
}

func (r *fakeMatchRepo) CountByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.Stage, round int) (int, error) {
	count := 0
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID && m.Stage == stage && m.Round == round {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) UpdateScoreStatusWinner(ctx context.Context, exec repositories.SQLExecutor, id int, scoreA, scoreB int, status models.MatchStatus, winnerID *int) error {
	m, ok := r.s.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ScoreA = scoreA
	m.ScoreB = scoreB
	m.Status = status
	m.WinnerID = winnerID
	return nil
}

func (r *fakeMatchRepo) SetBracketSlot(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round, matchNumber int, slot string, participantID int) (bool, error) {
	for _, m := range r.s.matches {
		if m.TournamentID != tournamentID || m.Stage != models.StageTopCut ||
			m.Round != round || m.MatchNumber != matchNumber {
			continue
		}
		id := participantID
		if slot == "B" {
			m.ParticipantBID = &id
		} else {
			m.ParticipantAID = &id
		}
		return true, nil
	}
	return false, nil
}

func (r *fakeMatchRepo) ResetForReplay(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	m, ok := r.s.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ScoreA = 0
	m.ScoreB = 0
	m.Status = models.MatchPending
	m.WinnerID = nil
	return nil
}

func (r *fakeMatchRepo) DeleteByRoundGreaterThan(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.Stage, round int) (int64, error) {
	var deleted int64
	for id, m := range r.s.matches {
		if m.TournamentID == tournamentID && m.Stage == stage && m.Round > round {
			delete(r.s.matches, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeSwissRoundRepo struct {
	s *memStore
}

func (r *fakeSwissRoundRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, round *models.SwissRound) error {
	for _, existing := range r.s.rounds {
		if existing.TournamentID == round.TournamentID && existing.RoundNumber == round.RoundNumber {
			round.ID = existing.ID
			round.Status = existing.Status
			round.CreatedAt = existing.CreatedAt
			return nil
		}
	}
	round.ID = r.s.nextRoundID
	r.s.nextRoundID++
	round.CreatedAt = time.Now()
	stored := *round
	r.s.rounds[stored.ID] = &stored
	return nil
}

func (r *fakeSwissRoundRepo) GetByNumber(ctx context.Context, exec repositories.SQLExecutor, tournamentID, roundNumber int) (*models.SwissRound, error) {
	for _, sr := range r.s.rounds {
		if sr.TournamentID == tournamentID && sr.RoundNumber == roundNumber {
			c := *sr
			return &c, nil
		}
	}
	return nil, repositories.ErrSwissRoundNotFound
}

func (r *fakeSwissRoundRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.SwissRound, error) {
	out := make([]*models.SwissRound, 0)
	for _, sr := range r.s.rounds {
		if sr.TournamentID == tournamentID {
			c := *sr
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoundNumber < out[j].RoundNumber })
	return out, nil
}

func (r *fakeSwissRoundRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.SwissRoundStatus) error {
	sr, ok := r.s.rounds[id]
	if !ok {
		return repositories.ErrSwissRoundNotFound
	}
	sr.Status = status
	return nil
}

type fakeMatchEventRepo struct {
	s *memStore
}

func (r *fakeMatchEventRepo) Create(ctx context.Context, exec repositories.SQLExecutor, event *models.MatchEvent) error {
	event.ID = r.s.nextEventID
	r.s.nextEventID++
	event.CreatedAt = time.Now()
	stored := *event
	r.s.events[stored.ID] = &stored
	return nil
}

func (r *fakeMatchEventRepo) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) ([]*models.MatchEvent, error) {
	out := make([]*models.MatchEvent, 0)
	for _, e := range r.s.events {
		if e.MatchID == matchID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchEventRepo) DeleteByMatch(ctx context.Context, exec repositories.SQLExecutor, matchID int) error {
	for id, e := range r.s.events {
		if e.MatchID == matchID {
			delete(r.s.events, id)
		}
	}
	return nil
}

func (r *fakeMatchEventRepo) matchIDsForRound(tournamentID int, stage models.Stage, cond func(round int) bool) map[int]bool {
	ids := make(map[int]bool)
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID && m.Stage == stage && cond(m.Round) {
			ids[m.ID] = true
		}
	}
	return ids
}

func (r *fakeMatchEventRepo) DeleteForRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.Stage, round int) error {
	ids := r.matchIDsForRound(tournamentID, stage, func(rd int) bool { return rd == round })
	for id, e := range r.s.events {
		if ids[e.MatchID] {
			delete(r.s.events, id)
		}
	}
	return nil
}

func (r *fakeMatchEventRepo) DeleteForRoundsAbove(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.Stage, round int) error {
	ids := r.matchIDsForRound(tournamentID, stage, func(rd int) bool { return rd > round })
	for id, e := range r.s.events {
		if ids[e.MatchID] {
			delete(r.s.events, id)
		}
	}
	return nil
}
