package models

import "time"

// Stage — закрытое перечисление стадий. Поле Round матча интерпретируется
// по стадии: номер раунда швейцарки либо раунд сетки топ-ката.
type Stage string

const (
	StageSwiss  Stage = "swiss"
	StageTopCut Stage = "top_cut"
)

type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchComplete MatchStatus = "complete"
)

// Match — центральная сущность. MatchNumber плотный, 1..N внутри раунда.
// ParticipantBID == nil при IsBye — бай; оба участника nil — незаполненная
// заготовка следующего раунда сетки.
type Match struct {
	ID             int         `json:"id" db:"id"`
	TournamentID   int         `json:"tournament_id" db:"tournament_id"`
	Stage          Stage       `json:"stage" db:"stage"`
	Round          int         `json:"round" db:"round"`
	MatchNumber    int         `json:"match_number" db:"match_number"`
	ParticipantAID *int        `json:"participant_a_id,omitempty" db:"participant_a_id"`
	ParticipantBID *int        `json:"participant_b_id,omitempty" db:"participant_b_id"`
	ScoreA         int         `json:"score_a" db:"score_a"`
	ScoreB         int         `json:"score_b" db:"score_b"`
	TargetPoints   int         `json:"target_points" db:"target_points"`
	Status         MatchStatus `json:"status" db:"status"`
	WinnerID       *int        `json:"winner_id,omitempty" db:"winner_id"`
	IsBye          bool        `json:"is_bye" db:"is_bye"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`

	ParticipantA *Participant `json:"participant_a,omitempty" db:"-"`
	ParticipantB *Participant `json:"participant_b,omitempty" db:"-"`
}

// HasParticipant сообщает, занимает ли участник один из слотов матча.
func (m *Match) HasParticipant(participantID int) bool {
	if m.ParticipantAID != nil && *m.ParticipantAID == participantID {
		return true
	}
	return m.ParticipantBID != nil && *m.ParticipantBID == participantID
}
