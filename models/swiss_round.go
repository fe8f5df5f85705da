package models

import "time"

type SwissRoundStatus string

const (
	SwissRoundActive   SwissRoundStatus = "active"
	SwissRoundComplete SwissRoundStatus = "complete"
)

// SwissRound — запись раунда швейцарки. Уникальна по
// (tournament_id, round_number); создаётся идемпотентным upsert'ом.
type SwissRound struct {
	ID           int              `json:"id" db:"id"`
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int              `json:"round_number" db:"round_number"`
	Status       SwissRoundStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}
