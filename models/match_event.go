package models

import "time"

// FinishType — способ взятия очков в раунде боя.
type FinishType string

const (
	FinishSpin   FinishType = "spin"
	FinishOver   FinishType = "over"
	FinishBurst  FinishType = "burst"
	FinishOut    FinishType = "out"
	FinishXtreme FinishType = "xtreme"
)

// FinishPoints — очки за тип финиша по регламенту.
var FinishPoints = map[FinishType]int{
	FinishSpin:   1,
	FinishOver:   2,
	FinishBurst:  2,
	FinishOut:    2,
	FinishXtreme: 3,
}

// MatchEvent — append-only запись набора очков внутри матча. Для не-бай
// матчей сумма PointsAwarded по стороне равна финальному счёту стороны.
type MatchEvent struct {
	ID            int        `json:"id" db:"id"`
	MatchID       int        `json:"match_id" db:"match_id"`
	WinnerID      int        `json:"winner_id" db:"winner_id"`
	FinishType    FinishType `json:"finish_type" db:"finish_type"`
	PointsAwarded int        `json:"points_awarded" db:"points_awarded"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
