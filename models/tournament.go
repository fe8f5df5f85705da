package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusPending   TournamentStatus = "pending"
	StatusStarted   TournamentStatus = "started"
	StatusCompleted TournamentStatus = "completed"
)

// AllowedCutSizes — допустимые размеры топ-ката. Размер не обязан быть
// степенью двойки: сетка добивается до ближайшей степени двойки байками.
var AllowedCutSizes = map[int]bool{
	2: true, 4: true, 6: true, 8: true,
	12: true, 16: true, 24: true, 32: true,
}

// Tournament представляет турнир.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	OrganizerID  int              `json:"organizer_id" db:"organizer_id"`
	TargetPoints int              `json:"target_points" db:"target_points"`
	SwissRounds  int              `json:"swiss_rounds" db:"swiss_rounds"`
	CutSize      int              `json:"cut_size" db:"cut_size"`
	Status       TournamentStatus `json:"status" db:"status"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	LogoKey      *string          `json:"-" db:"logo_key"`
	LogoURL      *string          `json:"logo_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Organizer    *User         `json:"organizer,omitempty" db:"-"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
	SwissRoundsL []SwissRound  `json:"swiss_round_records,omitempty" db:"-"`
}
