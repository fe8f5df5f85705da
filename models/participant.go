package models

import "time"

type ParticipantStatus string

const (
	ParticipantApproved  ParticipantStatus = "approved"
	ParticipantCheckedIn ParticipantStatus = "checked_in"
	ParticipantDropped   ParticipantStatus = "dropped"
)

// Participant — игрок в рамках одного турнира. После старта первого раунда
// запись неизменяема, кроме переключений статуса (check-in, drop).
type Participant struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	UserID       *int              `json:"user_id,omitempty" db:"user_id"`
	DisplayName  string            `json:"display_name" db:"display_name"`
	Status       ParticipantStatus `json:"status" db:"status"`
	AvatarKey    *string           `json:"-" db:"avatar_key"`
	AvatarURL    *string           `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// Eligible сообщает, может ли участник быть поставлен в пару.
func (p *Participant) Eligible() bool {
	return p.Status == ParticipantApproved || p.Status == ParticipantCheckedIn
}
