package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации входных данных — никогда не ретраятся вызывающим.
	ErrValidationFailed         = errors.New("validation failed")
	ErrTournamentNameRequired   = errors.New("tournament name is required")
	ErrInvalidTargetPoints      = errors.New("target points must be positive")
	ErrInvalidSwissRoundCount   = errors.New("swiss round count must be positive")
	ErrInvalidRoundNumber       = errors.New("round number is out of range for this tournament")
	ErrDisplayNameRequired      = errors.New("participant display name is required")
	ErrPasswordTooShort         = errors.New("password is too short")

	// Предусловия прогрессии — вызывающий может повторить после изменения состояния.
	ErrInsufficientParticipants = errors.New("not enough eligible participants (minimum 2)")
	ErrInsufficientQualifiers   = errors.New("no qualifiers available for the top cut")
	ErrRoundAlreadyExists       = errors.New("round already has matches")
	ErrInvalidCutSize           = errors.New("cut size is not in the allowed set")
	ErrTournamentNotEligible    = errors.New("tournament status does not allow this operation")
	ErrBracketNotFound          = errors.New("top cut bracket has not been generated")
	ErrBracketRoundNotFound     = errors.New("bracket round does not exist")
	ErrBracketRoundNotComplete  = errors.New("bracket round still has pending matches")

	// Нарушение инварианта — сигнал о баге, а не о плохом запросе.
	ErrBracketInconsistent = errors.New("bracket state violates an internal invariant")

	// Ошибки матчей и ввода результатов.
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchAlreadyComplete = errors.New("match is already complete")
	ErrMatchIsBye           = errors.New("bye matches are decided automatically and cannot be scored or replayed")
	ErrInvalidWinner        = errors.New("winner must be one of the match participants")
	ErrInvalidFinishType    = errors.New("unknown finish type")

	// Ошибки сущностей (дают больше контекста, чем ErrNotFound).
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")

	// Конфликты
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrRegistrationConflict   = errors.New("participant is already registered for this tournament")

	// Ошибки турниров
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")

	// Аутентификация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthNicknameTaken      = errors.New("nickname is already taken")

	// Загрузка файлов
	ErrUploaderNotConfigured = errors.New("file storage is not configured")
)
