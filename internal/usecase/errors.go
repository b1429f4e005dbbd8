package usecase

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrMatchLocked         = errors.New("match is locked")
	ErrTeamFull            = errors.New("team is full")
	ErrPlayerNotInSquad    = errors.New("player not in squad")
	ErrCaptainConflict     = errors.New("captain conflict")
	ErrInsufficientPlayers = errors.New("insufficient players")
	ErrBetNotFound         = errors.New("bet not found")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrQuestionClosed      = errors.New("question closed")
	ErrInvalidFormat       = errors.New("invalid backup format")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)
