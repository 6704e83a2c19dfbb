package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
	ErrNoSalonContext    = errors.New("no salon associated with the current user")
	ErrInactiveService   = errors.New("service is inactive and cannot be booked")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrSlotUnavailable   = errors.New("time slot is not available")
	ErrAlreadyBilled     = errors.New("billing already generated for appointment")
	ErrConflict          = errors.New("resource already exists")
)

// TranslateDBError maps driver and gorm errors onto the service sentinels so
// callers only need errors.Is against this package.
func TranslateDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
