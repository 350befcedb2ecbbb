package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrAlreadyConsumed   = errors.New("already consumed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("numeric overflow")
	ErrConflict          = errors.New("conflicting concurrent transaction")
)

func IgnoreErrNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.ConstraintName)
	case pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
		return fmt.Errorf("%w: %s", ErrOverflow, pgErr.Message)
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	}
	return err
}
