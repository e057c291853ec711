package consistency

import (
	"errors"
	"strings"

	"fellowship/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE codes for integrity constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// TranslateError maps store errors onto the application error taxonomy.
// Errors that are already AppErrors, and errors with no mapping, are
// returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &models.AppError{Code: models.CodeNotFound, Message: "record not found", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.NewUniqueViolationError("record", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return foreignKeyError(err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return models.NewCheckViolationError("check constraint violated", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return models.NewUniqueViolationError("record", err)
		case pgForeignKeyViolation:
			return foreignKeyError(err)
		case pgCheckViolation:
			return models.NewCheckViolationError("check constraint violated", err)
		}
		return err
	}

	// SQLite reports constraint failures by message only when the dialector
	// does not translate them.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return models.NewUniqueViolationError("record", err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyError(err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return models.NewCheckViolationError("check constraint violated", err)
	}
	return err
}

func foreignKeyError(err error) error {
	return &models.AppError{
		Code:    models.CodeFKRestricted,
		Message: "foreign key constraint violated",
		Err:     err,
	}
}
