package helper

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	PGUniqueViolation     = "23505"
	PGForeignKeyViolation = "23503"
	PGExclusionViolation  = "23P01"
	PGCheckViolation      = "23514"
)

// PGCode returns the SQLSTATE of a postgres error, or "".
func PGCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return PGCode(err) == PGUniqueViolation
}

// MapPGError maps a postgres error to (status, message). ok=false when err is
// not a postgres error.
func MapPGError(err error) (int, string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", false
	}
	switch pgErr.Code {
	case PGUniqueViolation:
		return http.StatusConflict, "duplicate value violates unique constraint " + pgErr.ConstraintName, true
	case PGForeignKeyViolation:
		return http.StatusBadRequest, "referenced record does not exist (" + pgErr.ConstraintName + ")", true
	case PGExclusionViolation:
		return http.StatusConflict, "conflicting record exists (" + pgErr.ConstraintName + ")", true
	case PGCheckViolation:
		return http.StatusBadRequest, "value violates check constraint " + pgErr.ConstraintName, true
	default:
		return http.StatusInternalServerError, pgErr.Message, true
	}
}

// WriteDBError writes a json error for a persistence failure.
func WriteDBError(c *fiber.Ctx, err error) error {
	if status, msg, ok := MapPGError(err); ok {
		return JsonError(c, status, msg)
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}
