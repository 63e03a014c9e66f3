package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"tempiaops/internal/apperror"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == uniqueViolation
}

// translateWrite maps constraint failures of an insert onto caller errors:
// a broken reference is invalid input, a taken key is a conflict.
func translateWrite(err error, fkMsg, conflictMsg, failMsg string) error {
	switch pqCode(err) {
	case foreignKeyViolation:
		return apperror.Wrap(err, apperror.CodeInvalid, fkMsg)
	case uniqueViolation:
		return apperror.Wrap(err, apperror.CodeConflict, conflictMsg)
	default:
		return apperror.Wrap(err, apperror.CodeInternal, failMsg)
	}
}

// translate maps driver errors onto application error codes.
func translate(err error, notFoundMsg, failMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperror.New(apperror.CodeNotFound, notFoundMsg)
	case isUniqueViolation(err):
		return apperror.Wrap(err, apperror.CodeConflict, "already exists")
	default:
		return apperror.Wrap(err, apperror.CodeInternal, failMsg)
	}
}

func mustAffect(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternal, "failed to get affected rows")
	}
	if n == 0 {
		return apperror.New(apperror.CodeNotFound, notFoundMsg)
	}
	return nil
}
