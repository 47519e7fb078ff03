package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapStoreError converts repository failures into ServiceErrors. Errors that
// already carry a status pass through untouched.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	if errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, CodeNotFound, "department not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return newServiceError(http.StatusInternalServerError, CodeInternal, "storage failure", err)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		if pgErr.ConstraintName == "departments_tenant_root_lft_key" ||
			pgErr.ConstraintName == "departments_tenant_root_rght_key" {
			return newServiceError(http.StatusInternalServerError, CodeIntegrity, "interval numbering collision", err)
		}
		return newServiceError(http.StatusConflict, CodeValidation, "unique constraint violated", err)
	case "23503": // foreign_key_violation
		return newServiceError(http.StatusUnprocessableEntity, CodeParentNotFound, "referenced department not found", err)
	case "23514": // check_violation
		return newServiceError(http.StatusInternalServerError, CodeIntegrity, "interval check violated", err)
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return newServiceError(http.StatusConflict, CodeValidation, "concurrent update, retry the request", err)
	default:
		return newServiceError(http.StatusInternalServerError, CodeInternal, fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
