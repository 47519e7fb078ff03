package services

import (
	"errors"
	"fmt"
)

const (
	CodeNoTenant       = "DEPT_NO_TENANT"
	CodeValidation     = "DEPT_VALIDATION"
	CodeNotFound       = "DEPT_NOT_FOUND"
	CodeParentNotFound = "DEPT_PARENT_NOT_FOUND"
	CodeNoParent       = "DEPT_NO_PARENT"
	CodeCycle          = "DEPT_CYCLE"
	CodeIntegrity      = "DEPT_INTEGRITY"
	CodeInternal       = "DEPT_INTERNAL"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

// HasCode reports whether err is a ServiceError carrying the given code.
func HasCode(err error, code string) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Code == code
}
