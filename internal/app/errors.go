package app

import (
	"fmt"
	"net/http"
)

// DomainError is an error with a fixed HTTP rendering.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) write(w http.ResponseWriter) {
	writeError(w, e.Status, e.Code, e.Message, e.Details)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var (
	errRouteNotFound = domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	errUnauthorized  = domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	errForbidden     = domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	errBadLogin      = domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Login failed: invalid email or password", nil)
)

func invalidBody(err error) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
}

func validationFailed(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}
