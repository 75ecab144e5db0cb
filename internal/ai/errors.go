package ai

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Kind classifies a failed call to the Gemini API so callers can pick a
// user-facing message without parsing error strings.
type Kind int

const (
	KindTransient Kind = iota // network failure, timeout, 5xx
	KindQuota                 // rate limit or quota exhausted
	KindAuth                  // key rejected or missing permission
)

// ServiceError wraps a Gemini failure with a stable classification.
type ServiceError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *ServiceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

// classify wraps err in a ServiceError based on the Google API status code.
// Anything unrecognized is treated as transient so callers suggest a retry.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindTransient
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			kind = KindQuota
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindAuth
		}
	}
	return &ServiceError{Kind: kind, Op: op, Err: err}
}

// IsQuota reports whether err is a quota-exceeded service error.
func IsQuota(err error) bool { return kindOf(err) == KindQuota }

// IsAuth reports whether err is an authentication/authorization failure.
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

func kindOf(err error) Kind {
	var serr *ServiceError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return KindTransient
}
