package portal

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrUnableToFindSession is the error when the request carries no session cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession means the session token could not be decoded
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE_FAILED").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidRole is returned when a role outside the predefined set is supplied
var ErrInvalidRole = errors.New("unknown or invalid role", errors.CategoryValidation).
	WithTextCode("INVALID_ROLE").
	WithCode(errors.CodeBadRequest)

// ErrInvalidStatus is returned when a status outside the predefined set is supplied
var ErrInvalidStatus = errors.New("unknown or invalid status", errors.CategoryValidation).
	WithTextCode("INVALID_STATUS").
	WithCode(errors.CodeBadRequest)

// ErrProvisioningConflict is returned when profile creation keeps racing the
// uniqueness constraint after the lookup retry.
var ErrProvisioningConflict = errors.New("profile creation conflict unresolved", errors.CategoryConflict).
	WithTextCode("PROVISION_CONFLICT").
	WithCode(errors.CodeConflict)

// ErrSessionClosed is returned when an operation hits a torn-down session context
var ErrSessionClosed = errors.New("session context closed", errors.CategoryOperation).
	WithTextCode("SESSION_CLOSED").
	WithCode(errors.CodeConflict)

// IsConflictError reports whether err looks like a store uniqueness violation.
// The sqlite and postgres drivers surface different shapes, so we accept both
// the rich-error category and the driver message.
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryConflict {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
