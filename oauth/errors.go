package oauth

import "github.com/goliatone/go-errors"

const (
	TextCodeInvalidState      = "oauth_invalid_state"
	TextCodeStateExpired      = "oauth_state_expired"
	TextCodeTokenExchangeFail = "oauth_token_exchange_failed"
	TextCodeUserInfoFail      = "oauth_user_info_failed"
	TextCodeInvalidSession    = "oauth_invalid_session"
	TextCodeMissingPrincipal  = "oauth_missing_principal"
)

// ErrInvalidState is returned when the OAuth state is invalid or tampered.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the OAuth state has expired.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrTokenExchangeFailed is returned when a provider token exchange fails.
var ErrTokenExchangeFailed = errors.New("token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(errors.CodeUnauthorized)

// ErrUserInfoFailed is returned when fetching user info fails.
var ErrUserInfoFailed = errors.New("failed to fetch user info", errors.CategoryAuth).
	WithTextCode(TextCodeUserInfoFail).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidSession is returned when a session token fails verification.
var ErrInvalidSession = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidSession).
	WithCode(errors.CodeUnauthorized)

// ErrMissingPrincipal is returned when provider claims carry no usable
// stable identifier.
var ErrMissingPrincipal = errors.New("provider claims missing principal identifier", errors.CategoryAuth).
	WithTextCode(TextCodeMissingPrincipal).
	WithCode(errors.CodeUnauthorized)
