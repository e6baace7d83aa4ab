package oauth

import (
	"time"

	"github.com/campuskit/portal"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// sessionClaims is the JWT payload for a signed-in session. The subject
// holds the provider principal identifier; the profile carries the claims
// bag captured at sign-in so the portal can re-provision without another
// provider round trip.
type sessionClaims struct {
	jwt.RegisteredClaims
	Profile *portal.Claims `json:"profile,omitempty"`
}

// TokenService issues and verifies portal session tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	duration   time.Duration
}

// NewTokenService creates a session token codec. A zero duration defaults
// to 24 hours.
func NewTokenService(signingKey []byte, issuer, audience string, duration time.Duration) *TokenService {
	if duration == 0 {
		duration = 24 * time.Hour
	}
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   audience,
		duration:   duration,
	}
}

// Generate signs a session token for the given principal.
func (s *TokenService) Generate(principal *portal.Principal) (string, error) {
	if principal == nil || principal.ID == "" {
		return "", ErrMissingPrincipal
	}

	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   principal.ID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
		Profile: principal.Claims,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Parse verifies a session token and returns the embedded principal.
func (s *TokenService) Parse(tokenString string) (*portal.Principal, error) {
	if tokenString == "" {
		return nil, ErrInvalidSession
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "invalid session token").
			WithTextCode(TextCodeInvalidSession).
			WithCode(goerrors.CodeUnauthorized)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return &portal.Principal{
		ID:     claims.Subject,
		Claims: claims.Profile,
	}, nil
}
