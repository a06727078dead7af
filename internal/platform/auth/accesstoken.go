package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/petshop-baronesa/api/internal/platform/httpx"
)

const (
	accessTokenIssuer = "petshop-baronesa-api"
	minSecretLength   = 16
)

var (
	// ErrAccessTokenExpired signals that the admin access token is past its validity window.
	ErrAccessTokenExpired = errors.New("auth: admin access token expired")
	// ErrAccessTokenInvalid signals that the admin access token failed verification.
	ErrAccessTokenInvalid = errors.New("auth: admin access token invalid")
)

// AccessTokenClaims carries the signed payload of an admin access token.
type AccessTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AccessTokenIssuer mints and verifies short-lived admin access tokens. Tokens gate the
// admin route group in addition to Firebase authentication, so a leaked ID token alone
// is not enough to reach admin surfaces.
type AccessTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	header string
	now    func() time.Time
}

// AccessTokenOption customises the AccessTokenIssuer.
type AccessTokenOption func(*AccessTokenIssuer)

// WithAccessTokenClock overrides the time source, used in tests.
func WithAccessTokenClock(now func() time.Time) AccessTokenOption {
	return func(i *AccessTokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewAccessTokenIssuer constructs an issuer backed by an HMAC-SHA256 signing secret.
func NewAccessTokenIssuer(secret string, ttl time.Duration, headerName string, opts ...AccessTokenOption) (*AccessTokenIssuer, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: access token secret must be at least %d characters", minSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: access token ttl must be positive")
	}
	headerName = strings.TrimSpace(headerName)
	if headerName == "" {
		return nil, errors.New("auth: access token header name is required")
	}

	issuer := &AccessTokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		header: headerName,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer, nil
}

// Header returns the request header carrying the access token.
func (i *AccessTokenIssuer) Header() string {
	if i == nil {
		return ""
	}
	return i.header
}

// TTL returns the validity window applied to issued tokens.
func (i *AccessTokenIssuer) TTL() time.Duration {
	if i == nil {
		return 0
	}
	return i.ttl
}

// Issue signs a new access token for the given principal.
func (i *AccessTokenIssuer) Issue(uid, role string) (string, time.Time, error) {
	if i == nil {
		return "", time.Time{}, errors.New("auth: access token issuer not initialised")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", time.Time{}, errors.New("auth: uid is required")
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)
	claims := AccessTokenClaims{
		Role: normalizeRole(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    accessTokenIssuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a signed access token, returning its claims.
func (i *AccessTokenIssuer) Verify(tokenStr string) (*AccessTokenClaims, error) {
	if i == nil {
		return nil, ErrAccessTokenInvalid
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrAccessTokenInvalid
	}

	// Claims validation is deferred so expiry and issuer run against the
	// injected clock rather than the parser's wall clock.
	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrAccessTokenInvalid
	}

	now := i.now()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, ErrAccessTokenExpired
	}
	if !claims.VerifyNotBefore(now, false) || !claims.VerifyIssuer(accessTokenIssuer, true) {
		return nil, ErrAccessTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrAccessTokenInvalid
	}
	return claims, nil
}

// RequireAccessToken enforces a valid admin access token on the request. The token subject
// must match the authenticated Firebase identity, so tokens cannot be shared across accounts.
func (i *AccessTokenIssuer) RequireAccessToken() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if i == nil {
				respondAuthError(ctx, w, http.StatusUnauthorized, "access_token_unavailable", "admin access tokens not configured")
				return
			}

			claims, err := i.Verify(r.Header.Get(i.header))
			if err != nil {
				if errors.Is(err, ErrAccessTokenExpired) {
					respondAuthError(ctx, w, http.StatusUnauthorized, "access_token_expired", "admin access token expired")
					return
				}
				respondAuthError(ctx, w, http.StatusUnauthorized, "access_token_invalid", "admin access token missing or invalid")
				return
			}

			identity, ok := IdentityFromContext(ctx)
			if !ok || identity == nil || identity.UID != claims.Subject {
				respondAuthError(ctx, w, http.StatusForbidden, "access_token_mismatch", "admin access token does not match identity")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondAuthError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	httpx.WriteError(ctx, w, httpx.NewError(code, message, status))
}
