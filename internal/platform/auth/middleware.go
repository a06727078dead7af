package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/petshop-baronesa/api/internal/platform/httpx"
)

const defaultVerifyTimeout = 5 * time.Second

var (
	// ErrTokenExpired signals that the Firebase ID token has expired.
	ErrTokenExpired = errors.New("auth: firebase id token expired")
	// ErrTokenInvalid signals that the Firebase ID token failed verification.
	ErrTokenInvalid = errors.New("auth: firebase id token invalid")
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// UserGetter loads Firebase user records.
type UserGetter interface {
	GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)
}

// Authenticator turns Firebase ID tokens from the Authorization header into a
// request-scoped Identity.
type Authenticator struct {
	verifier TokenVerifier
	users    UserGetter
	timeout  time.Duration
}

// Option customises Authenticator behaviour.
type Option func(*Authenticator)

// WithUserGetter enables lazy Firebase user record loading on the Identity.
func WithUserGetter(getter UserGetter) Option {
	return func(a *Authenticator) {
		a.users = getter
	}
}

// NewAuthenticator constructs the Firebase authentication middleware factory.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier: verifier,
		timeout:  defaultVerifyTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireFirebaseAuth verifies the bearer token and, when roles are given,
// refuses identities that hold none of them. A token without a role claim is
// an ordinary signed-in customer and gets RoleUser.
func (a *Authenticator) RequireFirebaseAuth(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken := bearerToken(r.Header.Get("Authorization"))
			if rawToken == "" {
				writeUnauthorized(r.Context(), w, "unauthenticated", "authorization header missing or invalid")
				return
			}
			if a == nil || a.verifier == nil {
				writeUnauthorized(r.Context(), w, "unauthenticated", "authentication is not configured")
				return
			}

			verifyCtx, cancel := context.WithTimeout(r.Context(), a.timeout)
			token, err := a.verifier.VerifyIDToken(verifyCtx, rawToken)
			cancel()
			if err != nil {
				code := "invalid_token"
				if errors.Is(err, ErrTokenExpired) || firebaseauth.IsIDTokenExpired(err) {
					code = "token_expired"
				}
				writeUnauthorized(r.Context(), w, code, "firebase id token rejected")
				return
			}

			identity := identityFromToken(token)
			if len(allowedRoles) > 0 && !identity.HasAnyRole(allowedRoles...) {
				writeUnauthorized(r.Context(), w, "insufficient_role", "identity does not have a required role")
				return
			}

			if a.users != nil {
				users, timeout := a.users, a.timeout
				identity.userLoader = func(ctx context.Context, uid string) (*firebaseauth.UserRecord, error) {
					loadCtx, cancel := context.WithTimeout(ctx, timeout)
					defer cancel()
					return users.GetUser(loadCtx, uid)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func identityFromToken(token *firebaseauth.Token) *Identity {
	identity := &Identity{
		UID:    token.UID,
		Email:  stringClaim(token.Claims, "email"),
		Locale: stringClaim(token.Claims, "locale"),
		Roles:  roleClaim(token.Claims),
		token:  token,
	}
	if len(identity.Roles) == 0 {
		identity.Roles = []string{RoleUser}
	}
	return identity
}

// roleClaim accepts the two shapes the admin SDK writes for the custom role
// claim: a single string or a JSON array of strings.
func roleClaim(claims map[string]interface{}) []string {
	switch v := claims["role"].(type) {
	case string:
		if role := normalizeRole(v); role != "" {
			return []string{role}
		}
	case []interface{}:
		var roles []string
		for _, entry := range v {
			s, ok := entry.(string)
			if !ok {
				continue
			}
			role := normalizeRole(s)
			if role == "" || contains(roles, role) {
				continue
			}
			roles = append(roles, role)
		}
		return roles
	}
	return nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(ctx context.Context, w http.ResponseWriter, code, message string) {
	httpx.WriteError(ctx, w, httpx.NewError(code, message, http.StatusUnauthorized))
}
