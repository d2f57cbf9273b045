package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/okian/stylist/pkg/metrics"
)

// UserHeader names the user when no Authenticator is configured.
const UserHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user of a request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID stores the user id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Authenticator issues and verifies HS256 bearer tokens. The token subject
// is the user id.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an Authenticator for secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth secret cannot be empty")
	}
	return &Authenticator{secret: []byte(secret), issuer: "stylist"}, nil
}

// IssueToken signs a token for userID valid for ttl.
func (a *Authenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(a.issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims.Subject, nil
}

// requireUser resolves the caller and stores it in the request context.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID string
		if s.auth == nil {
			userID = strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" {
				metrics.RecordAuthFailure("missing_user")
				writeError(w, http.StatusUnauthorized, "unauthorized",
					fmt.Errorf("%w: missing %s header", ErrUnauthorized, UserHeader))
				return
			}
		} else {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				metrics.RecordAuthFailure("missing_token")
				writeError(w, http.StatusUnauthorized, "unauthorized",
					fmt.Errorf("%w: missing bearer token", ErrUnauthorized))
				return
			}
			id, err := s.auth.Verify(strings.TrimSpace(token))
			if err != nil {
				metrics.RecordAuthFailure(authFailureReason(err))
				writeError(w, http.StatusUnauthorized, "unauthorized", err)
				return
			}
			userID = id
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
