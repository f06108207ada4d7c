package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/product-advisor-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// AnonymousUserID is the identity of callers that present no credentials.
const AnonymousUserID = "anonymous"

// Identity is the caller resolved by IdentityMiddleware.
type Identity struct {
	UserID string
	Name   string
}

// Claims are the JWT claims the advisor reads.
type Claims struct {
	Sub  string `json:"sub"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IdentityMiddleware resolves the caller and injects it into the context.
//
// With a secret, every request must carry a valid HS256 Bearer token whose
// sub claim becomes the user ID. Without one, the X-User-ID and X-User-Name
// headers are trusted and a request without them is anonymous.
func IdentityMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolveIdentity(r, secret)
			if err != nil {
				logger.Warn("auth: request rejected",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
					zap.NamedError("cause", errors.Unwrap(err)),
				)
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveIdentity(r *http.Request, secret string) (Identity, error) {
	if secret == "" {
		id := Identity{
			UserID: strings.TrimSpace(r.Header.Get("X-User-ID")),
			Name:   strings.TrimSpace(r.Header.Get("X-User-Name")),
		}
		if id.UserID == "" {
			id.UserID = AnonymousUserID
		}
		return id, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Identity{}, &domain.ErrUnauthorized{Message: "missing bearer token"}
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, &domain.ErrUnauthorized{Message: "invalid authorization header"}
	}

	claims, err := parseToken(parts[1], secret)
	if err != nil {
		return Identity{}, &domain.ErrUnauthorized{Message: "invalid or expired token", Err: err}
	}
	return Identity{UserID: claims.Sub, Name: claims.Name}, nil
}

func parseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// IdentityFromContext returns the caller injected by IdentityMiddleware, or
// the anonymous identity when there is none.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Identity{UserID: AnonymousUserID}
}
