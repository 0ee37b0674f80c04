package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	TokenKey     contextKey = "token"
)

// TokenRef identifies the bearer token of the current request.
type TokenRef struct {
	ID        string
	ExpiresAt time.Time
}

// JWTMiddleware requires a valid HS256 bearer token and puts its subject and
// roles on the request context. Tokens listed in cfg.Revocations are
// rejected.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenStr) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), claims, keyFunc, opts...)
			if err != nil || !token.Valid || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsRevoked(c.Request().Context(), claims.ID)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "token check unavailable")
				}
				if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			// echo context copy is read by the request logger
			c.Set(string(UserIDKey), claims.Subject)

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRolesKey, claims.Roles)
			ctx = context.WithValue(ctx, TokenKey, TokenRef{ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

func TokenFromContext(ctx context.Context) (TokenRef, bool) {
	ref, ok := ctx.Value(TokenKey).(TokenRef)
	return ref, ok
}

// WithUser returns ctx carrying the given identity, as JWTMiddleware would
// set it.
func WithUser(ctx context.Context, userID string, roles ...string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRolesKey, roles)
}
