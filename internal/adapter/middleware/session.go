package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"smart-loan-recovery/internal/domain/user"
	"smart-loan-recovery/pkg/id"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	CookieName = "session"

	ctxUserID = "session.user_id"
	ctxRole   = "session.role"
)

// Revoker remembers logged-out session ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

type noopRevoker struct{}

func (noopRevoker) Revoke(context.Context, string, time.Duration) error { return nil }
func (noopRevoker) Revoked(context.Context, string) (bool, error)       { return false, nil }

type RedisRevoker struct{ rdb *redis.Client }

func NewRedisRevoker(rdb *redis.Client) *RedisRevoker { return &RedisRevoker{rdb: rdb} }

func revokedKey(jti string) string { return "session:revoked:" + jti }

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedKey(jti)).Result()
	return n > 0, err
}

type sessionClaims struct {
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies the HS256-signed session cookie.
type Sessions struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoker Revoker
	log     *slog.Logger
	now     func() time.Time
}

// NewSessions builds the cookie codec. A nil revoker disables logout revocation;
// the cookie is still cleared.
func NewSessions(secret string, ttl time.Duration, secure bool, revoker Revoker, log *slog.Logger) *Sessions {
	if revoker == nil {
		revoker = noopRevoker{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sessions{
		secret:  []byte(secret),
		ttl:     ttl,
		secure:  secure,
		revoker: revoker,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; tests only.
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	s.now = now
	return s
}

func (s *Sessions) sign(u *user.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := sessionClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        id.New(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tok, exp, err
}

func (s *Sessions) parse(raw string) (*sessionClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, errors.New("session claims incomplete")
	}
	return &claims, nil
}

// Issue logs u in by setting the session cookie.
func (s *Sessions) Issue(c echo.Context, u *user.User) error {
	tok, exp, err := s.sign(u)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	c.SetCookie(s.cookie(tok, exp))
	return nil
}

// Clear expires the cookie and, when a valid session is present, revokes it.
func (s *Sessions) Clear(c echo.Context) error {
	if ck, err := c.Cookie(CookieName); err == nil {
		if claims, err := s.parse(ck.Value); err == nil {
			left := claims.ExpiresAt.Time.Sub(s.now())
			if err := s.revoker.Revoke(c.Request().Context(), claims.ID, left); err != nil {
				return fmt.Errorf("revoke session: %w", err)
			}
		}
	}
	ck := s.cookie("", time.Unix(0, 0))
	ck.MaxAge = -1
	c.SetCookie(ck)
	return nil
}

func (s *Sessions) cookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Load attaches the session identity, if any, to the echo context. A missing,
// forged, expired or revoked cookie leaves the request anonymous.
func (s *Sessions) Load() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(CookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}
			claims, err := s.parse(ck.Value)
			if err != nil {
				return next(c)
			}
			revoked, err := s.revoker.Revoked(c.Request().Context(), claims.ID)
			if err != nil {
				s.log.Warn("session revocation check failed", "err", err)
				return deny(c, http.StatusServiceUnavailable, "unavailable", "session store unavailable")
			}
			if revoked {
				return next(c)
			}
			SetIdentity(c, claims.Subject, claims.Role)
			return next(c)
		}
	}
}

// SetIdentity marks the request as made by userID.
func SetIdentity(c echo.Context, userID string, role user.Role) {
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
}

// UserID returns the logged-in user's id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	v, _ := c.Get(ctxUserID).(string)
	return v
}

func Role(c echo.Context) user.Role {
	v, _ := c.Get(ctxRole).(user.Role)
	return v
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserID(c) == "" {
			return deny(c, http.StatusUnauthorized, "unauthorized", "login required")
		}
		return next(c)
	}
}

// RequireLender rejects anonymous requests with 401 and borrowers with 403.
func RequireLender(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserID(c) == "" {
			return deny(c, http.StatusUnauthorized, "unauthorized", "login required")
		}
		if Role(c) != user.RoleLender {
			return deny(c, http.StatusForbidden, "forbidden", "lender role required")
		}
		return next(c)
	}
}

func deny(c echo.Context, code int, kind, msg string) error {
	return c.JSON(code, map[string]string{"error": kind, "message": msg})
}
