package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smart-loan-recovery/internal/domain/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	lenderUser   = &user.User{ID: "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", Name: "lena", Role: user.RoleLender}
	borrowerUser = &user.User{ID: "7c1e2d3f-4a5b-4c6d-9e8f-0a1b2c3d4e5f", Name: "bora", Role: user.RoleBorrower}
)

type memRevoker struct {
	ids  map[string]time.Duration
	fail error
}

func (m *memRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if m.ids == nil {
		m.ids = map[string]time.Duration{}
	}
	m.ids[jti] = ttl
	return m.fail
}

func (m *memRevoker) Revoked(_ context.Context, jti string) (bool, error) {
	if m.fail != nil {
		return false, m.fail
	}
	_, ok := m.ids[jti]
	return ok, nil
}

// sessionEcho wires Load plus routes for login/logout and the guards.
func sessionEcho(s *Sessions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(s.Load())
	e.POST("/login/:who", func(c echo.Context) error {
		u := borrowerUser
		if c.Param("who") == "lender" {
			u = lenderUser
		}
		if err := s.Issue(c, u); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := s.Clear(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"id": UserID(c), "role": string(Role(c))})
	}, RequireUser)
	e.GET("/lenders-only", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireLender)
	return e
}

func serve(e *echo.Echo, method, path string, ck *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", CookieName)
	return nil
}

func TestSession_LoginThenGuardedRoutes(t *testing.T) {
	e := sessionEcho(NewSessions(testSecret, time.Hour, true, nil, nil))

	ck := sessionCookie(t, serve(e, http.MethodPost, "/login/lender", nil))
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteLaxMode || ck.Path != "/" {
		t.Fatalf("cookie attributes: %+v", ck)
	}

	rec := serve(e, http.MethodGet, "/me", ck)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), lenderUser.ID) || !strings.Contains(rec.Body.String(), `"lender"`) {
		t.Fatalf("/me => %d %s", rec.Code, rec.Body.String())
	}
	if rec := serve(e, http.MethodGet, "/lenders-only", ck); rec.Code != http.StatusOK {
		t.Fatalf("lender on lender route => %d", rec.Code)
	}
}

func TestSession_Guards(t *testing.T) {
	e := sessionEcho(NewSessions(testSecret, time.Hour, false, nil, nil))

	if rec := serve(e, http.MethodGet, "/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me => want 401, got %d", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/lenders-only", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous lender route => want 401, got %d", rec.Code)
	}

	ck := sessionCookie(t, serve(e, http.MethodPost, "/login/borrower", nil))
	rec := serve(e, http.MethodGet, "/lenders-only", ck)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("borrower on lender route => want 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"forbidden"`) {
		t.Fatalf("error body: %s", rec.Body.String())
	}
}

func TestSession_RejectsTamperedAndForeignTokens(t *testing.T) {
	s := NewSessions(testSecret, time.Hour, false, nil, nil)
	e := sessionEcho(s)
	ck := sessionCookie(t, serve(e, http.MethodPost, "/login/lender", nil))

	tampered := *ck
	tampered.Value = ck.Value + "x"
	if rec := serve(e, http.MethodGet, "/me", &tampered); rec.Code != http.StatusUnauthorized {
		t.Fatalf("tampered cookie => want 401, got %d", rec.Code)
	}

	other := NewSessions(strings.Repeat("z", 32), time.Hour, false, nil, nil)
	tok, _, err := other.sign(lenderUser)
	if err != nil {
		t.Fatal(err)
	}
	if rec := serve(e, http.MethodGet, "/me", &http.Cookie{Name: CookieName, Value: tok}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature => want 401, got %d", rec.Code)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		Role:             user.RoleLender,
		RegisteredClaims: jwt.RegisteredClaims{Subject: lenderUser.ID, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if rec := serve(e, http.MethodGet, "/me", &http.Cookie{Name: CookieName, Value: raw}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("alg=none => want 401, got %d", rec.Code)
	}
}

func TestSession_Expires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(testSecret, time.Hour, false, nil, nil).WithClock(func() time.Time { return now })
	e := sessionEcho(s)
	ck := sessionCookie(t, serve(e, http.MethodPost, "/login/lender", nil))

	if rec := serve(e, http.MethodGet, "/me", ck); rec.Code != http.StatusOK {
		t.Fatalf("fresh session => %d", rec.Code)
	}
	now = now.Add(2 * time.Hour)
	if rec := serve(e, http.MethodGet, "/me", ck); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired session => want 401, got %d", rec.Code)
	}
}

func TestSession_LogoutRevokes(t *testing.T) {
	rv := &memRevoker{}
	e := sessionEcho(NewSessions(testSecret, time.Hour, false, rv, nil))
	ck := sessionCookie(t, serve(e, http.MethodPost, "/login/borrower", nil))

	rec := serve(e, http.MethodPost, "/logout", ck)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout => %d", rec.Code)
	}
	cleared := sessionCookie(t, rec)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("logout should expire the cookie: %+v", cleared)
	}
	if len(rv.ids) != 1 {
		t.Fatalf("want one revoked id, got %v", rv.ids)
	}
	for _, ttl := range rv.ids {
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("revocation ttl out of range: %v", ttl)
		}
	}

	// replaying the old cookie is now anonymous
	if rec := serve(e, http.MethodGet, "/me", ck); rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked cookie => want 401, got %d", rec.Code)
	}
}

func TestSession_LogoutWithoutCookie(t *testing.T) {
	rv := &memRevoker{}
	e := sessionEcho(NewSessions(testSecret, time.Hour, false, rv, nil))
	if rec := serve(e, http.MethodPost, "/logout", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("anonymous logout => %d", rec.Code)
	}
	if len(rv.ids) != 0 {
		t.Fatal("nothing to revoke")
	}
}

func TestSession_RevocationStoreDown(t *testing.T) {
	rv := &memRevoker{}
	e := sessionEcho(NewSessions(testSecret, time.Hour, false, rv, nil))
	ck := sessionCookie(t, serve(e, http.MethodPost, "/login/lender", nil))

	rv.fail = errors.New("redis down")
	if rec := serve(e, http.MethodGet, "/me", ck); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("revocation store down => want 503, got %d", rec.Code)
	}
}

func TestRedisRevoker(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	rv := NewRedisRevoker(rdb)
	ctx := context.Background()

	if ok, err := rv.Revoked(ctx, "j1"); err != nil || ok {
		t.Fatalf("fresh id: ok=%v err=%v", ok, err)
	}
	if err := rv.Revoke(ctx, "j1", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if ok, _ := rv.Revoked(ctx, "j1"); !ok {
		t.Fatal("j1 should be revoked")
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := rv.Revoked(ctx, "j1"); ok {
		t.Fatal("revocation should lapse with the session")
	}
	if err := rv.Revoke(ctx, "j2", 0); err != nil || mr.Exists(revokedKey("j2")) {
		t.Fatalf("already-expired sessions need no entry: err=%v", err)
	}
}
