package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/speoper/dispatch/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Hour)
	next, called := okHandler()
	handler := Auth(jwtMgr)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatal("next handler must not run")
	}
}

func TestAuthRejectsNonBearerScheme(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Hour)
	next, called := okHandler()
	handler := Auth(jwtMgr)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatal("next handler must not run")
	}
}

func TestAuthInjectsIdentity(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Hour)

	var gotSubject int64
	var gotRole auth.Role
	handler := Auth(jwtMgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubject(r.Context())
		gotRole = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := jwtMgr.GenerateAccessToken(7, string(auth.RoleDispatcher))
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != 7 {
		t.Fatalf("expected subject 7, got %d", gotSubject)
	}
	if gotRole != auth.RoleDispatcher {
		t.Fatalf("expected dispatcher role, got %q", gotRole)
	}
}

func TestAuthRejectsUnknownRoleClaim(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Hour)
	next, called := okHandler()
	handler := Auth(jwtMgr)(next)

	token, err := jwtMgr.GenerateAccessToken(7, "SUPERUSER")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatal("next handler must not run")
	}
}

func TestRequireRolesFailsClosedWithoutIdentity(t *testing.T) {
	// RequireRoles applied without Auth in front must reject, not pass.
	next, called := okHandler()
	handler := RequireRoles(auth.RoleDispatcher)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatal("next handler must not run")
	}
}

func TestRequireRolesRejectsWrongRole(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Hour)
	next, called := okHandler()
	handler := Auth(jwtMgr)(RequireDispatcher(next))

	token, err := jwtMgr.GenerateAccessToken(2, string(auth.RoleWorker))
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if *called {
		t.Fatal("next handler must not run")
	}
}

func TestRequireRolesAllowsListedRole(t *testing.T) {
	jwtMgr := auth.NewJWTManager(testSecret, time.Hour)
	next, called := okHandler()
	handler := Auth(jwtMgr)(RequireDispatcher(next))

	token, err := jwtMgr.GenerateAccessToken(1, string(auth.RoleDispatcher))
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !*called {
		t.Fatal("next handler must run")
	}
}
