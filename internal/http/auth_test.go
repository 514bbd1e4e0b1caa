package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/speoper/dispatch/internal/auth"
	"github.com/speoper/dispatch/internal/transport"
	"github.com/speoper/dispatch/internal/user"
)

const testSecret = "0123456789abcdef0123456789abcdef"
const testPassword = "Sup3r-Secret-Pass!"

type stubUserRepo struct {
	users  map[string]user.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]user.User), nextID: 1}
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (s *stubUserRepo) Create(ctx context.Context, email, passwordHash string, serviceType *transport.Type) (user.User, error) {
	if _, ok := s.users[email]; ok {
		return user.User{}, user.ErrEmailTaken
	}
	u := user.User{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         user.RoleWorker,
		ServiceType:  serviceType,
	}
	s.nextID++
	s.users[email] = u
	return u, nil
}

func newAuthRouter(t *testing.T) (nethttp.Handler, *stubUserRepo) {
	t.Helper()

	repo := newStubUserRepo()
	jwtMgr := auth.NewJWTManager(testSecret, 48*time.Hour)
	users := user.NewService(repo, nil, jwtMgr)
	h := &Handler{users: users}

	r := chi.NewRouter()
	r.Post("/auth/login", h.Login)
	r.Post("/auth/registration", h.Registration)

	return r, repo
}

func postJSON(t *testing.T, router nethttp.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, body []byte) user.TokenResult {
	t.Helper()
	var envelope struct {
		Data user.TokenResult `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return envelope.Data
}

func TestRegistrationReturnsToken(t *testing.T) {
	router, repo := newAuthRouter(t)

	rec := postJSON(t, router, "/auth/registration",
		`{"email":"worker@example.com","password":"`+testPassword+`","serviceType":"FIRE"}`)
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	result := decodeToken(t, rec.Body.Bytes())
	if result.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if result.IsDispatcher {
		t.Fatal("new registrations must not be dispatchers")
	}

	stored, ok := repo.users["worker@example.com"]
	if !ok {
		t.Fatal("user row missing")
	}
	if stored.ServiceType == nil || *stored.ServiceType != transport.TypeFire {
		t.Fatalf("expected FIRE service type, got %v", stored.ServiceType)
	}
	if stored.PasswordHash == testPassword {
		t.Fatal("password must be stored hashed")
	}
}

func TestRegistrationRejectsWeakPassword(t *testing.T) {
	router, repo := newAuthRouter(t)

	rec := postJSON(t, router, "/auth/registration",
		`{"email":"worker@example.com","password":"short"}`)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(repo.users) != 0 {
		t.Fatal("no row may be created for a rejected registration")
	}
}

func TestRegistrationConflict(t *testing.T) {
	router, repo := newAuthRouter(t)

	first := postJSON(t, router, "/auth/registration",
		`{"email":"dup@example.com","password":"`+testPassword+`"}`)
	if first.Code != nethttp.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := postJSON(t, router, "/auth/registration",
		`{"email":"dup@example.com","password":"`+testPassword+`"}`)
	if second.Code != nethttp.StatusConflict {
		t.Fatalf("expected 409, got %d", second.Code)
	}
	if len(repo.users) != 1 {
		t.Fatalf("duplicate registration must not create a row, have %d", len(repo.users))
	}
}

func TestLoginRoundtrip(t *testing.T) {
	router, _ := newAuthRouter(t)

	if rec := postJSON(t, router, "/auth/registration",
		`{"email":"worker@example.com","password":"`+testPassword+`"}`); rec.Code != nethttp.StatusCreated {
		t.Fatalf("registration failed: %d", rec.Code)
	}

	rec := postJSON(t, router, "/auth/login",
		`{"email":"worker@example.com","password":"`+testPassword+`"}`)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeToken(t, rec.Body.Bytes()).AccessToken == "" {
		t.Fatal("expected an access token")
	}
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	router, _ := newAuthRouter(t)

	if rec := postJSON(t, router, "/auth/registration",
		`{"email":"known@example.com","password":"`+testPassword+`"}`); rec.Code != nethttp.StatusCreated {
		t.Fatalf("registration failed: %d", rec.Code)
	}

	wrongPass := postJSON(t, router, "/auth/login",
		`{"email":"known@example.com","password":"Wrong-Password-123!"}`)
	unknownUser := postJSON(t, router, "/auth/login",
		`{"email":"unknown@example.com","password":"`+testPassword+`"}`)

	if wrongPass.Code != nethttp.StatusUnauthorized || unknownUser.Code != nethttp.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, unknownUser.Code)
	}
	if wrongPass.Body.String() != unknownUser.Body.String() {
		t.Fatal("login failures must not reveal whether the email exists")
	}
}
