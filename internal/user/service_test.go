package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/speoper/dispatch/internal/auth"
	"github.com/speoper/dispatch/internal/transport"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// The test password satisfies the registration policy (16+ chars, mixed
// case, digit, symbol); hashing it for real keeps Login exercising Verify.
const testPassword = "Sup3r-Secret-Pass!"

type stubUserRepo struct {
	users  map[string]User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]User), nextID: 1}
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int64) (User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *stubUserRepo) Create(ctx context.Context, email, passwordHash string, serviceType *transport.Type) (User, error) {
	if _, ok := s.users[email]; ok {
		return User{}, ErrEmailTaken
	}
	u := User{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleWorker,
		ServiceType:  serviceType,
	}
	s.nextID++
	s.users[email] = u
	return u, nil
}

type stubRedis struct {
	counters map[string]int64
}

func newStubRedis() *stubRedis {
	return &stubRedis{counters: make(map[string]int64)}
}

func (s *stubRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	s.counters[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(s.counters[key])
	return cmd
}

func (s *stubRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(s.counters, key)
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func newTestService() (*Service, *stubUserRepo, *stubRedis) {
	repo := newStubUserRepo()
	rds := newStubRedis()
	jwtMgr := auth.NewJWTManager(testSecret, 48*time.Hour)
	return NewService(repo, rds, jwtMgr), repo, rds
}

func TestRegisterThenLoginRoundtrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	fire := transport.TypeFire
	reg, err := svc.Register(ctx, "worker@example.com", testPassword, &fire)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.IsDispatcher {
		t.Fatal("new registrations must default to worker")
	}

	login, err := svc.Login(ctx, "worker@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.JWT().ParseAndValidate(login.AccessToken)
	if err != nil {
		t.Fatalf("token validate: %v", err)
	}
	id, err := claims.SubjectID()
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected subject 1, got %d", id)
	}
	if claims.Role != string(RoleWorker) {
		t.Fatalf("expected worker role claim, got %s", claims.Role)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	if _, err := svc.Register(ctx, "dup@example.com", testPassword, nil); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "dup@example.com", testPassword, nil); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("duplicate registration must not create a row, have %d", len(repo.users))
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	if _, err := svc.Register(ctx, "known@example.com", testPassword, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPass := svc.Login(ctx, "known@example.com", "Wrong-Password-123!")
	_, unknownUser := svc.Login(ctx, "unknown@example.com", testPassword)

	if wrongPass != ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if unknownUser != ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Fatal("login failures must not reveal whether the email exists")
	}
}

func TestLoginThrottleLocksAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, rds := newTestService()

	if _, err := svc.Register(ctx, "victim@example.com", testPassword, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < loginMaxAttempts; i++ {
		if _, err := svc.Login(ctx, "victim@example.com", "Wrong-Password-123!"); err != ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	if _, err := svc.Login(ctx, "victim@example.com", testPassword); err != ErrTooManyAttempts {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	if len(rds.counters) != 1 {
		t.Fatalf("expected one throttle counter, got %d", len(rds.counters))
	}
	if !strings.Contains(firstKey(rds.counters), "victim@example.com") {
		t.Fatal("throttle must be keyed by email")
	}
}

func TestLoginSuccessClearsThrottle(t *testing.T) {
	ctx := context.Background()
	svc, _, rds := newTestService()

	if _, err := svc.Register(ctx, "ok@example.com", testPassword, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "ok@example.com", "Wrong-Password-123!"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ok@example.com", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	if len(rds.counters) != 0 {
		t.Fatal("successful login must clear the failure counter")
	}
}

func firstKey(m map[string]int64) string {
	for k := range m {
		return k
	}
	return ""
}
