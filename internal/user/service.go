package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/speoper/dispatch/internal/auth"
	"github.com/speoper/dispatch/internal/transport"
)

const (
	loginMaxAttempts   = 5
	loginAttemptWindow = 15 * time.Minute
)

type repository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, email, passwordHash string, serviceType *transport.Type) (User, error)
}

type redisCommander interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Service concentrates registration and authentication rules.
type Service struct {
	repo  repository
	redis redisCommander
	jwt   *auth.JWTManager
}

// NewService builds the auth service.
func NewService(repo repository, redisClient redisCommander, jwtMgr *auth.JWTManager) *Service {
	return &Service{repo: repo, redis: redisClient, jwt: jwtMgr}
}

// JWT exposes the token manager (used by middlewares).
func (s *Service) JWT() *auth.JWTManager {
	return s.jwt
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	if err := s.checkThrottle(ctx, email); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Msg("login: user not found")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, u.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: wrong password")
		return nil, ErrInvalidCredentials
	}

	s.clearFailures(ctx, email)
	return s.issueToken(u)
}

// Register creates a worker account and issues its first token.
func (s *Service) Register(ctx context.Context, email, password string, serviceType *transport.Type) (*TokenResult, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, email, hash, serviceType)
	if err != nil {
		return nil, err
	}

	return s.issueToken(u)
}

// GetByID loads the full user record for a token subject.
func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) issueToken(u User) (*TokenResult, error) {
	token, err := s.jwt.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	return &TokenResult{
		AccessToken:  token,
		IsDispatcher: u.Role == RoleDispatcher,
	}, nil
}

func loginFailKey(email string) string {
	return fmt.Sprintf("login:fail:%s", email)
}

// checkThrottle counts login attempts per email; the counter is cleared on
// a successful login, so only sustained failures trip the limit.
func (s *Service) checkThrottle(ctx context.Context, email string) error {
	if s.redis == nil {
		return nil
	}
	attempts, err := s.redis.Incr(ctx, loginFailKey(email)).Result()
	if err != nil {
		log.Warn().Err(err).Msg("login throttle unavailable")
		return nil
	}
	if attempts == 1 {
		s.redis.Expire(ctx, loginFailKey(email), loginAttemptWindow)
	}
	if attempts > loginMaxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

func (s *Service) clearFailures(ctx context.Context, email string) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, loginFailKey(email))
}
