package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultResetCodeTTL = 15 * time.Minute

	// MaxResetAttempts wrong guesses burn the outstanding code.
	MaxResetAttempts = 5
)

var ErrInvalidResetCode = domain.NewValidationError("otp", "Invalid or expired verification code")

// CodeStore keeps short-lived one-time codes. Get returns domain.ErrNotFound
// for a missing or expired key. Incr bumps a counter, giving it ttl when the
// counter is new.
type CodeStore interface {
	Set(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

// ResetNotifier delivers a reset code to the account owner.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, account *domain.Account, code string, ttl time.Duration) error
}

// WithPasswordReset enables RequestPasswordReset and ConfirmPasswordReset.
func WithPasswordReset(codes CodeStore, notifier ResetNotifier, generate func() string, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl <= 0 {
			ttl = DefaultResetCodeTTL
		}
		s.codes = codes
		s.notifier = notifier
		s.generateCode = generate
		s.resetTTL = ttl
	}
}

func resetKey(email string) string {
	return fmt.Sprintf("otp_%s_reset_password", email)
}

func resetAttemptsKey(email string) string {
	return resetKey(email) + "_attempts"
}

// RequestPasswordReset stores a fresh code and sends it out. Unknown and
// inactive emails succeed silently so the endpoint does not reveal which
// accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s.codes == nil || s.notifier == nil || s.generateCode == nil {
		return errors.New("password reset is not configured")
	}
	email = domain.NormalizeEmail(email)
	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if !account.IsActive {
		return nil
	}

	code := s.generateCode()
	if err := s.codes.Del(ctx, resetAttemptsKey(email)); err != nil {
		return fmt.Errorf("clear reset attempts: %w", err)
	}
	if err := s.codes.Set(ctx, resetKey(email), code, s.resetTTL); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	if err := s.notifier.SendPasswordReset(ctx, account, code, s.resetTTL); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

// ConfirmPasswordReset checks code and replaces the password, which also
// lifts any lockout. The code is single use and is discarded after
// MaxResetAttempts wrong guesses.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, next string) error {
	if s.codes == nil {
		return errors.New("password reset is not configured")
	}
	email = domain.NormalizeEmail(email)
	key, attemptsKey := resetKey(email), resetAttemptsKey(email)

	stored, err := s.codes.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, err := s.codes.Incr(ctx, attemptsKey, s.resetTTL)
		if err != nil {
			return fmt.Errorf("count reset attempts: %w", err)
		}
		if attempts >= MaxResetAttempts {
			if err := s.codes.Del(ctx, key, attemptsKey); err != nil {
				return fmt.Errorf("discard reset code: %w", err)
			}
		}
		return ErrInvalidResetCode
	}

	account, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	if err := s.SetPassword(ctx, account.ID, next); err != nil {
		return err
	}
	return s.codes.Del(ctx, key, attemptsKey)
}

// RedisCodeStore is a CodeStore on Redis. Every call is bounded by timeout.
type RedisCodeStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisCodeStore(client *redis.Client, timeout time.Duration) *RedisCodeStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisCodeStore{client: client, timeout: timeout}
}

func (r *RedisCodeStore) Set(ctx context.Context, key, code string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Set(ctx, key, code, ttl).Err()
}

func (r *RedisCodeStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	code, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return code, err
}

func (r *RedisCodeStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (r *RedisCodeStore) Del(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Del(ctx, keys...).Err()
}
