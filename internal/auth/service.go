package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
)

var (
	// ErrInvalidCredentials is returned for an unknown email, a wrong password
	// and a deactivated account alike.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	ErrAccountUnavailable = fmt.Errorf("%w: account inactive or locked", domain.ErrUnauthenticated)
)

// AccountStore is the persistence the service needs. Lookups return
// domain.ErrNotFound when nothing matches.
type AccountStore interface {
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	// RecordFailedLogin applies LockoutPolicy.AfterFailure atomically and
	// returns the resulting state.
	RecordFailedLogin(ctx context.Context, id int64, now time.Time, policy LockoutPolicy) (LoginState, error)
	ResetFailedLogins(ctx context.Context, id int64, lastLogin time.Time) error
	// UpdatePassword stores a new hash and clears any lockout state.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Service struct {
	store      AccountStore
	tokens     *TokenIssuer
	policy     LockoutPolicy
	bcryptCost int
	now        func() time.Time

	codes        CodeStore
	notifier     ResetNotifier
	generateCode func() string
	resetTTL     time.Duration

	dummyOnce sync.Once
	dummyHash string
}

type ServiceOption func(*Service)

func WithLockoutPolicy(p LockoutPolicy) ServiceOption {
	return func(s *Service) {
		s.policy = p.normalized()
	}
}

func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store AccountStore, tokens *TokenIssuer, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		tokens:     tokens,
		policy:     DefaultLockoutPolicy(),
		bcryptCost: DefaultBcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is the result of a successful login or refresh.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

func (s *Service) HashPassword(plaintext string) (string, error) {
	return HashPassword(plaintext, s.bcryptCost)
}

// Login checks credentials against the lockout state. A locked account is
// rejected with domain.ErrAccountLocked before the password is looked at.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.store.GetAccountByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// keep response time close to the wrong-password path
			VerifyPassword(password, s.placeholderHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if account.IsLocked(now) {
		return nil, domain.ErrAccountLocked
	}
	if !account.IsActive {
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(password, account.PasswordHash) {
		if _, err := s.store.RecordFailedLogin(ctx, account.ID, now, s.policy); err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.store.ResetFailedLogins(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("reset failed logins: %w", err)
	}
	account.FailedLoginCount = 0
	account.LockUntil = nil
	account.LastLogin = &now

	return s.issue(account)
}

// Authenticate verifies token and re-reads the account it names. The
// returned account never carries the password hash.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.liveAccount(ctx, claims.AccountID)
}

// Refresh accepts an expired but validly signed token and issues a new one
// while the account is still active and unlocked.
func (s *Service) Refresh(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.ParseIgnoringExpiry(token)
	if err != nil {
		return nil, err
	}
	account, err := s.liveAccount(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	return s.issue(account)
}

// ChangePassword replaces the password of an authenticated account after
// checking the current one.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAccountUnavailable
		}
		return err
	}
	if !VerifyPassword(current, account.PasswordHash) {
		return domain.NewValidationError("currentPassword", "Current password is incorrect")
	}
	return s.SetPassword(ctx, account.ID, next)
}

// SetPassword hashes and stores a new password without checking the old one.
func (s *Service) SetPassword(ctx context.Context, accountID int64, next string) error {
	hash, err := s.HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, accountID, hash)
}

func (s *Service) liveAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAccountUnavailable
		}
		return nil, err
	}
	if !account.IsActive || account.IsLocked(s.now()) {
		return nil, ErrAccountUnavailable
	}
	account.PasswordHash = ""
	return account, nil
}

func (s *Service) issue(account *domain.Account) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}
	account.PasswordHash = ""
	return &Session{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = HashPassword("placeholder-password", s.bcryptCost)
	})
	return s.dummyHash
}
