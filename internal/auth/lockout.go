package auth

import "time"

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 2 * time.Hour
)

type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: DefaultMaxLoginAttempts, Duration: DefaultLockDuration}
}

func (p LockoutPolicy) normalized() LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxLoginAttempts
	}
	if p.Duration <= 0 {
		p.Duration = DefaultLockDuration
	}
	return p
}

// LoginState is the persisted lockout state of one account.
type LoginState struct {
	FailedCount int32
	LockUntil   *time.Time
}

func (s LoginState) Locked(now time.Time) bool {
	return s.LockUntil != nil && s.LockUntil.After(now)
}

// AfterFailure returns the state following one failed attempt at now.
//
// An expired lock restarts the counter at 1 and clears the lock. Otherwise
// the counter is incremented and, once it reaches MaxAttempts while no lock
// is in force, the account is locked until now+Duration.
//
// repository.RecordFailedLogin performs the same transition in a single
// UPDATE statement; keep the two in step.
func (p LockoutPolicy) AfterFailure(s LoginState, now time.Time) LoginState {
	p = p.normalized()
	if s.LockUntil != nil && !s.LockUntil.After(now) {
		return LoginState{FailedCount: 1}
	}
	next := LoginState{FailedCount: s.FailedCount + 1, LockUntil: s.LockUntil}
	if int(next.FailedCount) >= p.MaxAttempts && !s.Locked(now) {
		until := now.Add(p.Duration)
		next.LockUntil = &until
	}
	return next
}
