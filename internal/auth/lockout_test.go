package auth

import (
	"testing"
	"time"
)

func TestLockoutPolicyAfterFailure(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	policy := DefaultLockoutPolicy()

	tests := []struct {
		name       string
		in         LoginState
		wantCount  int32
		wantLocked bool
		wantUntil  *time.Time
	}{
		{name: "first failure", in: LoginState{}, wantCount: 1},
		{name: "fourth failure stays unlocked", in: LoginState{FailedCount: 3}, wantCount: 4},
		{name: "fifth failure locks", in: LoginState{FailedCount: 4}, wantCount: 5, wantLocked: true},
		{name: "expired lock restarts at one", in: LoginState{FailedCount: 5, LockUntil: &past}, wantCount: 1},
		{name: "active lock keeps its expiry", in: LoginState{FailedCount: 5, LockUntil: &future}, wantCount: 6, wantLocked: true, wantUntil: &future},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.AfterFailure(tt.in, now)
			if got.FailedCount != tt.wantCount {
				t.Fatalf("count: want %d, got %d", tt.wantCount, got.FailedCount)
			}
			if got.Locked(now) != tt.wantLocked {
				t.Fatalf("locked: want %v, got %v", tt.wantLocked, got.Locked(now))
			}
			if tt.wantLocked && tt.wantUntil == nil && !got.LockUntil.Equal(now.Add(2*time.Hour)) {
				t.Fatalf("expected lock until %v, got %v", now.Add(2*time.Hour), got.LockUntil)
			}
			if tt.wantUntil != nil && !got.LockUntil.Equal(*tt.wantUntil) {
				t.Fatalf("expected lock to stay at %v, got %v", *tt.wantUntil, got.LockUntil)
			}
		})
	}
}

func TestLockoutPolicyNormalizesZeroValues(t *testing.T) {
	now := time.Now()
	got := LockoutPolicy{}.AfterFailure(LoginState{FailedCount: 4}, now)
	if !got.Locked(now) {
		t.Fatal("zero policy should fall back to the default threshold")
	}
}
