package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenIssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "issuer", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	account := &domain.Account{ID: 42, Email: "cto@company.com", Role: domain.RoleCTO}

	token, expiresAt, err := issuer.Issue(account)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.AccountID != 42 || claims.Subject != "42" {
		t.Fatalf("unexpected identity: %d / %s", claims.AccountID, claims.Subject)
	}
	if claims.Email != account.Email || claims.Role != domain.RoleCTO {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	issuer, err := NewTokenIssuer("test-secret", "issuer", time.Hour, WithTokenClock(clock))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, _, err := issuer.Issue(&domain.Account{ID: 1, Email: "a@b.co", Role: domain.RoleHR})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	later, _ := NewTokenIssuer("test-secret", "issuer", time.Hour, WithTokenClock(func() time.Time {
		return now.Add(2 * time.Hour)
	}))
	if _, err := later.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !errors.Is(ErrTokenExpired, domain.ErrUnauthenticated) {
		t.Fatal("expired tokens must classify as unauthenticated")
	}
	claims, err := later.ParseIgnoringExpiry(token)
	if err != nil {
		t.Fatalf("ParseIgnoringExpiry: %v", err)
	}
	if claims.AccountID != 1 {
		t.Fatalf("unexpected account id %d", claims.AccountID)
	}
}

func TestTokenRejectsTamperingAndForeignIssuers(t *testing.T) {
	issuer, _ := NewTokenIssuer("test-secret", "issuer", time.Hour)
	token, _, err := issuer.Issue(&domain.Account{ID: 3, Email: "x@y.co", Role: domain.RoleCOO})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := issuer.Parse(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered signature: expected ErrInvalidToken, got %v", err)
	}
	if _, err := issuer.ParseIgnoringExpiry(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered signature ignoring expiry: expected ErrInvalidToken, got %v", err)
	}

	foreign, _ := NewTokenIssuer("test-secret", "someone-else", time.Hour)
	if _, err := foreign.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign issuer: expected ErrInvalidToken, got %v", err)
	}
	if _, err := foreign.ParseIgnoringExpiry(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign issuer ignoring expiry: expected ErrInvalidToken, got %v", err)
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{AccountID: 3, Email: "x@y.co", Role: domain.RoleCOO})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := issuer.Parse(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg none: expected ErrInvalidToken, got %v", err)
	}

	if _, err := issuer.Parse("   "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("blank token: expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("  ", "", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestPasswordHashingLifecycle(t *testing.T) {
	hash, err := HashPassword("S3cure!Pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("S3cure!Pass", hash) {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Fatal("expected wrong password to fail")
	}
	if VerifyPassword("S3cure!Pass", "not-a-bcrypt-hash") {
		t.Fatal("malformed hash must not verify")
	}
	if VerifyPassword("S3cure!Pass", "") {
		t.Fatal("empty hash must not verify")
	}
	if _, err := HashPassword("", bcrypt.MinCost); err == nil {
		t.Fatal("expected error for empty password")
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != bcrypt.MinCost {
		t.Fatalf("expected cost %d, got %d (%v)", bcrypt.MinCost, cost, err)
	}
}
