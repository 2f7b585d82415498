package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/auth"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/metrics"
)

func unauthenticatedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, auth.ErrAccountUnavailable):
		return "Account is inactive or locked"
	default:
		return "Authentication required"
	}
}

type sessionResponse struct {
	Token     string                `json:"token"`
	ExpiresAt time.Time             `json:"expiresAt"`
	Admin     domain.AccountSummary `json:"admin"`
}

func newSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, Admin: s.Account.Summary()}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountLocked):
			metrics.ObserveLogin(metrics.LoginLocked)
		case errors.Is(err, domain.ErrUnauthenticated):
			metrics.ObserveLogin(metrics.LoginInvalidCredentials)
		default:
			metrics.ObserveLogin(metrics.LoginError)
		}
		h.writeError(w, r, err)
		return
	}
	metrics.ObserveLogin(metrics.LoginSuccess)

	h.successResponse(w, r, "Login successful", newSessionResponse(session))
}

// tokenFromRequest prefers the bearer header and falls back to a JSON body
// of the form {"token": "..."}.
func (h *Handler) tokenFromRequest(r *http.Request) (string, error) {
	if token, ok := bearerToken(r); ok {
		return token, nil
	}
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.Token), nil
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokenFromRequest(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	account, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "Token is valid", map[string]any{
		"valid": true,
		"admin": account.Summary(),
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokenFromRequest(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	session, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "Token refreshed", newSessionResponse(session))
}

// Logout is acknowledged only; tokens are stateless and expire on their own.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "Logout successful", nil)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account := currentAccount(r)
	h.successResponse(w, r, "Profile retrieved", account.Summary())
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,strongpassword,nefield=CurrentPassword"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	account := currentAccount(r)
	if err := h.auth.ChangePassword(r.Context(), account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "Password changed successfully", nil)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// the answer is the same whether or not the address exists
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "If the email is registered, a verification code has been sent", nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email" validate:"required,email"`
		OTP         string `json:"otp" validate:"required,len=6,numeric"`
		NewPassword string `json:"newPassword" validate:"required,strongpassword"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.auth.ConfirmPasswordReset(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "Password has been reset", nil)
}

type componentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health reports the state of the database and, when configured, redis.
// componentDown logs a failed dependency check. The error text is only
// returned outside production.
func (h *Handler) componentDown(r *http.Request, name string, err error) componentHealth {
	slog.Error("health check failed", "component", name, "path", r.URL.Path, "error", err)
	c := componentHealth{Status: "down"}
	if !h.config.IsProduction() {
		c.Error = err.Error()
	}
	return c
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]componentHealth{}
	healthy := true

	if err := h.repository.Ping(ctx); err != nil {
		healthy = false
		checks["database"] = h.componentDown(r, "database", err)
	} else {
		checks["database"] = componentHealth{Status: "up"}
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			healthy = false
			checks["redis"] = h.componentDown(r, "redis", err)
		} else {
			checks["redis"] = componentHealth{Status: "up"}
		}
	}

	data := map[string]any{
		"status":      "OK",
		"timestamp":   h.now().UTC(),
		"environment": h.config.Environment,
		"checks":      checks,
	}
	if !healthy {
		data["status"] = "DEGRADED"
		h.writeJSON(w, r, http.StatusServiceUnavailable, Response{Success: false, Message: "Service degraded", Data: data})
		return
	}
	h.successResponse(w, r, "Service is healthy", data)
}
