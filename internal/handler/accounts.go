package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/utils"
)

func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repository.ListAccounts(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Admins retrieved", map[string]any{
		"admins": accounts,
		"total":  len(accounts),
	})
}

func (h *Handler) ListAdminNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.repository.ListAccountNames(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Admin names retrieved", map[string]any{"admins": names})
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string              `json:"email" validate:"required,email,max=254"`
		Password    string              `json:"password" validate:"omitempty,strongpassword"`
		Role        domain.Role         `json:"role" validate:"required,role"`
		FirstName   string              `json:"firstName" validate:"required,min=2,max=50,personname"`
		LastName    string              `json:"lastName" validate:"required,min=2,max=50,personname"`
		Permissions *domain.Permissions `json:"permissions"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// without an explicit password one is generated and mailed out
	password := req.Password
	generated := password == ""
	if generated {
		password = utils.GenerateRandomPassword(h.config.NewAccount.PasswordLength)
	}
	hash, err := h.auth.HashPassword(password)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	account := &domain.Account{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FirstName:    domain.NormalizeName(req.FirstName),
		LastName:     domain.NormalizeName(req.LastName),
		Permissions:  domain.DefaultPermissions(),
		IsActive:     true,
	}
	if req.Permissions != nil {
		account.Permissions = *req.Permissions
	}

	if err := h.repository.CreateAccount(r.Context(), account); err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			h.errorResponse(w, r, http.StatusConflict, "An admin with this email already exists")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	account.PasswordHash = ""

	if h.mailer != nil {
		mailed := ""
		if generated {
			mailed = password
		}
		if err := h.mailer.SendAccountCreated(r.Context(), account, mailed); err != nil {
			slog.Warn("failed to queue account created mail", "accountId", account.ID, "error", err)
		}
	}

	h.createdResponse(w, r, "Admin created successfully", account.Summary())
}

func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       *string             `json:"email" validate:"omitnil,email,max=254"`
		Password    *string             `json:"password" validate:"omitnil,strongpassword"`
		Role        *domain.Role        `json:"role" validate:"omitnil,role"`
		FirstName   *string             `json:"firstName" validate:"omitnil,min=2,max=50,personname"`
		LastName    *string             `json:"lastName" validate:"omitnil,min=2,max=50,personname"`
		Permissions *domain.Permissions `json:"permissions"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	caller := currentAccount(r)
	target := r.Context().Value(TargetAccountCtxKey).(*domain.Account)

	if req.Role != nil && *req.Role != target.Role && caller.ID == target.ID {
		h.badRequest(w, r, domain.NewValidationError("role", "You cannot change your own role"))
		return
	}

	if req.Email != nil {
		target.Email = *req.Email
	}
	if req.Role != nil {
		target.Role = *req.Role
	}
	if req.FirstName != nil {
		target.FirstName = domain.NormalizeName(*req.FirstName)
	}
	if req.LastName != nil {
		target.LastName = domain.NormalizeName(*req.LastName)
	}
	if req.Permissions != nil {
		target.Permissions = *req.Permissions
	}

	if err := h.repository.UpdateAccount(r.Context(), target); err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			h.errorResponse(w, r, http.StatusConflict, "Email already in use or admin was modified concurrently")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if req.Password != nil {
		if err := h.auth.SetPassword(r.Context(), target.ID, *req.Password); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "Admin updated successfully", target.Summary())
}

func (h *Handler) SetAdminStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive *bool `json:"isActive" validate:"required"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	caller := currentAccount(r)
	target := r.Context().Value(TargetAccountCtxKey).(*domain.Account)
	if caller.ID == target.ID {
		h.badRequest(w, r, domain.NewValidationError("isActive", "You cannot change your own status"))
		return
	}

	updated, err := h.repository.SetAccountStatus(r.Context(), target.ID, *req.IsActive)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updated.PasswordHash = ""

	msg := "Admin deactivated successfully"
	if updated.IsActive {
		msg = "Admin activated successfully"
	}
	h.successResponse(w, r, msg, map[string]any{
		"id":       updated.ID,
		"isActive": updated.IsActive,
		"admin":    updated.Summary(),
	})
}
