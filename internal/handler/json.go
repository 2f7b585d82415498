package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/go-playground/validator/v10"
)

const genericErrorMessage = "Something went wrong"

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			return ve
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("body", "Request body must not be empty")
		case errors.As(err, &maxBytesErr):
			return domain.NewValidationError("body", fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesErr.Limit))
		default:
			return domain.NewValidationError("body", "Request body is not valid JSON")
		}
	}
	return nil
}

// decodeAndValidate reads the body into v and runs struct validation.
func (h *Handler) decodeAndValidate(r *http.Request, v any) error {
	if err := h.readJSON(r, v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: msg,
	})
}

// badRequest reports malformed input. Validator errors are translated per
// field; a domain.ValidationError is passed through as is.
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make([]domain.FieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fields = append(fields, domain.FieldError{
				Field:   fe.Field(),
				Message: fe.Translate(h.translator),
			})
		}
		h.writeJSON(w, r, http.StatusBadRequest, Response{
			Success: false,
			Message: fields[0].Message,
			Errors:  fields,
		})
		return
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		h.writeJSON(w, r, http.StatusBadRequest, Response{
			Success: false,
			Message: ve.Fields[0].Message,
			Errors:  ve.Fields,
		})
		return
	}

	h.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	msg := genericErrorMessage
	if !h.config.IsProduction() {
		msg = err.Error()
	}
	h.errorResponse(w, r, http.StatusInternalServerError, msg)
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &ve), errors.As(err, &fieldErrs):
		h.badRequest(w, r, err)
	case errors.Is(err, domain.ErrAccountLocked):
		h.errorResponse(w, r, http.StatusLocked, "Account is temporarily locked due to too many failed login attempts")
	case errors.Is(err, domain.ErrUnauthenticated):
		h.errorResponse(w, r, http.StatusUnauthorized, unauthenticatedMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		h.errorResponse(w, r, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, domain.ErrNotFound):
		h.errorResponse(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, domain.ErrConflict):
		h.errorResponse(w, r, http.StatusConflict, "Resource already exists or was modified concurrently")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) createdResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
