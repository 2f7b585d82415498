package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// logger records one line per request. Client addresses are never logged.
func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Info("request handled", "status", rw.StatusCode, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				fmt.Print(string(debug.Stack()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limit := h.config.Server.MaxBodyBytes; limit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

const maxTrackedClients = 10000

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= maxTrackedClients {
			l.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter.Allow()
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.allow(clientIP(r, h.config.Security.TrustedProxies)) {
			h.errorResponse(w, r, http.StatusTooManyRequests, "Too many requests from this IP, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys on the socket address. With trustedProxies > 0 it takes the
// X-Forwarded-For entry appended by the outermost trusted proxy; entries to
// its left are client controlled and never used.
func clientIP(r *http.Request, trustedProxies int) string {
	if trustedProxies > 0 {
		var hops []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					hops = append(hops, part)
				}
			}
		}
		if len(hops) >= trustedProxies {
			return hops[len(hops)-trustedProxies]
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var identifyingHeaders = []string{
	"X-Forwarded-For",
	"X-Real-Ip",
	"Forwarded",
	"Via",
	"User-Agent",
	"Referer",
	"Cookie",
	"Authorization",
}

// stripIdentifyingHeaders drops everything that could tie an anonymous
// submission to its sender before the handler runs.
func (h *Handler) stripIdentifyingHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, name := range identifyingHeaders {
			r.Header.Del(name)
		}
		r.RemoteAddr = ""
		next.ServeHTTP(w, r)
	})
}

var sanitizeExempt = map[string]bool{
	"suggestionText":  true,
	"reply":           true,
	"firstName":       true,
	"lastName":        true,
	"password":        true,
	"currentPassword": true,
	"newPassword":     true,
	"token":           true,
	"otp":             true,
}

// sanitize escapes markup in every JSON string value of the body except the
// exempt fields. Bodies that do not parse are passed on untouched.
func (h *Handler) sanitize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.errorResponse(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			h.badRequest(w, r, err)
			return
		}

		body := raw
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var payload any
		if len(bytes.TrimSpace(raw)) > 0 && dec.Decode(&payload) == nil {
			if cleaned, err := json.Marshal(utils.Sanitize(payload, sanitizeExempt)); err == nil {
				body = cleaned
			}
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			h.errorResponse(w, r, http.StatusUnauthorized, "Access token required")
			return
		}

		account, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), AccountCtxKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requirePermission admits callers holding the named permission flag. Role
// plays no part in the decision.
func (h *Handler) requirePermission(p domain.Permission) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := currentAccount(r)
			if account == nil {
				h.errorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !account.Permissions.Has(p) {
				h.errorResponse(w, r, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireRole admits callers whose role is one of roles.
func (h *Handler) requireRole(roles ...domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := currentAccount(r)
			if account == nil {
				h.errorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, role := range roles {
				if account.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			h.errorResponse(w, r, http.StatusForbidden, "Access denied for your role")
		})
	}
}

func (h *Handler) canManageAdmins(next http.Handler) http.Handler {
	return h.requireRole(domain.RoleCOO)(next)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) suggestionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			h.badRequest(w, r, domain.NewValidationError("id", "Invalid suggestion ID"))
			return
		}

		suggestion, err := h.repository.GetSuggestion(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				h.errorResponse(w, r, http.StatusNotFound, "Suggestion not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), SuggestionCtxKey, suggestion)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) targetAccountCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			h.badRequest(w, r, domain.NewValidationError("id", "Invalid admin ID"))
			return
		}

		account, err := h.repository.GetAccountByID(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				h.errorResponse(w, r, http.StatusNotFound, "Admin not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		account.PasswordHash = ""

		ctx := context.WithValue(r.Context(), TargetAccountCtxKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
