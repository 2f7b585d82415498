package handler

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/auth"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/config"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/metrics"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/repository"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/redis/go-redis/v9"
)

// AccountMailer notifies a newly created administrator.
type AccountMailer interface {
	SendAccountCreated(ctx context.Context, account *domain.Account, password string) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	auth        *auth.Service
	translator  ut.Translator
	mailer      AccountMailer
	redisClient *redis.Client
	limiter     *ipRateLimiter
	now         func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, authService *auth.Service, mailer AccountMailer, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := registerCustomValidations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		auth:        authService,
		translator:  trans,
		mailer:      mailer,
		redisClient: rdb,
		limiter:     newIPRateLimiter(float64(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst),
		now:         time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(metrics.Instrument)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.rateLimit)
	h.Mux.Use(h.limitBody)

	h.Mux.Method("GET", "/metrics", metrics.Handler())

	h.Mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.With(h.sanitize).Post("/login", h.Login)
			r.Post("/verify", h.Verify)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
			r.Route("/reset-password", func(r chi.Router) {
				r.Use(h.sanitize)
				r.Post("/require", h.RequireResetPassword)
				r.Post("/confirm", h.ConfirmResetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.authenticate)
				r.Get("/profile", h.GetProfile)
				r.With(h.sanitize).Post("/change-password", h.ChangePassword)
			})
		})

		// anonymous submission surface
		r.Route("/suggestions", func(r chi.Router) {
			r.Get("/categories", h.GetCategories)
			r.With(h.stripIdentifyingHeaders).Post("/submit", h.SubmitSuggestion)
			r.Get("/stats", h.GetPublicStats)
			r.Get("/recent", h.GetRecentStats)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authenticate)

			r.Route("/suggestions", func(r chi.Router) {
				r.With(h.requirePermission(domain.PermViewSuggestions)).Get("/", h.ListSuggestions)
				r.Route("/{id}", func(r chi.Router) {
					r.With(h.requirePermission(domain.PermViewSuggestions), h.suggestionCtx).Get("/", h.GetSuggestion)
					r.With(h.requirePermission(domain.PermEditSuggestions), h.sanitize, h.suggestionCtx).Put("/", h.UpdateSuggestion)
					r.With(h.requirePermission(domain.PermDeleteSuggestions)).Delete("/", h.DeleteSuggestion)
				})
			})

			r.With(h.requirePermission(domain.PermViewAnalytics)).Get("/dashboard/stats", h.GetDashboardStats)
			r.With(h.requirePermission(domain.PermExportData)).Post("/export", h.ExportSuggestions)

			r.Route("/admins", func(r chi.Router) {
				r.With(h.canManageAdmins).Get("/", h.ListAdmins)
				r.With(h.requirePermission(domain.PermViewSuggestions)).Get("/names", h.ListAdminNames)
				r.With(h.canManageAdmins).Post("/", h.CreateAdmin)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.canManageAdmins)
					r.Use(h.targetAccountCtx)
					r.Put("/", h.UpdateAdmin)
					r.Patch("/status", h.SetAdminStatus)
				})
			})
		})
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func registerCustomValidations(validate *validator.Validate, trans ut.Translator) error {
	rules := []struct {
		tag     string
		fn      validator.Func
		message string
	}{
		{
			tag: "strongpassword",
			fn: func(fl validator.FieldLevel) bool {
				return utils.IsStrongPassword(fl.Field().String())
			},
			message: "{0} must be at least 8 characters and contain an uppercase letter, a lowercase letter, a number and one of @$!%*?&",
		},
		{
			tag: "freetext",
			fn: func(fl validator.FieldLevel) bool {
				v := strings.TrimSpace(fl.Field().String())
				return v == "" || utils.IsFreeText(v)
			},
			message: "{0} contains invalid characters",
		},
		{
			tag: "personname",
			fn: func(fl validator.FieldLevel) bool {
				return utils.IsPersonName(fl.Field().String())
			},
			message: "{0} can only contain letters and spaces",
		},
		{
			tag: "role",
			fn: func(fl validator.FieldLevel) bool {
				return domain.Role(fl.Field().String()).Valid()
			},
			message: "Invalid role selected",
		},
	}

	for _, rule := range rules {
		if err := validate.RegisterValidation(rule.tag, rule.fn); err != nil {
			return err
		}
		message := rule.message
		tag := rule.tag
		err := validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}
