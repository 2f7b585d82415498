package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/metrics"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/query"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/utils"
)

const recentWindow = 30 * 24 * time.Hour

// GetCategories returns active category names mapped to their active
// subcategory names.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repository.ListActiveCategories(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	tree := make(map[string][]string, len(categories))
	for _, c := range categories {
		names := make([]string, 0, len(c.Subcategories))
		for _, s := range c.Subcategories {
			names = append(names, s.Name)
		}
		tree[c.Name] = names
	}

	h.successResponse(w, r, "Categories retrieved", map[string]any{"categories": tree})
}

// SubmitSuggestion stores an anonymous suggestion. Nothing about the sender
// is read or kept, and the response does not echo the stored record.
func (h *Handler) SubmitSuggestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category       string `json:"category" validate:"required,max=100"`
		Subcategory    string `json:"subcategory" validate:"required,max=100"`
		SuggestionText string `json:"suggestionText" validate:"required,min=10,max=2000,freetext"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Category = strings.TrimSpace(req.Category)
	req.Subcategory = strings.TrimSpace(req.Subcategory)
	req.SuggestionText = domain.NormalizeText(req.SuggestionText)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	categoryID, err := h.repository.ActiveCategoryID(r.Context(), req.Category)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.badRequest(w, r, domain.NewValidationError("category", "Invalid category selected"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	subcategoryIDs, err := h.repository.ActiveSubcategoryIDs(r.Context(), categoryID, req.Subcategory)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if len(subcategoryIDs) == 0 {
		h.badRequest(w, r, domain.NewValidationError("subcategory", "Invalid subcategory selected for this category"))
		return
	}

	suggestion := &domain.Suggestion{
		CategoryID:    categoryID,
		SubcategoryID: subcategoryIDs[0],
		Text:          req.SuggestionText,
		Status:        domain.StatusPending,
		Priority:      domain.PriorityMedium,
	}
	if err := h.repository.CreateSuggestion(r.Context(), suggestion); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	metrics.ObserveSubmission()

	h.createdResponse(w, r, "Your suggestion has been submitted anonymously. Thank you for your feedback!", nil)
}

func (h *Handler) GetPublicStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repository.PublicStats(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Statistics retrieved", struct {
		*domain.PublicStats
		LastUpdated time.Time `json:"lastUpdated"`
	}{stats, h.now().UTC()})
}

func (h *Handler) GetRecentStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repository.CategoryCountsSince(r.Context(), h.now().Add(-recentWindow))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}

	h.successResponse(w, r, "Recent statistics retrieved", map[string]any{
		"period":        "Last 30 days",
		"categoryStats": counts,
		"totalRecent":   total,
	})
}

func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	q, err := query.ParseSuggestionQuery(r.Context(), r.URL.Query(), h.repository)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	suggestions, total, err := h.repository.ListSuggestions(r.Context(), q)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Suggestions retrieved", map[string]any{
		"suggestions": suggestions,
		"pagination":  query.NewPagination(q.Page, q.Limit, total),
	})
}

func (h *Handler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	suggestion := r.Context().Value(SuggestionCtxKey).(*domain.Suggestion)
	h.successResponse(w, r, "Suggestion retrieved", suggestion)
}

// flexibleTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type flexibleTime struct {
	time.Time
}

func (t *flexibleTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return domain.NewValidationError("estimatedResolutionDate", "Estimated resolution date must be a valid date")
}

func (h *Handler) UpdateSuggestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status                  *domain.SuggestionStatus `json:"status" validate:"omitnil,oneof=Pending Reviewed Resolved Escalated"`
		Reply                   *string                  `json:"reply" validate:"omitnil,max=1000,freetext"`
		Priority                *domain.Priority         `json:"priority" validate:"omitnil,oneof=Low Medium High Critical"`
		Tags                    *[]string                `json:"tags"`
		AssignedTo              *string                  `json:"assignedTo" validate:"omitnil,max=100"`
		EstimatedResolutionDate *flexibleTime            `json:"estimatedResolutionDate"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	update := domain.SuggestionUpdate{
		Status:     req.Status,
		Reply:      req.Reply,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	}
	if req.Tags != nil {
		verr := &domain.ValidationError{}
		for _, tag := range *req.Tags {
			if !utils.IsTag(strings.TrimSpace(tag)) {
				verr.Add("tags", "Each tag must be 1-50 letters, numbers, spaces or hyphens", tag)
			}
		}
		if err := verr.OrNil(); err != nil {
			h.badRequest(w, r, err)
			return
		}
		update.Tags = *req.Tags
		update.TagsSet = true
	}
	if req.EstimatedResolutionDate != nil {
		d := req.EstimatedResolutionDate.Time
		update.EstimatedResolutionDate = &d
	}

	suggestion := r.Context().Value(SuggestionCtxKey).(*domain.Suggestion)
	recommendations := suggestion.Recommend(update)
	suggestion.Apply(update, h.now().UTC())

	if err := h.repository.UpdateSuggestion(r.Context(), suggestion); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.successResponse(w, r, "Suggestion updated successfully", map[string]any{
		"suggestion":      suggestion,
		"recommendations": recommendations,
	})
}

func (h *Handler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.badRequest(w, r, domain.NewValidationError("id", "Invalid suggestion ID"))
		return
	}

	if err := h.repository.DeleteSuggestion(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(w, r, http.StatusNotFound, "Suggestion not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Suggestion deleted successfully", nil)
}
