package handler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/query"
)

const maxExportRows = 10000

var exportHeader = []string{
	"ID", "Category", "Subcategory", "Suggestion", "Status", "Priority",
	"Reply", "Tags", "Assigned To", "Estimated Resolution", "Created Date", "Last Updated",
}

// ExportSuggestions streams the filtered suggestions as CSV. Filters use the
// same names and rules as the list endpoint.
func (h *Handler) ExportSuggestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format  string            `json:"format" validate:"omitempty,oneof=csv"`
		Filters map[string]string `json:"filters"`
	}
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	values := url.Values{}
	for k, v := range req.Filters {
		values.Set(k, v)
	}
	q, err := query.ParseSuggestionQuery(r.Context(), values, h.repository)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	suggestions, err := h.repository.ExportSuggestions(r.Context(), q, maxExportRows)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("suggestions_export_%s.csv", h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		slog.Error("csv export failed", "error", err)
		return
	}
	for _, s := range suggestions {
		if err := cw.Write(exportRecord(s)); err != nil {
			slog.Error("csv export failed", "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("csv export failed", "error", err)
	}
}

func exportRecord(s *domain.Suggestion) []string {
	estimated := ""
	if s.EstimatedResolutionDate != nil {
		estimated = s.EstimatedResolutionDate.UTC().Format(time.DateOnly)
	}
	return []string{
		fmt.Sprint(s.ID),
		s.CategoryName,
		s.SubcategoryName,
		csvSafe(s.Text),
		string(s.Status),
		string(s.Priority),
		csvSafe(s.Reply),
		csvSafe(strings.Join(s.Tags, "; ")),
		csvSafe(s.AssignedTo),
		estimated,
		s.CreatedAt.UTC().Format(time.RFC3339),
		s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// csvSafe neutralises values a spreadsheet would treat as a formula.
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
