package handler

import "net/http"

const (
	dashboardTrendMonths = 6
	dashboardRecentCount = 10
)

func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repository.DashboardStats(r.Context(), h.now().UTC(), dashboardTrendMonths, dashboardRecentCount)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Dashboard statistics retrieved", stats)
}
