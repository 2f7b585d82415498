package repository

import (
	"context"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
)

func (r *Repository) CountSuggestions(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// StatusCounts always returns one entry per status, zeros included.
func (r *Repository) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	query := `SELECT status, COUNT(*) FROM suggestions GROUP BY status`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.SuggestionStatus]int64)
	for rows.Next() {
		var (
			status domain.SuggestionStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]domain.StatusCount, 0, len(domain.SuggestionStatuses))
	for _, status := range domain.SuggestionStatuses {
		result = append(result, domain.StatusCount{Status: status, Count: counts[status]})
	}
	return result, nil
}

// PriorityCounts always returns one entry per priority, zeros included.
func (r *Repository) PriorityCounts(ctx context.Context) ([]domain.PriorityCount, error) {
	query := `SELECT priority, COUNT(*) FROM suggestions GROUP BY priority`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Priority]int64)
	for rows.Next() {
		var (
			priority domain.Priority
			n        int64
		)
		if err := rows.Scan(&priority, &n); err != nil {
			return nil, err
		}
		counts[priority] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]domain.PriorityCount, 0, len(domain.Priorities))
	for _, priority := range domain.Priorities {
		result = append(result, domain.PriorityCount{Priority: priority, Count: counts[priority]})
	}
	return result, nil
}

// CategoryStats breaks suggestions down by active category and status.
func (r *Repository) CategoryStats(ctx context.Context) ([]domain.CategoryStat, error) {
	query := `
		SELECT
			c.id, c.name,
			COUNT(s.id),
			COUNT(s.id) FILTER (WHERE s.status = 'Pending'),
			COUNT(s.id) FILTER (WHERE s.status = 'Reviewed'),
			COUNT(s.id) FILTER (WHERE s.status = 'Resolved'),
			COUNT(s.id) FILTER (WHERE s.status = 'Escalated')
		FROM categories c
		LEFT JOIN suggestions s ON s.category_id = c.id
		WHERE c.is_active = TRUE
		GROUP BY c.id, c.name, c.display_order
		ORDER BY COUNT(s.id) DESC, c.display_order, c.name
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]domain.CategoryStat, 0)
	for rows.Next() {
		var s domain.CategoryStat
		dst := []any{&s.CategoryID, &s.Category, &s.Count, &s.Pending, &s.Reviewed, &s.Resolved, &s.Escalated}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// CategoryCountsSince counts suggestions per category created at or after since.
// Categories with no suggestions in the window are omitted.
func (r *Repository) CategoryCountsSince(ctx context.Context, since time.Time) ([]domain.CategoryCount, error) {
	query := `
		SELECT c.id, c.name, COUNT(*)
		FROM suggestions s
		JOIN categories c ON c.id = s.category_id
		WHERE s.created_at >= $1
		GROUP BY c.id, c.name
		ORDER BY COUNT(*) DESC, c.name
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.CategoryCount, 0)
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.CategoryID, &c.Category, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *Repository) CountReplied(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestions WHERE reply <> ''`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// MonthlyCountsSince groups suggestions by calendar month (UTC).
func (r *Repository) MonthlyCountsSince(ctx context.Context, since time.Time) ([]domain.MonthlyCount, error) {
	query := `
		SELECT
			EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC')::int AS year,
			EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS month,
			COUNT(*)
		FROM suggestions
		WHERE created_at >= $1
		GROUP BY year, month
		ORDER BY year, month
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.MonthlyCount, 0)
	for rows.Next() {
		var m domain.MonthlyCount
		if err := rows.Scan(&m.Year, &m.Month, &m.Count); err != nil {
			return nil, err
		}
		counts = append(counts, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *Repository) PublicStats(ctx context.Context) (*domain.PublicStats, error) {
	total, err := r.CountSuggestions(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := r.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := r.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.PublicStats{Total: total, Categories: categories, Statuses: statuses}, nil
}

// DashboardStats gathers the admin overview. The trend covers the last
// months calendar months including the current one.
func (r *Repository) DashboardStats(ctx context.Context, now time.Time, months, recent int) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{}
	var err error

	if stats.Total, err = r.CountSuggestions(ctx); err != nil {
		return nil, err
	}
	if stats.Statuses, err = r.StatusCounts(ctx); err != nil {
		return nil, err
	}
	if stats.Priorities, err = r.PriorityCounts(ctx); err != nil {
		return nil, err
	}
	if stats.Categories, err = r.CategoryCountsSince(ctx, time.Time{}); err != nil {
		return nil, err
	}
	if stats.Replied, err = r.CountReplied(ctx); err != nil {
		return nil, err
	}
	stats.ResponseRate = domain.ResponseRatePercent(stats.Replied, stats.Total)

	now = now.UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	if stats.MonthlyTrend, err = r.MonthlyCountsSince(ctx, since); err != nil {
		return nil, err
	}
	if stats.Recent, err = r.RecentSuggestions(ctx, recent); err != nil {
		return nil, err
	}

	return stats, nil
}
