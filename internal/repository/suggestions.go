package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/query"
)

const suggestionSelect = `
	SELECT
		s.id, s.category_id, c.name, s.subcategory_id, sc.name,
		s.suggestion_text, s.status, s.reply, s.priority, s.tags, s.assigned_to,
		s.estimated_resolution_date, s.actual_resolution_date, s.created_at, s.updated_at
	FROM suggestions s
	JOIN categories c ON c.id = s.category_id
	JOIN subcategories sc ON sc.id = s.subcategory_id
`

var sortColumns = map[query.SortField]string{
	query.SortCreatedAt: "s.created_at",
	query.SortUpdatedAt: "s.updated_at",
	query.SortStatus:    "s.status",
	query.SortPriority:  "CASE s.priority WHEN 'Low' THEN 1 WHEN 'Medium' THEN 2 WHEN 'High' THEN 3 WHEN 'Critical' THEN 4 END",
}

func scanSuggestion(row rowScanner) (*domain.Suggestion, error) {
	s := &domain.Suggestion{}
	var (
		tags                []byte
		estimated, resolved sql.NullTime
	)
	dst := []any{
		&s.ID, &s.CategoryID, &s.CategoryName, &s.SubcategoryID, &s.SubcategoryName,
		&s.Text, &s.Status, &s.Reply, &s.Priority, &tags, &s.AssignedTo,
		&estimated, &resolved, &s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	s.Tags = make([]string, 0)
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &s.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of suggestion %d: %w", s.ID, err)
		}
	}
	s.EstimatedResolutionDate = nullTime(estimated)
	s.ActualResolutionDate = nullTime(resolved)
	return s, nil
}

func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// CreateSuggestion inserts an anonymous submission. Category and subcategory
// ids must already be resolved against active records.
func (r *Repository) CreateSuggestion(ctx context.Context, s *domain.Suggestion) error {
	query := `
		INSERT INTO suggestions (category_id, subcategory_id, suggestion_text, status, priority, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reply, assigned_to, created_at, updated_at
	`

	if s.Status == "" {
		s.Status = domain.StatusPending
	}
	if s.Priority == "" {
		s.Priority = domain.PriorityMedium
	}
	tags, err := encodeTags(s.Tags)
	if err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{s.CategoryID, s.SubcategoryID, s.Text, s.Status, s.Priority, tags}
	dst := []any{&s.ID, &s.Reply, &s.AssignedTo, &s.CreatedAt, &s.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *Repository) GetSuggestion(ctx context.Context, id int64) (*domain.Suggestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	s, err := scanSuggestion(r.dbpool.QueryRowContext(ctx, suggestionSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// UpdateSuggestion writes every reviewer-editable field of s. A resolution
// date already stored is never overwritten; s receives the stored value.
func (r *Repository) UpdateSuggestion(ctx context.Context, s *domain.Suggestion) error {
	query := `
		UPDATE suggestions
		SET
			status = $1,
			reply = $2,
			priority = $3,
			tags = $4,
			assigned_to = $5,
			estimated_resolution_date = $6,
			actual_resolution_date = COALESCE(actual_resolution_date, $7),
			updated_at = $8
		WHERE id = $9
		RETURNING actual_resolution_date
	`

	tags, err := encodeTags(s.Tags)
	if err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{
		s.Status, s.Reply, s.Priority, tags, s.AssignedTo,
		s.EstimatedResolutionDate, s.ActualResolutionDate, s.UpdatedAt, s.ID,
	}
	var resolved sql.NullTime
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&resolved); err != nil {
		return mapError(err)
	}
	s.ActualResolutionDate = nullTime(resolved)
	return nil
}

func (r *Repository) DeleteSuggestion(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.execOne(ctx, `DELETE FROM suggestions WHERE id = $1`, id)
}

// suggestionFilter renders q as a WHERE clause with positional arguments.
func suggestionFilter(q *query.SuggestionQuery) (string, []any) {
	conds := make([]string, 0)
	args := make([]any, 0)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.CategoryID != nil {
		conds = append(conds, "s.category_id = "+arg(*q.CategoryID))
	}
	if len(q.SubcategoryIDs) > 0 {
		placeholders := make([]string, len(q.SubcategoryIDs))
		for i, id := range q.SubcategoryIDs {
			placeholders[i] = arg(id)
		}
		conds = append(conds, "s.subcategory_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if q.Status != nil {
		conds = append(conds, "s.status = "+arg(string(*q.Status)))
	}
	if q.Priority != nil {
		conds = append(conds, "s.priority = "+arg(string(*q.Priority)))
	}
	if q.Start != nil {
		conds = append(conds, "s.created_at >= "+arg(*q.Start))
	}
	if q.End != nil {
		conds = append(conds, "s.created_at <= "+arg(*q.End))
	}
	if q.Search != "" {
		p := arg("%" + escapeLike(q.Search) + "%")
		conds = append(conds, "(s.suggestion_text ILIKE "+p+" OR s.reply ILIKE "+p+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func suggestionOrder(q *query.SuggestionQuery) string {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = sortColumns[query.SortCreatedAt]
	}
	direction := "DESC"
	if !q.Desc {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, s.id %s", column, direction, direction)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListSuggestions returns one page of matching suggestions and the total
// number of matches.
func (r *Repository) ListSuggestions(ctx context.Context, q *query.SuggestionQuery) ([]*domain.Suggestion, int64, error) {
	if q.NoMatch {
		return []*domain.Suggestion{}, 0, nil
	}

	where, args := suggestionFilter(q)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int64
	countQuery := `SELECT COUNT(*) FROM suggestions s` + where
	if err := r.dbpool.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(q.Skip()) >= total {
		return []*domain.Suggestion{}, total, nil
	}

	n := len(args)
	pageQuery := suggestionSelect + where + suggestionOrder(q) + fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	items, err := r.querySuggestions(ctx, pageQuery, append(args, q.Limit, q.Skip())...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ExportSuggestions returns every match in q's order, capped at max rows.
func (r *Repository) ExportSuggestions(ctx context.Context, q *query.SuggestionQuery, max int) ([]*domain.Suggestion, error) {
	if q.NoMatch {
		return []*domain.Suggestion{}, nil
	}

	where, args := suggestionFilter(q)
	exportQuery := suggestionSelect + where + suggestionOrder(q) + fmt.Sprintf(" LIMIT $%d", len(args)+1)

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.querySuggestions(ctx, exportQuery, append(args, max)...)
}

func (r *Repository) RecentSuggestions(ctx context.Context, limit int) ([]*domain.Suggestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.querySuggestions(ctx, suggestionSelect+` ORDER BY s.created_at DESC, s.id DESC LIMIT $1`, limit)
}

func (r *Repository) querySuggestions(ctx context.Context, q string, args ...any) ([]*domain.Suggestion, error) {
	rows, err := r.dbpool.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.Suggestion, 0)
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// SuggestionContent is the free text of one suggestion, used by maintenance jobs.
type SuggestionContent struct {
	ID    int64
	Text  string
	Reply string
}

// SuggestionsWithEntities lists suggestions whose text or reply contains
// something that looks like an HTML entity.
func (r *Repository) SuggestionsWithEntities(ctx context.Context) ([]SuggestionContent, error) {
	query := `
		SELECT id, suggestion_text, reply
		FROM suggestions
		WHERE suggestion_text ~ '&(#[0-9]+|#x[0-9a-fA-F]+|[a-zA-Z]+);'
		   OR reply ~ '&(#[0-9]+|#x[0-9a-fA-F]+|[a-zA-Z]+);'
		ORDER BY id
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]SuggestionContent, 0)
	for rows.Next() {
		var c SuggestionContent
		if err := rows.Scan(&c.ID, &c.Text, &c.Reply); err != nil {
			return nil, err
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *Repository) UpdateSuggestionContent(ctx context.Context, c SuggestionContent) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `UPDATE suggestions SET suggestion_text = $1, reply = $2 WHERE id = $3`
	return r.execOne(ctx, query, c.Text, c.Reply, c.ID)
}

// InsertSuggestionAt stores a suggestion with explicit timestamps. It exists
// for seeding sample data.
func (r *Repository) InsertSuggestionAt(ctx context.Context, s *domain.Suggestion) error {
	query := `
		INSERT INTO suggestions (
			category_id, subcategory_id, suggestion_text, status, reply, priority, tags,
			assigned_to, actual_resolution_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id
	`

	tags, err := encodeTags(s.Tags)
	if err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{
		s.CategoryID, s.SubcategoryID, s.Text, s.Status, s.Reply, s.Priority, tags,
		s.AssignedTo, s.ActualResolutionDate, s.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.ID); err != nil {
		return mapError(err)
	}
	s.UpdatedAt = s.CreatedAt
	return nil
}
