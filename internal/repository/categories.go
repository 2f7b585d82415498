package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
)

// ActiveCategoryID looks up an active category by exact name.
func (r *Repository) ActiveCategoryID(ctx context.Context, name string) (int64, error) {
	query := `SELECT id FROM categories WHERE name = $1 AND is_active = TRUE`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// ActiveSubcategoryIDs returns active subcategories named name whose parent
// category is active too. A non-zero categoryID restricts the search to it.
func (r *Repository) ActiveSubcategoryIDs(ctx context.Context, categoryID int64, name string) ([]int64, error) {
	query := `
		SELECT s.id
		FROM subcategories s
		JOIN categories c ON c.id = s.category_id
		WHERE s.name = $1 AND s.is_active = TRUE AND c.is_active = TRUE
		  AND ($2::bigint = 0 OR s.category_id = $2)
		ORDER BY s.id
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, name, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// ListActiveCategories returns active categories with their active
// subcategories, both in display order.
func (r *Repository) ListActiveCategories(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT
			c.id, c.name, c.description, c.icon, c.color, c.is_active, c.display_order, c.created_at,
			s.id, s.name, s.description, s.is_active, s.display_order, s.created_at
		FROM categories c
		LEFT JOIN subcategories s ON s.category_id = c.id AND s.is_active = TRUE
		WHERE c.is_active = TRUE
		ORDER BY c.display_order, c.name, s.display_order, s.name
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	var current *domain.Category
	for rows.Next() {
		var (
			c        domain.Category
			subID    sql.NullInt64
			subName  sql.NullString
			subDesc  sql.NullString
			subAct   sql.NullBool
			subOrder sql.NullInt32
			subAt    sql.NullTime
		)
		dst := []any{
			&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.IsActive, &c.Order, &c.CreatedAt,
			&subID, &subName, &subDesc, &subAct, &subOrder, &subAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if current == nil || current.ID != c.ID {
			c.Subcategories = make([]*domain.Subcategory, 0)
			current = &c
			categories = append(categories, current)
		}
		if subID.Valid {
			current.Subcategories = append(current.Subcategories, &domain.Subcategory{
				ID:          subID.Int64,
				CategoryID:  current.ID,
				Name:        subName.String,
				Description: subDesc.String,
				IsActive:    subAct.Bool,
				Order:       subOrder.Int32,
				CreatedAt:   subAt.Time,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *Repository) CountCategories(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpsertCategories writes the given categories and their subcategories in
// one transaction. Existing rows keep their ids and are reactivated.
func (r *Repository) UpsertCategories(ctx context.Context, categories []*domain.Category) error {
	categoryQuery := `
		INSERT INTO categories (name, description, icon, color, is_active, display_order)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			color = EXCLUDED.color,
			is_active = TRUE,
			display_order = EXCLUDED.display_order
		RETURNING id, is_active, created_at
	`
	subcategoryQuery := `
		INSERT INTO subcategories (category_id, name, description, is_active, display_order)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (category_id, name) DO UPDATE
		SET description = EXCLUDED.description,
			is_active = TRUE,
			display_order = EXCLUDED.display_order
		RETURNING id, is_active, created_at
	`

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range categories {
		args := []any{c.Name, c.Description, c.Icon, c.Color, c.Order}
		if err := tx.QueryRowContext(ctx, categoryQuery, args...).Scan(&c.ID, &c.IsActive, &c.CreatedAt); err != nil {
			return fmt.Errorf("upsert category %q: %w", c.Name, mapError(err))
		}
		for _, s := range c.Subcategories {
			s.CategoryID = c.ID
			args := []any{c.ID, s.Name, s.Description, s.Order}
			if err := tx.QueryRowContext(ctx, subcategoryQuery, args...).Scan(&s.ID, &s.IsActive, &s.CreatedAt); err != nil {
				return fmt.Errorf("upsert subcategory %q: %w", s.Name, mapError(err))
			}
		}
	}

	return tx.Commit()
}
