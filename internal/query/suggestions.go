package query

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MaxSearchLen = 200

	// MaxPage keeps the row offset within a 32-bit integer at MaxLimit.
	MaxPage = math.MaxInt32 / MaxLimit
)

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortStatus    SortField = "status"
	SortPriority  SortField = "priority"
)

func (f SortField) valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortStatus, SortPriority:
		return true
	}
	return false
}

// CategoryResolver maps client supplied names onto active category records.
// Lookups that find nothing return domain.ErrNotFound.
type CategoryResolver interface {
	ActiveCategoryID(ctx context.Context, name string) (int64, error)
	// ActiveSubcategoryIDs returns every active subcategory with that name,
	// restricted to categoryID when it is non-zero.
	ActiveSubcategoryIDs(ctx context.Context, categoryID int64, name string) ([]int64, error)
}

// SuggestionQuery is a validated filter, sort and page over suggestions.
type SuggestionQuery struct {
	CategoryID     *int64
	SubcategoryIDs []int64
	Status         *domain.SuggestionStatus
	Priority       *domain.Priority
	Start          *time.Time
	End            *time.Time
	Search         string

	SortBy SortField
	Desc   bool

	Page  int
	Limit int

	// NoMatch is set when a named category or subcategory does not exist;
	// such a query returns an empty page without touching the store.
	NoMatch bool
}

func NewSuggestionQuery() *SuggestionQuery {
	return &SuggestionQuery{
		SortBy: SortCreatedAt,
		Desc:   true,
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}
}

func (q *SuggestionQuery) Skip() int {
	page, limit := min(max(q.Page, 1), MaxPage), min(max(q.Limit, 1), MaxLimit)
	return (page - 1) * limit
}

// ParseSuggestionQuery builds a query from untrusted parameters. Parameters
// it does not know are ignored.
func ParseSuggestionQuery(ctx context.Context, values url.Values, resolver CategoryResolver) (*SuggestionQuery, error) {
	q := NewSuggestionQuery()
	verr := &domain.ValidationError{}

	if v := strings.TrimSpace(values.Get("status")); v != "" && v != "all" {
		status := domain.SuggestionStatus(v)
		if !validStatus(status) {
			verr.Add("status", "Invalid status", v)
		} else {
			q.Status = &status
		}
	}

	if v := strings.TrimSpace(values.Get("priority")); v != "" && v != "all" {
		priority := domain.Priority(v)
		if !validPriority(priority) {
			verr.Add("priority", "Invalid priority", v)
		} else {
			q.Priority = &priority
		}
	}

	if v := strings.TrimSpace(values.Get("startDate")); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			verr.Add("startDate", "Start date must be an ISO 8601 date", v)
		} else {
			q.Start = &t
		}
	}

	if v := strings.TrimSpace(values.Get("endDate")); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			verr.Add("endDate", "End date must be an ISO 8601 date", v)
		} else {
			if dateOnly {
				// stored timestamps have microsecond precision
				t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
			}
			q.End = &t
		}
	}

	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		verr.Add("endDate", "End date must not be before start date", values.Get("endDate"))
	}

	if v := strings.TrimSpace(values.Get("search")); v != "" {
		if len(v) > MaxSearchLen {
			verr.Add("search", "Search term is too long", nil)
		} else {
			q.Search = v
		}
	}

	if v := strings.TrimSpace(values.Get("sortBy")); v != "" {
		if f := SortField(v); f.valid() {
			q.SortBy = f
		}
	}
	if strings.EqualFold(strings.TrimSpace(values.Get("sortOrder")), "asc") {
		q.Desc = false
	}

	q.Page = min(positiveInt(values.Get("page"), DefaultPage), MaxPage)
	q.Limit = positiveInt(values.Get("limit"), DefaultLimit)
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := q.resolveCategories(ctx, values, resolver); err != nil {
		return nil, err
	}

	return q, nil
}

func (q *SuggestionQuery) resolveCategories(ctx context.Context, values url.Values, resolver CategoryResolver) error {
	category := strings.TrimSpace(values.Get("category"))
	subcategory := strings.TrimSpace(values.Get("subcategory"))
	if category == "all" {
		category = ""
	}
	if subcategory == "all" {
		subcategory = ""
	}

	var categoryID int64
	if category != "" {
		id, err := resolver.ActiveCategoryID(ctx, category)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				q.NoMatch = true
				return nil
			}
			return err
		}
		categoryID = id
		q.CategoryID = &id
	}

	if subcategory != "" {
		ids, err := resolver.ActiveSubcategoryIDs(ctx, categoryID, subcategory)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if len(ids) == 0 {
			q.NoMatch = true
			return nil
		}
		q.SubcategoryIDs = ids
	}
	return nil
}

// Pagination is the page metadata returned next to a result list.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

func NewPagination(page, limit int, total int64) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

func positiveInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func validStatus(s domain.SuggestionStatus) bool {
	for _, v := range domain.SuggestionStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func validPriority(p domain.Priority) bool {
	for _, v := range domain.Priorities {
		if v == p {
			return true
		}
	}
	return false
}
