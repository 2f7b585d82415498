package domain

import (
	"strings"
	"time"
)

type SuggestionStatus string

const (
	StatusPending   SuggestionStatus = "Pending"
	StatusReviewed  SuggestionStatus = "Reviewed"
	StatusResolved  SuggestionStatus = "Resolved"
	StatusEscalated SuggestionStatus = "Escalated"
)

var SuggestionStatuses = []SuggestionStatus{StatusPending, StatusReviewed, StatusResolved, StatusEscalated}

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

type Suggestion struct {
	ID                      int64            `json:"id"`
	CategoryID              int64            `json:"categoryId"`
	CategoryName            string           `json:"category"`
	SubcategoryID           int64            `json:"subcategoryId"`
	SubcategoryName         string           `json:"subcategory"`
	Text                    string           `json:"suggestionText"`
	Status                  SuggestionStatus `json:"status"`
	Reply                   string           `json:"reply"`
	Priority                Priority         `json:"priority"`
	Tags                    []string         `json:"tags"`
	AssignedTo              string           `json:"assignedTo"`
	EstimatedResolutionDate *time.Time       `json:"estimatedResolutionDate"`
	ActualResolutionDate    *time.Time       `json:"actualResolutionDate"`
	CreatedAt               time.Time        `json:"createdAt"`
	UpdatedAt               time.Time        `json:"updatedAt"`
}

// SuggestionUpdate carries the fields a reviewer may change. Nil means unchanged.
type SuggestionUpdate struct {
	Status                  *SuggestionStatus
	Reply                   *string
	Priority                *Priority
	Tags                    []string
	TagsSet                 bool
	AssignedTo              *string
	EstimatedResolutionDate *time.Time
}

// Apply mutates s in place. Moving to Resolved stamps ActualResolutionDate
// the first time only.
func (s *Suggestion) Apply(u SuggestionUpdate, now time.Time) {
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Reply != nil {
		s.Reply = NormalizeText(*u.Reply)
	}
	if u.Priority != nil {
		s.Priority = *u.Priority
	}
	if u.TagsSet {
		tags := make([]string, 0, len(u.Tags))
		for _, tag := range u.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		s.Tags = tags
	}
	if u.AssignedTo != nil {
		s.AssignedTo = strings.TrimSpace(*u.AssignedTo)
	}
	if u.EstimatedResolutionDate != nil {
		d := *u.EstimatedResolutionDate
		s.EstimatedResolutionDate = &d
	}
	if s.Status == StatusResolved && s.ActualResolutionDate == nil {
		resolvedAt := now
		s.ActualResolutionDate = &resolvedAt
	}
	s.UpdatedAt = now
}

// Recommendation is a non-blocking hint returned alongside an update.
type Recommendation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Recommend inspects an update against the stored suggestion and suggests a
// reply when the status or assignee changes without one.
func (s *Suggestion) Recommend(u SuggestionUpdate) []Recommendation {
	hasReply := u.Reply != nil && strings.TrimSpace(*u.Reply) != ""
	recs := make([]Recommendation, 0)
	if u.Status != nil && *u.Status != s.Status && !hasReply {
		recs = append(recs, Recommendation{
			Field:   "reply",
			Message: "Reply recommended when changing suggestion status for better context",
		})
	}
	if u.AssignedTo != nil && *u.AssignedTo != "" && *u.AssignedTo != s.AssignedTo && !hasReply {
		recs = append(recs, Recommendation{
			Field:   "reply",
			Message: "Reply recommended when reassigning suggestion for better communication trail",
		})
	}
	return recs
}

// NormalizeText trims and collapses whitespace runs to a single space.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

type StatusCount struct {
	Status SuggestionStatus `json:"status"`
	Count  int64            `json:"count"`
}

type PriorityCount struct {
	Priority Priority `json:"priority"`
	Count    int64    `json:"count"`
}

type CategoryStat struct {
	CategoryID int64  `json:"categoryId"`
	Category   string `json:"category"`
	Count      int64  `json:"count"`
	Pending    int64  `json:"pending"`
	Reviewed   int64  `json:"reviewed"`
	Resolved   int64  `json:"resolved"`
	Escalated  int64  `json:"escalated"`
}

type CategoryCount struct {
	CategoryID int64  `json:"categoryId"`
	Category   string `json:"category"`
	Count      int64  `json:"count"`
}

type MonthlyCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}
