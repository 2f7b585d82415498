package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/repository"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/utils"
)

type CategoryStore interface {
	CountCategories(ctx context.Context) (int64, error)
	UpsertCategories(ctx context.Context, categories []*domain.Category) error
}

type AccountStore interface {
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	CreateAccount(ctx context.Context, a *domain.Account) error
}

type SuggestionStore interface {
	InsertSuggestionAt(ctx context.Context, s *domain.Suggestion) error
}

type ContentStore interface {
	SuggestionsWithEntities(ctx context.Context) ([]repository.SuggestionContent, error)
	UpdateSuggestionContent(ctx context.Context, c repository.SuggestionContent) error
}

// HashFunc turns a plaintext password into a stored hash.
type HashFunc func(plaintext string) (string, error)

// SeedCategories writes the built-in taxonomy. Without force it does nothing
// once any category exists; with force existing rows are refreshed in place.
func SeedCategories(ctx context.Context, store CategoryStore, force bool) (seeded bool, err error) {
	if !force {
		n, err := store.CountCategories(ctx)
		if err != nil {
			return false, err
		}
		if n > 0 {
			slog.Info("categories already exist, skipping", "count", n)
			return false, nil
		}
	}

	categories := DefaultCategories()
	if err := store.UpsertCategories(ctx, categories); err != nil {
		return false, err
	}

	subcategories := 0
	for _, c := range categories {
		subcategories += len(c.Subcategories)
	}
	slog.Info("categories seeded", "categories", len(categories), "subcategories", subcategories)
	return true, nil
}

// AdminParams describes the bootstrap administrator.
type AdminParams struct {
	Email     string
	Password  string
	Role      domain.Role
	FirstName string
	LastName  string
}

// InitAdmin creates the bootstrap administrator with every permission. An
// existing account with the same email is left untouched.
func InitAdmin(ctx context.Context, store AccountStore, hash HashFunc, params AdminParams) (*domain.Account, bool, error) {
	if params.Password == "" {
		return nil, false, errors.New("default admin password must be set")
	}
	if !utils.IsStrongPassword(params.Password) {
		return nil, false, errors.New("default admin password is too weak")
	}
	if !params.Role.Valid() {
		return nil, false, fmt.Errorf("invalid default admin role %q", params.Role)
	}

	existing, err := store.GetAccountByEmail(ctx, params.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	passwordHash, err := hash(params.Password)
	if err != nil {
		return nil, false, err
	}
	admin := &domain.Account{
		Email:        domain.NormalizeEmail(params.Email),
		PasswordHash: passwordHash,
		Role:         params.Role,
		FirstName:    domain.NormalizeName(params.FirstName),
		LastName:     domain.NormalizeName(params.LastName),
		Permissions:  domain.AllPermissions(),
		IsActive:     true,
	}
	if err := store.CreateAccount(ctx, admin); err != nil {
		// lost a race with another bootstrap
		if errors.Is(err, domain.ErrConflict) {
			existing, err := store.GetAccountByEmail(ctx, params.Email)
			return existing, false, err
		}
		return nil, false, err
	}
	return admin, true, nil
}

// RandomAccounts inserts n staff accounts sharing one password. Failed
// inserts are logged and skipped.
func RandomAccounts(ctx context.Context, store AccountStore, hash HashFunc, n int, emailDomain, password string) (int, error) {
	passwordHash, err := hash(password)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := 0; i < n; i++ {
		first, last := utils.GenerateRandomStaffName()
		a := &domain.Account{
			Email:        utils.GenerateStaffEmail(first, last, emailDomain),
			PasswordHash: passwordHash,
			Role:         utils.GenerateRandomRole(),
			FirstName:    first,
			LastName:     last,
			Permissions:  utils.GenerateRandomPermissions(),
			IsActive:     true,
		}
		if err := store.CreateAccount(ctx, a); err != nil {
			slog.Error("failed to insert account", "email", a.Email, "error", err)
			continue
		}
		created++
	}
	return created, nil
}

var sampleTexts = []string{
	"Please consider adding a second monitor for everyone on the support team",
	"Our sprint planning meetings run too long and could be split in two",
	"It would help to document the release checklist in the team wiki",
	"The office gets very warm in the afternoon and the air conditioning struggles",
	"We should rotate the on-call schedule more fairly across the teams",
	"A budget for online courses would help people pick up new skills",
	"Quarterly recognition for teams that ship on time would boost morale",
	"Flexible start times would make commuting much less stressful",
	"Code reviews often wait for days; a response time goal would help",
	"A short onboarding guide for new hires would save everyone time",
}

var sampleReplies = []string{
	"Thanks for raising this, we are looking into it.",
	"This has been shared with the relevant team leads.",
	"Good idea. We have added it to next quarter's plan.",
}

var sampleTags = []string{"quick-win", "budget", "process", "facilities", "tooling", "culture"}

// RandomSuggestions inserts n suggestions spread over the last six months
// across the given active categories.
func RandomSuggestions(ctx context.Context, store SuggestionStore, categories []*domain.Category, n int, now time.Time) (int, error) {
	usable := make([]*domain.Category, 0, len(categories))
	for _, c := range categories {
		if len(c.Subcategories) > 0 {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return 0, errors.New("no categories with subcategories to seed against")
	}

	created := 0
	for i := 0; i < n; i++ {
		c := usable[rand.Intn(len(usable))]
		sub := c.Subcategories[rand.Intn(len(c.Subcategories))]
		createdAt := now.Add(-time.Duration(rand.Int63n(int64(180 * 24 * time.Hour))))

		s := &domain.Suggestion{
			CategoryID:    c.ID,
			SubcategoryID: sub.ID,
			Text:          sampleTexts[rand.Intn(len(sampleTexts))],
			Status:        domain.SuggestionStatuses[rand.Intn(len(domain.SuggestionStatuses))],
			Priority:      domain.Priorities[rand.Intn(len(domain.Priorities))],
			Tags:          []string{},
			CreatedAt:     createdAt,
		}
		if s.Status != domain.StatusPending {
			s.Reply = sampleReplies[rand.Intn(len(sampleReplies))]
		}
		if rand.Intn(2) == 0 {
			s.Tags = append(s.Tags, sampleTags[rand.Intn(len(sampleTags))])
		}
		if s.Status == domain.StatusResolved {
			resolvedAt := createdAt.Add(time.Duration(rand.Intn(14)+1) * 24 * time.Hour)
			if resolvedAt.After(now) {
				resolvedAt = now
			}
			s.ActualResolutionDate = &resolvedAt
		}

		if err := store.InsertSuggestionAt(ctx, s); err != nil {
			slog.Error("failed to insert suggestion", "error", err)
			continue
		}
		created++
	}
	return created, nil
}

// CleanupEntities decodes HTML entities left in stored suggestion text and
// replies by older sanitizing rules. It returns the number of rows changed.
func CleanupEntities(ctx context.Context, store ContentStore) (int, error) {
	items, err := store.SuggestionsWithEntities(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, item := range items {
		text := utils.DecodeEntities(item.Text)
		reply := utils.DecodeEntities(item.Reply)
		if text == item.Text && reply == item.Reply {
			continue
		}
		item.Text, item.Reply = text, reply
		if err := store.UpdateSuggestionContent(ctx, item); err != nil {
			return updated, fmt.Errorf("update suggestion %d: %w", item.ID, err)
		}
		updated++
	}
	return updated, nil
}
