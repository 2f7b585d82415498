package handler

import (
	"net/http"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
)

type ContextKey string

var (
	AccountCtxKey       ContextKey = "account"
	TargetAccountCtxKey ContextKey = "targetAccount"
	SuggestionCtxKey    ContextKey = "suggestion"
)

// currentAccount is the caller attached by authenticate.
func currentAccount(r *http.Request) *domain.Account {
	account, _ := r.Context().Value(AccountCtxKey).(*domain.Account)
	return account
}
