package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/auth"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/config"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	h      *Handler
	mock   sqlmock.Sqlmock
	tokens *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{Environment: "test"}
	cfg.Database.QueryTimeout = 5
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.NewAccount.PasswordLength = 12

	repo := repository.NewRepository(cfg, db)
	tokens, err := auth.NewTokenIssuer("test-secret", "ghost-feedback", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	svc := auth.NewService(repo, tokens, auth.WithBcryptCost(bcrypt.MinCost))

	h, err := NewHandler(cfg, repo, svc, nil, nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	h.RegisterRoutes()
	return &testEnv{h: h, mock: mock, tokens: tokens}
}

var accountColumnNames = []string{
	"id", "email", "password_hash", "role", "first_name", "last_name",
	"perm_view_suggestions", "perm_edit_suggestions", "perm_delete_suggestions", "perm_manage_suggestions",
	"perm_manage_admins", "perm_export_data", "perm_view_analytics",
	"is_active", "failed_login_count", "lock_until", "last_login", "created_at", "updated_at", "version",
}

func accountRow(a *domain.Account) *sqlmock.Rows {
	p := a.Permissions
	var lockUntil any
	if a.LockUntil != nil {
		lockUntil = *a.LockUntil
	}
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(accountColumnNames).AddRow(
		a.ID, a.Email, a.PasswordHash, string(a.Role), "Jane", "Doe",
		p.ViewSuggestions, p.EditSuggestions, p.DeleteSuggestions, p.ManageSuggestions,
		p.ManageAdmins, p.ExportData, p.ViewAnalytics,
		a.IsActive, int64(a.FailedLoginCount), lockUntil, nil, created, created, int64(1),
	)
}

// signIn issues a token for a and primes the lookup authenticate performs.
func (e *testEnv) signIn(t *testing.T, a *domain.Account) string {
	t.Helper()
	token, _, err := e.tokens.Issue(a)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	e.mock.ExpectQuery("FROM accounts WHERE id = \\$1").
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))
	return token
}

func (e *testEnv) do(method, path, token string, body any) (*httptest.ResponseRecorder, Response) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)

	var resp Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func (e *testEnv) assertExpectations(t *testing.T) {
	t.Helper()
	if err := e.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	rec, resp := e.do(http.MethodGet, "/api/admin/suggestions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp.Success {
		t.Fatalf("expected failure envelope, got %+v", resp)
	}

	rec, _ = e.do(http.MethodGet, "/api/admin/suggestions", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a garbage token, got %d", rec.Code)
	}
}

func TestEditRequiresPermissionRegardlessOfRole(t *testing.T) {
	e := newTestEnv(t)
	perms := domain.AllPermissions()
	perms.EditSuggestions = false
	coo := &domain.Account{ID: 1, Email: "coo@company.com", Role: domain.RoleCOO, Permissions: perms, IsActive: true}
	token := e.signIn(t, coo)

	rec, resp := e.do(http.MethodPut, "/api/admin/suggestions/5", token, map[string]string{"status": "Reviewed"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", rec.Code, resp.Message)
	}
	// the suggestion itself is never loaded
	e.assertExpectations(t)
}

var suggestionColumnNames = []string{
	"id", "category_id", "category", "subcategory_id", "subcategory",
	"suggestion_text", "status", "reply", "priority", "tags", "assigned_to",
	"estimated_resolution_date", "actual_resolution_date", "created_at", "updated_at",
}

func TestUpdateSuggestionReturnsRecommendations(t *testing.T) {
	e := newTestEnv(t)
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	e.h.now = func() time.Time { return now }
	reviewer := &domain.Account{ID: 4, Email: "hr@company.com", Role: domain.RoleHR, Permissions: domain.AllPermissions(), IsActive: true}
	token := e.signIn(t, reviewer)

	created := now.AddDate(0, 0, -3)
	e.mock.ExpectQuery("WHERE s.id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(suggestionColumnNames).AddRow(
			int64(5), int64(3), "Culture", int64(31), "Other",
			"Please add more plants to the office", "Pending", "", "Medium", []byte(`[]`), "",
			nil, nil, created, created))
	// another reviewer resolved it first; the stored date wins
	firstResolved := now.Add(-time.Minute)
	e.mock.ExpectQuery("UPDATE suggestions").
		WithArgs("Resolved", "", "Medium", sqlmock.AnyArg(), "", sqlmock.AnyArg(), now, now, int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"actual_resolution_date"}).AddRow(firstResolved))

	rec, resp := e.do(http.MethodPut, "/api/admin/suggestions/5", token, map[string]string{"status": "Resolved"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data: %#v", resp.Data)
	}
	recs, _ := data["recommendations"].([]any)
	if len(recs) != 1 || recs[0].(map[string]any)["field"] != "reply" {
		t.Fatalf("expected a reply recommendation, got %v", data["recommendations"])
	}
	suggestion := data["suggestion"].(map[string]any)
	if suggestion["status"] != "Resolved" || suggestion["actualResolutionDate"] != firstResolved.Format(time.RFC3339) {
		t.Fatalf("unexpected suggestion: %v", suggestion)
	}
	e.assertExpectations(t)
}

func TestViewPermissionGatesList(t *testing.T) {
	e := newTestEnv(t)
	hr := &domain.Account{ID: 2, Email: "hr@company.com", Role: domain.RoleHR, IsActive: true}
	token := e.signIn(t, hr)

	rec, _ := e.do(http.MethodGet, "/api/admin/suggestions?status=Pending", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	e.assertExpectations(t)
}

func TestAdminManagementIsCOOOnly(t *testing.T) {
	e := newTestEnv(t)
	cto := &domain.Account{ID: 3, Email: "cto@company.com", Role: domain.RoleCTO, Permissions: domain.AllPermissions(), IsActive: true}
	token := e.signIn(t, cto)

	rec, _ := e.do(http.MethodGet, "/api/admin/admins", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-COO, got %d", rec.Code)
	}
	e.assertExpectations(t)
}

func TestCannotChangeOwnStatus(t *testing.T) {
	e := newTestEnv(t)
	coo := &domain.Account{ID: 1, Email: "coo@company.com", Role: domain.RoleCOO, Permissions: domain.AllPermissions(), IsActive: true}
	token := e.signIn(t, coo)
	e.mock.ExpectQuery("FROM accounts WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(accountRow(coo))

	rec, resp := e.do(http.MethodPatch, "/api/admin/admins/1/status", token, map[string]bool{"isActive": false})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "isActive" {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	e.assertExpectations(t)
}

func TestLoginOutcomesAreDistinct(t *testing.T) {
	e := newTestEnv(t)

	e.mock.ExpectQuery("FROM accounts WHERE email = \\$1").
		WithArgs("ghost@company.com").
		WillReturnRows(sqlmock.NewRows(accountColumnNames))
	rec, resp := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ghost@company.com",
		"password": "whatever",
	})
	if rec.Code != http.StatusUnauthorized || resp.Message != "Invalid credentials" {
		t.Fatalf("expected 401 invalid credentials, got %d %q", rec.Code, resp.Message)
	}

	until := time.Now().Add(time.Hour)
	locked := &domain.Account{
		ID: 4, Email: "locked@company.com", PasswordHash: "irrelevant", Role: domain.RoleHR,
		IsActive: true, FailedLoginCount: 5, LockUntil: &until,
	}
	e.mock.ExpectQuery("FROM accounts WHERE email = \\$1").
		WithArgs("locked@company.com").
		WillReturnRows(accountRow(locked))
	rec, _ = e.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "Locked@Company.com",
		"password": "Correct1!",
	})
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rec.Code)
	}

	e.assertExpectations(t)
}

func TestLoginValidation(t *testing.T) {
	e := newTestEnv(t)

	rec, resp := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(resp.Errors) != 2 {
		t.Fatalf("expected email and password errors, got %+v", resp.Errors)
	}
	e.assertExpectations(t)
}

func TestSubmitUnknownCategoryWritesNothing(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery("SELECT id FROM categories WHERE name = \\$1").
		WithArgs("Nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec, resp := e.do(http.MethodPost, "/api/suggestions/submit", "", map[string]string{
		"category":       "Nope",
		"subcategory":    "Other",
		"suggestionText": "Please add more standing desks upstairs",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "category" {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	e.assertExpectations(t)
}

func TestSubmitShortTextSkipsLookup(t *testing.T) {
	e := newTestEnv(t)

	rec, _ := e.do(http.MethodPost, "/api/suggestions/submit", "", map[string]string{
		"category":       "Workplace Environment",
		"subcategory":    "Office Space",
		"suggestionText": "   too    short ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	e.assertExpectations(t)
}

func TestSubmitStoresAnonymousSuggestion(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery("SELECT id FROM categories WHERE name = \\$1").
		WithArgs("Workplace Environment").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	e.mock.ExpectQuery("FROM subcategories s").
		WithArgs("Office Space", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	now := time.Now()
	e.mock.ExpectQuery("INSERT INTO suggestions").
		WithArgs(int64(3), int64(7), "The meeting rooms need better ventilation", domain.StatusPending, domain.PriorityMedium, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reply", "assigned_to", "created_at", "updated_at"}).
			AddRow(int64(11), "", "", now, now))

	body := map[string]string{
		"category":       " Workplace Environment ",
		"subcategory":    "Office Space",
		"suggestionText": "The meeting rooms   need better ventilation",
	}
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/suggestions/submit", bytes.NewReader(b))
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	req.Header.Set("User-Agent", "curl/8")
	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"data"`) {
		t.Fatalf("submission response must not echo the record: %s", rec.Body.String())
	}
	e.assertExpectations(t)
}

func TestSanitizeEscapesAllButExemptFields(t *testing.T) {
	e := newTestEnv(t)

	var got map[string]any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	})
	body := `{"email":"<b>x</b>@a.co","password":"<Pa$$>","nested":{"assignedTo":"a/b"},"count":12345678901234567890}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	e.h.sanitize(next).ServeHTTP(httptest.NewRecorder(), req)

	if got["email"] != "&lt;b&gt;x&lt;&#x2F;b&gt;@a.co" {
		t.Fatalf("email not escaped: %v", got["email"])
	}
	if got["password"] != "<Pa$$>" {
		t.Fatalf("password must be left alone: %v", got["password"])
	}
	if nested := got["nested"].(map[string]any); nested["assignedTo"] != "a&#x2F;b" {
		t.Fatalf("nested value not escaped: %v", nested["assignedTo"])
	}
}

func TestRateLimiterIsPerClient(t *testing.T) {
	l := newIPRateLimiter(1, 2)
	if !l.allow("10.0.0.1") || !l.allow("10.0.0.1") {
		t.Fatal("burst should be admitted")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("third request within the second should be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Fatal("another client has its own bucket")
	}
	if newIPRateLimiter(0, 10) != nil {
		t.Fatal("a zero rate disables limiting")
	}
}

func TestRateLimitIgnoresRotatedForwardedFor(t *testing.T) {
	e := newTestEnv(t)
	e.h.limiter = newIPRateLimiter(1, 1)
	limited := e.h.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			passed++
		}
	}
	if passed != 1 {
		t.Fatalf("one socket address got %d requests through, want 1", passed)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		xff     []string
		trusted int
		want    string
	}{
		{"no proxy trusts socket", []string{"203.0.113.9"}, 0, "192.0.2.10"},
		{"one proxy takes right-most", []string{"6.6.6.6, 203.0.113.9"}, 1, "203.0.113.9"},
		{"two proxies skip the inner hop", []string{"6.6.6.6, 203.0.113.9", "10.0.0.2"}, 2, "203.0.113.9"},
		{"too few hops falls back", nil, 1, "192.0.2.10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.10:4000"
			for _, v := range tc.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if got := clientIP(req, tc.trusted); got != tc.want {
				t.Fatalf("clientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHealthHidesDependencyErrorsInProduction(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		t.Run(env, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			if err != nil {
				t.Fatalf("sqlmock.New: %v", err)
			}
			defer db.Close()
			mock.ExpectPing().WillReturnError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

			cfg := &config.Config{Environment: env}
			cfg.Database.QueryTimeout = 5
			cfg.Server.MaxBodyBytes = 1 << 20
			repo := repository.NewRepository(cfg, db)
			tokens, err := auth.NewTokenIssuer("test-secret", "ghost-feedback", time.Hour)
			if err != nil {
				t.Fatalf("NewTokenIssuer: %v", err)
			}
			h, err := NewHandler(cfg, repo, auth.NewService(repo, tokens), nil, nil)
			if err != nil {
				t.Fatalf("NewHandler: %v", err)
			}
			h.RegisterRoutes()

			rec := httptest.NewRecorder()
			h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", rec.Code)
			}
			leaked := strings.Contains(rec.Body.String(), "10.0.0.5")
			if leaked != (env != "production") {
				t.Fatalf("error detail leaked=%v in %s: %s", leaked, env, rec.Body.String())
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc": true,
		"bearer abc": true,
		"Basic abc":  false,
		"Bearer ":    false,
		"":           false,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		if _, ok := bearerToken(req); ok != want {
			t.Errorf("bearerToken(%q) = %v, want %v", header, ok, want)
		}
	}
}
