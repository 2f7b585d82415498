package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleHR  Role = "HR"
	RoleCEO Role = "CEO"
	RoleCOO Role = "COO"
	RoleCTO Role = "CTO"
	RoleCFO Role = "CFO"
	RoleCCO Role = "CCO"
	RoleCPO Role = "CPO"
)

// Roles lists every assignable role in display order.
var Roles = []Role{RoleHR, RoleCEO, RoleCOO, RoleCTO, RoleCFO, RoleCCO, RoleCPO}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Permission string

const (
	PermViewSuggestions   Permission = "viewSuggestions"
	PermEditSuggestions   Permission = "editSuggestions"
	PermDeleteSuggestions Permission = "deleteSuggestions"
	PermManageSuggestions Permission = "manageSuggestions"
	PermManageAdmins      Permission = "manageAdmins"
	PermExportData        Permission = "exportData"
	PermViewAnalytics     Permission = "viewAnalytics"
)

// Permissions is the closed set of capability flags carried by an account.
// It is independent of the account's role.
type Permissions struct {
	ViewSuggestions   bool `json:"viewSuggestions"`
	EditSuggestions   bool `json:"editSuggestions"`
	DeleteSuggestions bool `json:"deleteSuggestions"`
	ManageSuggestions bool `json:"manageSuggestions"`
	ManageAdmins      bool `json:"manageAdmins"`
	ExportData        bool `json:"exportData"`
	ViewAnalytics     bool `json:"viewAnalytics"`
}

// DefaultPermissions are applied when an account is created without an explicit set.
func DefaultPermissions() Permissions {
	return Permissions{
		ViewSuggestions: true,
		ExportData:      true,
		ViewAnalytics:   true,
	}
}

// AllPermissions grants every flag; used for the bootstrap administrator.
func AllPermissions() Permissions {
	return Permissions{
		ViewSuggestions:   true,
		EditSuggestions:   true,
		DeleteSuggestions: true,
		ManageSuggestions: true,
		ManageAdmins:      true,
		ExportData:        true,
		ViewAnalytics:     true,
	}
}

// Has reports whether the named permission is granted. Unknown names are never granted.
func (p Permissions) Has(name Permission) bool {
	switch name {
	case PermViewSuggestions:
		return p.ViewSuggestions
	case PermEditSuggestions:
		return p.EditSuggestions
	case PermDeleteSuggestions:
		return p.DeleteSuggestions
	case PermManageSuggestions:
		return p.ManageSuggestions
	case PermManageAdmins:
		return p.ManageAdmins
	case PermExportData:
		return p.ExportData
	case PermViewAnalytics:
		return p.ViewAnalytics
	default:
		return false
	}
}

type Account struct {
	ID               int64       `json:"id"`
	Email            string      `json:"email"`
	PasswordHash     string      `json:"-"`
	Role             Role        `json:"role"`
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	Permissions      Permissions `json:"permissions"`
	IsActive         bool        `json:"isActive"`
	FailedLoginCount int32       `json:"-"`
	LockUntil        *time.Time  `json:"-"`
	LastLogin        *time.Time  `json:"lastLogin"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	Version          int32       `json:"-"`
}

// IsLocked reports whether a temporary lock is in force at now.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// AccountSummary is the public shape returned by login, verify and refresh.
type AccountSummary struct {
	ID          int64       `json:"id"`
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	FullName    string      `json:"fullName"`
	Permissions Permissions `json:"permissions"`
	LastLogin   *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Email:       a.Email,
		Role:        a.Role,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FullName(),
		Permissions: a.Permissions,
		LastLogin:   a.LastLogin,
		CreatedAt:   a.CreatedAt,
	}
}

// AccountName is the reduced shape used when picking an assignee.
type AccountName struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims and collapses inner whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
