package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Theme values accepted in user preferences.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// IsValidTheme reports whether t is a supported UI theme.
func IsValidTheme(t string) bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// Preferences are the stored browsing defaults of a user. Absent values
// leave the corresponding listing parameter unset.
type Preferences struct {
	DefaultSort     ProductSort      `json:"defaultSort,omitempty"`
	DefaultCategory string           `json:"defaultCategory,omitempty"`
	Theme           string           `json:"theme,omitempty"`
	MinBudget       *decimal.Decimal `json:"minBudget,omitempty"`
	MaxBudget       *decimal.Decimal `json:"maxBudget,omitempty"`
}

// User is a registered account.
type User struct {
	ID                string      `json:"id"`
	Email             string      `json:"email"`
	PasswordHash      string      `json:"-"`
	Name              string      `json:"name"`
	IsAdmin           bool        `json:"isAdmin"`
	Preferences       Preferences `json:"preferences"`
	PasswordChangedAt time.Time   `json:"passwordChangedAt"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	PasswordExpired bool   `json:"passwordExpired"`
}
