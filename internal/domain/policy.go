package domain

import (
	"fmt"
	"time"
	"unicode"
)

// PasswordPolicyID is the primary key of the single policy row.
const PasswordPolicyID = 1

// PasswordPolicy holds the rules every new password must satisfy.
type PasswordPolicy struct {
	MinLength           int       `json:"minLength"`
	RequireUppercase    bool      `json:"requireUppercase"`
	RequireLowercase    bool      `json:"requireLowercase"`
	RequireNumbers      bool      `json:"requireNumbers"`
	RequireSpecialChars bool      `json:"requireSpecialChars"`
	ExpiryDays          int       `json:"expiryDays"`
	PreventReuseCount   int       `json:"preventReuseCount"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Violations checks password against the policy and returns a message per
// failed rule, keyed by the rule name. A nil map means the password passes.
func (p PasswordPolicy) Violations(password string) map[string]string {
	var upper, lower, digit, special bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var out map[string]string
	add := func(rule, msg string) {
		if out == nil {
			out = make(map[string]string)
		}
		out[rule] = msg
	}

	if length < p.MinLength {
		add("minLength", fmt.Sprintf("password must be at least %d characters long", p.MinLength))
	}
	if p.RequireUppercase && !upper {
		add("requireUppercase", "password must contain an uppercase letter")
	}
	if p.RequireLowercase && !lower {
		add("requireLowercase", "password must contain a lowercase letter")
	}
	if p.RequireNumbers && !digit {
		add("requireNumbers", "password must contain a number")
	}
	if p.RequireSpecialChars && !special {
		add("requireSpecialChars", "password must contain a special character")
	}
	return out
}

// IsExpired reports whether a password last changed at changedAt has
// outlived ExpiryDays. Zero ExpiryDays disables expiry.
func (p PasswordPolicy) IsExpired(changedAt, now time.Time) bool {
	if p.ExpiryDays <= 0 || changedAt.IsZero() {
		return false
	}
	return now.Sub(changedAt) > time.Duration(p.ExpiryDays)*24*time.Hour
}
