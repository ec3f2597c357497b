package fakeapp

import (
	"regexp"
	"strings"
)

const (
	// MaxEmailLength is the RFC 5321 path limit.
	MaxEmailLength = 254
	maxLocalLength = 64
)

const (
	MsgEmailRequired      = "Email is required"
	MsgEmailTooLong       = "Email is too long"
	MsgEmailInvalid       = "Invalid email address"
	MsgPasswordRequired   = "Password is required"
	MsgInvalidCredentials = "Invalid email or password"
	MsgTooManyAttempts    = "Too many login attempts. Try again later."
)

var (
	localPartPattern = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+(\\.[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+)*$")
	domainPattern    = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,63}$`)
)

// ValidateEmail returns the message the login form shows for email, or "" if
// the address is acceptable. Quoted local parts and IP-literal domains are
// rejected.
func ValidateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return MsgEmailRequired
	}
	if len(email) > MaxEmailLength {
		return MsgEmailTooLong
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') || at == len(email)-1 {
		return MsgEmailInvalid
	}
	local, domain := email[:at], email[at+1:]
	if len(local) > maxLocalLength {
		return MsgEmailInvalid
	}
	if !localPartPattern.MatchString(local) || !domainPattern.MatchString(domain) {
		return MsgEmailInvalid
	}
	return ""
}

// normalizeEmail is the account lookup key; addresses match case-insensitively.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
