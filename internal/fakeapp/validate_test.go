package fakeapp

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"", MsgEmailRequired},
		{"   ", MsgEmailRequired},
		{"admin@example.com", ""},
		{"first.last+tag@sub.example.co", ""},
		{"ADMIN@EXAMPLE.COM", ""},
		{strings.Repeat("a", 255) + "@example.com", MsgEmailTooLong},
		{strings.Repeat("a", 65) + "@example.com", MsgEmailInvalid},
		{"plainaddress", MsgEmailInvalid},
		{"#@%^%#$@#$@#.com", MsgEmailInvalid},
		{"@example.com", MsgEmailInvalid},
		{"Joe Smith <email@example.com>", MsgEmailInvalid},
		{"email.example.com", MsgEmailInvalid},
		{"email@example@example.com", MsgEmailInvalid},
		{".email@example.com", MsgEmailInvalid},
		{"email.@example.com", MsgEmailInvalid},
		{"email..email@example.com", MsgEmailInvalid},
		{"email@", MsgEmailInvalid},
		{"email@localhost", MsgEmailInvalid},
		{"email@-example.com", MsgEmailInvalid},
		{"' OR '1'='1", MsgEmailInvalid},
		{"admin' --", MsgEmailInvalid},
		{"' UNION SELECT 1,2,3--", MsgEmailInvalid},
		{"<script>alert('XSS')</script>", MsgEmailInvalid},
	}
	for _, tt := range tests {
		if got := ValidateEmail(tt.email); got != tt.want {
			t.Errorf("ValidateEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func testValidateEmailAcceptsSimpleAddresses(t *rapid.T) {
	local := rapid.StringMatching(`[a-z0-9]{1,20}(\.[a-z0-9]{1,10})?`).Draw(t, "local")
	label := rapid.StringMatching(`[a-z0-9]{1,20}`).Draw(t, "label")
	tld := rapid.StringMatching(`[a-z]{2,6}`).Draw(t, "tld")
	email := local + "@" + label + "." + tld

	if got := ValidateEmail(email); got != "" {
		t.Fatalf("ValidateEmail(%q) = %q, want accepted", email, got)
	}
	if got := ValidateEmail(strings.ToUpper(email)); got != "" {
		t.Fatalf("ValidateEmail(%q) = %q, want accepted", strings.ToUpper(email), got)
	}
}

func TestValidateEmailAcceptsSimpleAddresses(t *testing.T) {
	rapid.Check(t, testValidateEmailAcceptsSimpleAddresses)
}

func testValidateEmailRejectsWithoutAt(t *rapid.T) {
	email := rapid.StringMatching(`[a-zA-Z0-9.' -]{1,40}`).Draw(t, "email")
	if strings.TrimSpace(email) == "" {
		t.Skip("blank input is covered by the required check")
	}
	if got := ValidateEmail(email); got != MsgEmailInvalid {
		t.Fatalf("ValidateEmail(%q) = %q, want %q", email, got, MsgEmailInvalid)
	}
}

func TestValidateEmailRejectsWithoutAt(t *testing.T) {
	rapid.Check(t, testValidateEmailRejectsWithoutAt)
}
