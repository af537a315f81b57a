package main

import (
	"testing"

	"github.com/smnsjas/go-ssoauth/auth"
)

func TestNegotiatePassword(t *testing.T) {
	t.Setenv("SSOAUTH_PASSWORD", "")

	got := negotiatePassword("flag-pw")
	if auth.SupportsSSO() {
		if got != "" {
			t.Errorf("negotiatePassword = %q; want empty with native SSO", got)
		}
		return
	}
	if got != "flag-pw" {
		t.Errorf("negotiatePassword = %q; want flag value", got)
	}

	t.Setenv("SSOAUTH_PASSWORD", "env-pw")
	if got := negotiatePassword(""); got != "env-pw" {
		t.Errorf("negotiatePassword = %q; want environment value", got)
	}
	if got := negotiatePassword("flag-pw"); got != "flag-pw" {
		t.Errorf("negotiatePassword = %q; flag must win over environment", got)
	}

	t.Setenv("SSOAUTH_PASSWORD", "")
	if got := negotiatePassword(""); got != "" {
		t.Errorf("negotiatePassword = %q; want empty without flag or environment", got)
	}
}
