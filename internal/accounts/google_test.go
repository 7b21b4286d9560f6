package accounts

import "testing"

func TestIsEmailAllowedByDomainAllowlist(t *testing.T) {
	authenticator := &GoogleAuthenticator{
		allowedDomains: map[string]struct{}{
			"example.com": {},
		},
	}

	if !authenticator.IsEmailAllowed("User@Example.com") {
		t.Fatal("expected domain to be allowed")
	}
	if authenticator.IsEmailAllowed("user@other.com") {
		t.Fatal("expected other domain to be rejected")
	}
	if authenticator.IsEmailAllowed("not-an-email") {
		t.Fatal("expected malformed email to be rejected")
	}
}

func TestIsEmailAllowedAllowsAllWhenNoAllowlist(t *testing.T) {
	authenticator := &GoogleAuthenticator{allowedDomains: map[string]struct{}{}}

	if !authenticator.IsEmailAllowed("anyone@anywhere.dev") {
		t.Fatal("expected all emails to be allowed without an allowlist")
	}
}
