package util

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("worker@example.com"); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}

	for _, email := range []string{"", "   ", "not-an-email", "@example.com"} {
		if err := ValidateEmail(email); err == nil {
			t.Fatalf("expected %q to be rejected", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Sup3r-Secret-Pass!"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}

	cases := map[string]string{
		"short":        "Ab1!",
		"no uppercase": "sup3r-secret-pass!!",
		"no lowercase": "SUP3R-SECRET-PASS!!",
		"no digit":     "Super-Secret-Pass!!",
		"no symbol":    "Sup3rSecretPass1234",
		"over max":     "Aa1!" + strings.Repeat("x", 70),
	}
	for name, password := range cases {
		if err := ValidatePassword(password); err == nil {
			t.Fatalf("%s: expected %q to be rejected", name, password)
		}
	}
}
