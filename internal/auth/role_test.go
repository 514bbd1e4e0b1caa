package auth

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]bool{
		"DISPATCHER": true,
		"WORKER":     true,
		"dispatcher": false,
		"SUPERUSER":  false,
		"":           false,
	}

	for value, ok := range cases {
		role, err := ParseRole(value)
		if ok && (err != nil || string(role) != value) {
			t.Fatalf("%q: expected valid role, got %v", value, err)
		}
		if !ok && err == nil {
			t.Fatalf("%q: expected an error", value)
		}
	}
}
