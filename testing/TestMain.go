// Package testing prepares the environment for tests that import it for side effects.
package testing

import (
	"os"
	stdtesting "testing"
)

// defaults are applied only when the variable is unset.
var defaults = map[string]string{
	"TOURDESK_TEST_MODE": "1",
	"JWT_SECRET":         "test-secret-with-enough-bytes-000",
	"APP_ENV":            "test",
}

func init() {
	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}

// TestMain runs m after init has populated the defaults.
func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
