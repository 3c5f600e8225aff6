package main

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	_ = godotenv.Load()

	// A cookie from .env would leak into tests that expect none.
	_ = os.Unsetenv("IDT_SESSION_COOKIE")

	os.Exit(m.Run())
}
