package utils

import (
	"testing"
	"time"
)

func TestGetEnvFallsBackOnBlank(t *testing.T) {
	t.Setenv("COURTDEPLOY_TEST_BLANK", "  ")
	if got := GetEnv("COURTDEPLOY_TEST_BLANK", "def", nil); got != "def" {
		t.Fatalf("GetEnv: want=%q got=%q", "def", got)
	}
}

func TestGetEnvAsTypes(t *testing.T) {
	t.Setenv("COURTDEPLOY_TEST_INT", "42")
	t.Setenv("COURTDEPLOY_TEST_BAD_INT", "x")
	t.Setenv("COURTDEPLOY_TEST_BOOL", "yes")
	t.Setenv("COURTDEPLOY_TEST_DUR", "90s")

	if got := GetEnvAsInt("COURTDEPLOY_TEST_INT", 1, nil); got != 42 {
		t.Fatalf("int: want=42 got=%d", got)
	}
	if got := GetEnvAsInt("COURTDEPLOY_TEST_BAD_INT", 7, nil); got != 7 {
		t.Fatalf("bad int: want=7 got=%d", got)
	}
	if got := GetEnvAsBool("COURTDEPLOY_TEST_BOOL", false, nil); !got {
		t.Fatalf("bool: want=true got=%v", got)
	}
	if got := GetEnvAsDuration("COURTDEPLOY_TEST_DUR", time.Second, nil); got != 90*time.Second {
		t.Fatalf("duration: want=90s got=%v", got)
	}
}
