package instance

import "testing"

func TestIDPrecedence(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	t.Setenv("DYNO", "web.2")
	if got := ID(); got != "web.2" {
		t.Fatalf("expected dyno name, got %q", got)
	}

	t.Setenv("STOREFRONT_INSTANCE_ID", "cron-a")
	if got := ID(); got != "cron-a" {
		t.Fatalf("expected explicit instance id, got %q", got)
	}

	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	if got := ID(); got == "" {
		t.Fatalf("expected hostname fallback")
	}
}
