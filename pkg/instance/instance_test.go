package instance

import "testing"

func TestIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("SKILLHUNTER_INSTANCE_ID", "box-7")
	if got := ID(); got != "web.1" {
		t.Fatalf("expected dyno id, got %q", got)
	}
}

func TestIDFallbacks(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("SKILLHUNTER_INSTANCE_ID", "box-7")
	if got := ID(); got != "box-7" {
		t.Fatalf("expected instance id, got %q", got)
	}

	t.Setenv("SKILLHUNTER_INSTANCE_ID", "")
	if got := ID(); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
}
