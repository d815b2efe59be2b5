package cache

import (
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/0", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	ctx := t.Context()
	_, err := New(ctx, "redis://localhost:59999")
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}

func TestPlanKey(t *testing.T) {
	if got, want := planKey("alice", 10, ""), "plan:alice:10:"; got != want {
		t.Errorf("planKey() = %q, want %q", got, want)
	}
	if got, want := planKey("alice", 5, "fractions"), "plan:alice:5:fractions"; got != want {
		t.Errorf("planKey() = %q, want %q", got, want)
	}
}

func TestRecentKey(t *testing.T) {
	if got, want := recentKey("alice", "q1"), "recent:alice:q1"; got != want {
		t.Errorf("recentKey() = %q, want %q", got, want)
	}
}
