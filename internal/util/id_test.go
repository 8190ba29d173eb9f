package util

import (
	"strings"
	"testing"
)

func TestNewIDPrefix(t *testing.T) {
	id := NewID("sp")
	if !strings.HasPrefix(id, "sp_") {
		t.Fatalf("expected sp_ prefix, got %s", id)
	}
	if len(id) != len("sp_")+32 {
		t.Fatalf("unexpected id length %d for %s", len(id), id)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := NewID("")
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
