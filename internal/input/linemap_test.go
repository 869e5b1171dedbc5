package input

import (
	"testing"

	"github.com/sweeney/click-debounce/internal/logic"
)

func TestParseLineMap(t *testing.T) {
	m, err := ParseLineMap("left:17, X1:22,right:27")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := LineMap{logic.Left: 17, logic.X1: 22, logic.Right: 27}
	if len(m) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(m))
	}
	for ch, line := range want {
		if m[ch] != line {
			t.Errorf("%s: got line %d, want %d", ch, m[ch], line)
		}
	}
	if got := m.String(); got != "left:17,right:27,x1:22" {
		t.Errorf("String: got %q", got)
	}
}

func TestParseLineMapEmpty(t *testing.T) {
	m, err := ParseLineMap("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil map, got %v", m)
	}
}

func TestParseLineMapErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing colon", "left17"},
		{"unknown button", "wheel:4"},
		{"bad line", "left:abc"},
		{"negative line", "left:-3"},
		{"duplicate button", "left:1,left:2"},
		{"duplicate line", "left:1,right:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLineMap(tt.in); err == nil {
				t.Errorf("expected error for %q", tt.in)
			}
		})
	}
}
