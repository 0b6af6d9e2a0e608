package serp

import "testing"

func TestPostProcess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                  string
		in                    string
		lower, trim, collapse bool
		expected              string
	}{
		{"allOn", "  Hello   World\t!", true, true, true, "hello world !"},
		{"lowerOnly", " A B ", true, false, false, " a b "},
		{"trimOnly", " A  B ", false, true, false, "A  B"},
		{"collapseOnly", "A \t\n B", false, false, true, "A B"},
		{"allOff", " A  B ", false, false, false, " A  B "},
		{"idempotent", "hello world", true, true, true, "hello world"},
		{"empty", "", true, true, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postProcess(tt.in, tt.lower, tt.trim, tt.collapse); got != tt.expected {
				t.Fatalf("postProcess(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}
