package event

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern   string
		eventType string
		want      bool
	}{
		// Wildcard "*" matches everything.
		{"*", "integration.created", true},
		{"*", "webhook.deleted", true},
		{"*", "x", true},

		// Exact match.
		{"integration.created", "integration.created", true},
		{"webhook.deleted", "webhook.deleted", true},

		// Exact mismatch.
		{"integration.created", "integration.updated", false},
		{"integration.created", "webhook.created", false},

		// Single-segment wildcard.
		{"integration.*", "integration.created", true},
		{"integration.*", "integration.tested", true},
		{"integration.*", "webhook.created", false},
		{"*.created", "integration.created", true},
		{"*.created", "webhook.created", true},
		{"*.created", "integration.updated", false},

		// Segment count mismatch.
		{"integration.*", "integration.run.completed", false},
		{"integration", "integration.created", false},

		// Edge cases.
		{"", "", true},
		{"a", "a", true},
		{"a", "b", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_vs_"+tt.eventType, func(t *testing.T) {
			got := Match(tt.pattern, tt.eventType)
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.eventType, got, tt.want)
			}
		})
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"integration.created", "webhook.*"}

	if !MatchAny(patterns, "webhook.deleted") {
		t.Error("expected webhook.deleted to match webhook.*")
	}
	if MatchAny(patterns, "template.created") {
		t.Error("template.created should not match any pattern")
	}
}
