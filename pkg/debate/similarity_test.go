package debate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/debate"
)

func TestTermOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "the complexity question remains open today", "the complexity question remains open today", 1.0, 1.0},
		{"disjoint", "quantum entanglement superposition", "gardening tomatoes fertilizer", 0, 0},
		{"partial", "complexity theory remains unresolved", "complexity theory seems solvable", 0.2, 0.8},
		{"both empty", "", "", 1.0, 1.0},
		{"one empty", "something meaningful here", "", 0, 0},
		{"short words ignored", "a an to of it is", "x y z zz", 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := debate.TermOverlap(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestTermOverlap_Symmetric(t *testing.T) {
	a := "most experts believe the answer is no"
	b := "the answer is probably no, experts say"
	assert.Equal(t, debate.TermOverlap(a, b), debate.TermOverlap(b, a))
}

func TestTermOverlap_IgnoresCaseAndPunctuation(t *testing.T) {
	assert.Equal(t, 1.0, debate.TermOverlap("Answer: OPEN question!", "answer open question"))
}
