package music

import (
	"slices"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Pop", []string{"Pop"}},
		{" Pop , Electronic,, Hip Hop ", []string{"Pop", "Electronic", "Hip Hop"}},
	}

	for _, tt := range tests {
		if got := SplitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVector(t *testing.T) {
	m := MoodAnalysis{MoodScores: map[string]float64{MoodSad: 0.8, MoodNeutral: 0.2}}
	got := m.Vector()
	want := []float64{0, 0.8, 0, 0, 0, 0.2}
	if !slices.Equal(got, want) {
		t.Errorf("Vector() = %v, want %v", got, want)
	}
}
