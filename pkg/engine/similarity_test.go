package engine

import (
	"math"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jeffrey Epstein", "jeffrey epstein"},
		{"  Ghislaine   Maxwell ", "ghislaine maxwell"},
		{"O'Brien, J.", "o brien j"},
		{"Dr. Alan Dershowitz", "alan dershowitz"},
		{"Mr. John Smith Jr.", "john smith"},
		{"Prince Andrew", "prince andrew"},
		{"MR", "mr"},
		{"", ""},
		{"...", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJaroWinkler(t *testing.T) {
	jw := JaroWinkler{}

	tests := []struct {
		a, b string
		want float64
	}{
		{"martha", "martha", 1.0},
		{"martha", "marhta", 0.9611},
		{"dixon", "dicksonx", 0.8133},
		{"martha", "", 0.0},
		{"", "", 1.0},
	}

	for _, tt := range tests {
		got := jw.Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("Similarity(%q, %q) = %.4f, want %.4f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestJaroWinkler_NameVariants(t *testing.T) {
	jw := JaroWinkler{}

	// Variant pairs the default threshold should group.
	similar := [][2]string{
		{"jeffrey epstein", "jeff epstein"},
		{"ghislaine maxwell", "ghislane maxwell"},
	}
	for _, pair := range similar {
		if got := jw.Similarity(pair[0], pair[1]); got < 0.85 {
			t.Errorf("Similarity(%q, %q) = %.4f, expected >= 0.85", pair[0], pair[1], got)
		}
	}

	// Distinct persons that must stay apart.
	distinct := [][2]string{
		{"jeffrey epstein", "alan dershowitz"},
		{"bill clinton", "prince andrew"},
	}
	for _, pair := range distinct {
		if got := jw.Similarity(pair[0], pair[1]); got >= 0.85 {
			t.Errorf("Similarity(%q, %q) = %.4f, expected < 0.85", pair[0], pair[1], got)
		}
	}
}

func TestJaroWinkler_Symmetric(t *testing.T) {
	jw := JaroWinkler{}
	pairs := [][2]string{
		{"jeffrey epstein", "jeff epstein"},
		{"dixon", "dicksonx"},
		{"a", "ab"},
	}
	for _, pair := range pairs {
		ab := jw.Similarity(pair[0], pair[1])
		ba := jw.Similarity(pair[1], pair[0])
		if math.Abs(ab-ba) > 1e-12 {
			t.Errorf("asymmetric score for (%q, %q): %.6f vs %.6f", pair[0], pair[1], ab, ba)
		}
	}
}

func TestTokenSortRatio(t *testing.T) {
	tsr := TokenSortRatio{}

	tests := []struct {
		a, b string
		want float64
	}{
		{"jeffrey epstein", "epstein jeffrey", 1.0},
		{"jeffrey epstein", "jeffrey epstein", 1.0},
		{"", "", 1.0},
	}
	for _, tt := range tests {
		got := tsr.Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("Similarity(%q, %q) = %.4f, want %.4f", tt.a, tt.b, got, tt.want)
		}
	}

	if got := tsr.Similarity("jeffrey epstein", "alan dershowitz"); got >= 0.85 {
		t.Errorf("expected distinct names below threshold, got %.4f", got)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"epstein", "epstien", 2},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
