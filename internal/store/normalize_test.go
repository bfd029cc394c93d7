package store

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jiří", "Jiri"},
		{"René", "Rene"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := RemoveDiacritics(tc.input)
			if got != tc.want {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ada", "ada"},
		{"ADA", "ada"},
		{" Ada ", "ada"},
		{"René", "rene"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := NormalizeName(tc.input)
			if got != tc.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeName_CaseCollision(t *testing.T) {
	if NormalizeName("Harshi") != NormalizeName("harshi") {
		t.Error("expected names differing only in case to normalize equally")
	}
}
