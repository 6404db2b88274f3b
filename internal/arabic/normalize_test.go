package arabic_test

import (
	"testing"

	"github.com/yazbekw/quizbot/internal/arabic"
)

func TestNormalize_StripsTashkeel(t *testing.T) {
	// "العِلْمُ" with harakat should equal the bare spelling.
	got := arabic.Normalize("العِلْمُ")
	want := "العلم"

	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_FoldsHamzaForms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"أحمد", "احمد"},
		{"إنسان", "انسان"},
		{"آلة", "الة"},
		{"مسؤول", "مسوول"},
		{"بيئة", "بيية"},
	}

	for _, c := range cases {
		if got := arabic.Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_StripsTatweel(t *testing.T) {
	if got := arabic.Normalize("طـــاقـــة"); got != "طاقة" {
		t.Errorf("expected tatweel stripped, got %q", got)
	}
}

func TestNormalize_ExpandsLigatures(t *testing.T) {
	// U+FEFB is the isolated lam-alef presentation form.
	if got := arabic.Normalize("ﻻ"); got != "لا" {
		t.Errorf("expected lam-alef expansion, got %q", got)
	}
	// Hamza-carrying ligature folds down to plain lam-alef too.
	if got := arabic.Normalize("ﻷ"); got != "لا" {
		t.Errorf("expected folded lam-alef, got %q", got)
	}
}

func TestNormalize_RemovesPunctuationAndTrims(t *testing.T) {
	if got := arabic.Normalize("  النظام، والطاقة. "); got != "النظام والطاقة" {
		t.Errorf("unexpected result %q", got)
	}
}

func TestNormalize_TotalOnArbitraryInput(t *testing.T) {
	inputs := []string{"", "   ", "hello, world!", "123", "؟!،"}
	for _, in := range inputs {
		// Must never panic; empty output is fine.
		_ = arabic.Normalize(in)
	}

	if got := arabic.Normalize("؟!،"); got != "" {
		t.Errorf("punctuation-only input should normalize to empty, got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "أهلاً بالعالَم، اللُّغة"
	once := arabic.Normalize(in)
	twice := arabic.Normalize(once)

	if once != twice {
		t.Errorf("normalization not idempotent: %q vs %q", once, twice)
	}
}
