package tts

import (
	"strings"
	"testing"
)

func TestNormalizeNoDigitsIsIdentity(t *testing.T) {
	for _, text := range []string{"", "hello world", "no numbers here!"} {
		if got := Normalize(text, "fr"); got != text {
			t.Fatalf("expected identity for %q, got %q", text, got)
		}
	}
}

func TestNormalizeReplacesEveryDigitRun(t *testing.T) {
	got := Normalize("redeemed 42 points and 7 bits", "en")
	if !strings.Contains(got, "forty-two") {
		t.Fatalf("expected spoken form of 42, got %q", got)
	}
	if !strings.Contains(got, "seven") {
		t.Fatalf("expected spoken form of 7, got %q", got)
	}
	if strings.ContainsAny(got, "0123456789") {
		t.Fatalf("stray digits remain in %q", got)
	}
	if !strings.Contains(got, "points") || !strings.Contains(got, "bits") {
		t.Fatalf("non-numeric text changed: %q", got)
	}
}

func TestNormalizePrefixesSeparatingSpace(t *testing.T) {
	got := Normalize("cat5", "en")
	if got != "cat five" {
		t.Fatalf("expected %q, got %q", "cat five", got)
	}
}

func TestNormalizeUnknownLocaleFallsBack(t *testing.T) {
	got := Normalize("5 cats", "xx-KLINGON")
	if !strings.Contains(got, "cinq") {
		t.Fatalf("expected default-language expansion, got %q", got)
	}
}

func TestEnglishNumbers(t *testing.T) {
	cases := map[int64]string{
		0:          "zero",
		13:         "thirteen",
		42:         "forty-two",
		100:        "one hundred",
		101:        "one hundred one",
		999:        "nine hundred ninety-nine",
		1000:       "one thousand",
		1234:       "one thousand two hundred thirty-four",
		1_000_000:  "one million",
		20_000_001: "twenty million one",
	}
	for n, want := range cases {
		if got := englishNumber(n); got != want {
			t.Errorf("englishNumber(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFrenchNumbers(t *testing.T) {
	cases := map[int64]string{
		0:     "zéro",
		5:     "cinq",
		16:    "seize",
		17:    "dix-sept",
		21:    "vingt et un",
		42:    "quarante-deux",
		70:    "soixante-dix",
		71:    "soixante et onze",
		75:    "soixante-quinze",
		80:    "quatre-vingts",
		81:    "quatre-vingt-un",
		90:    "quatre-vingt-dix",
		99:    "quatre-vingt-dix-neuf",
		100:   "cent",
		101:   "cent un",
		200:   "deux cents",
		201:   "deux cent un",
		1000:  "mille",
		2000:  "deux mille",
		2001:  "deux mille un",
		1_000_000: "un million",
		3_000_000: "trois millions",
	}
	for n, want := range cases {
		if got := frenchNumber(n); got != want {
			t.Errorf("frenchNumber(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestNormalizeOverlongRunSpelledDigitByDigit(t *testing.T) {
	got := Normalize("id 99999999999999999999", "en")
	if !strings.Contains(got, "nine nine") {
		t.Fatalf("expected digit-by-digit spelling, got %q", got)
	}
	if strings.ContainsAny(got, "0123456789") {
		t.Fatalf("stray digits remain in %q", got)
	}
}
