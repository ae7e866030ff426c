package tts

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultLanguage is used when the requested locale is unknown.
const DefaultLanguage = "fr"

var digitRun = regexp.MustCompile(`\d+`)

// Normalize rewrites every maximal digit run in text into its spoken-word
// form for the given language, each replacement prefixed with a space so
// the spoken words never concatenate with surrounding tokens. Text without
// digits is returned unchanged.
func Normalize(text, lang string) string {
	if !digitRun.MatchString(text) {
		return text
	}
	lang = canonicalLang(lang)
	return digitRun.ReplaceAllStringFunc(text, func(run string) string {
		return " " + spellRun(run, lang)
	})
}

func canonicalLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	switch lang {
	case "fr", "en":
		return lang
	}
	return DefaultLanguage
}

func spellRun(digits, lang string) string {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Too large for a cardinal; spell the digits one by one.
		words := make([]string, 0, len(digits))
		for _, d := range digits {
			words = append(words, spellInt(int64(d-'0'), lang))
		}
		return strings.Join(words, " ")
	}
	return spellInt(n, lang)
}

func spellInt(n int64, lang string) string {
	if lang == "en" {
		return englishNumber(n)
	}
	return frenchNumber(n)
}

var enUnits = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen",
}

var enTens = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety",
}

var enScales = []struct {
	value int64
	name  string
}{
	{1_000_000_000_000, "trillion"},
	{1_000_000_000, "billion"},
	{1_000_000, "million"},
	{1_000, "thousand"},
}

func englishNumber(n int64) string {
	if n < 20 {
		return enUnits[n]
	}
	if n < 100 {
		word := enTens[n/10]
		if r := n % 10; r != 0 {
			word += "-" + enUnits[r]
		}
		return word
	}
	if n < 1000 {
		word := enUnits[n/100] + " hundred"
		if r := n % 100; r != 0 {
			word += " " + englishNumber(r)
		}
		return word
	}
	for _, scale := range enScales {
		if n >= scale.value {
			word := englishNumber(n/scale.value) + " " + scale.name
			if r := n % scale.value; r != 0 {
				word += " " + englishNumber(r)
			}
			return word
		}
	}
	return enUnits[0]
}

var frUnits = []string{
	"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit",
	"neuf", "dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
}

var frTens = []string{
	"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante",
}

func frenchNumber(n int64) string {
	switch {
	case n < 17:
		return frUnits[n]
	case n < 20:
		return "dix-" + frUnits[n-10]
	case n < 70:
		tens := frTens[n/10]
		switch r := n % 10; {
		case r == 0:
			return tens
		case r == 1:
			return tens + " et un"
		default:
			return tens + "-" + frUnits[r]
		}
	case n < 80:
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + frenchNumber(n-60)
	case n == 80:
		return "quatre-vingts"
	case n < 100:
		return "quatre-vingt-" + frenchNumber(n-80)
	case n < 1000:
		return frenchHundreds(n)
	case n < 1_000_000:
		return frenchScale(n, 1000, "mille", true)
	case n < 1_000_000_000:
		return frenchScale(n, 1_000_000, "million", false)
	default:
		return frenchScale(n, 1_000_000_000, "milliard", false)
	}
}

func frenchHundreds(n int64) string {
	h, r := n/100, n%100
	var word string
	if h == 1 {
		word = "cent"
	} else if r == 0 {
		return frUnits[h] + " cents"
	} else {
		word = frUnits[h] + " cent"
	}
	if r != 0 {
		word += " " + frenchNumber(r)
	}
	return word
}

// frenchScale spells n using the scale word; "mille" is invariant and drops
// the leading "un", unlike "million"/"milliard".
func frenchScale(n, value int64, name string, invariant bool) string {
	count, r := n/value, n%value
	var word string
	switch {
	case invariant && count == 1:
		word = name
	case invariant:
		word = frenchNumber(count) + " " + name
	case count == 1:
		word = "un " + name
	default:
		word = frenchNumber(count) + " " + name + "s"
	}
	if r != 0 {
		word += " " + frenchNumber(r)
	}
	return word
}
