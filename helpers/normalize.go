package helpers

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonDigits    = regexp.MustCompile(`[^\d]`)
	yearPattern  = regexp.MustCompile(`\d{4}`)
	decimalValue = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// DigitsOnly drops every non-digit rune: "123 456 km" -> "123456"
func DigitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// ParseDigits digit-strips s and converts the rest to an int
func ParseDigits(s string) (int, bool) {
	digits := DigitsOnly(s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseYear accepts "2019", "3/2019" or free text holding one plausible year
func ParseYear(s string) (int, bool) {
	matches := yearPattern.FindAllString(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		year, err := strconv.Atoi(matches[i])
		if err == nil && year > 1900 && year < 2100 {
			return year, true
		}
	}
	return 0, false
}

// BeforeSeparator keeps the trimmed text before the first sep: "Manuální / 6 stupňů" -> "Manuální"
func BeforeSeparator(s, sep string) string {
	head, _, _ := strings.Cut(s, sep)
	return strings.TrimSpace(head)
}

// ParseEngineLiters reads a displacement either in liters ("2.0 TDI", "1,6")
// or in cm³ ("1 968 cm³"), returning liters rounded to one decimal. Numbers
// glued to a letter ("V6", "A4") are not displacements, and a value with a
// decimal separator wins over a bare integer.
func ParseEngineLiters(s string) (float64, bool) {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "cm") || strings.Contains(lower, "ccm") {
		ccm, ok := ParseDigits(s)
		if !ok || ccm == 0 {
			return 0, false
		}
		return roundTenth(float64(ccm) / 1000), true
	}

	match := engineValue(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if v > 100 {
		v = v / 1000
	}
	return roundTenth(v), true
}

func engineValue(s string) string {
	var first string
	for _, loc := range decimalValue.FindAllStringIndex(s, -1) {
		if prev, _ := utf8.DecodeLastRuneInString(s[:loc[0]]); unicode.IsLetter(prev) {
			continue
		}
		value := s[loc[0]:loc[1]]
		if strings.ContainsAny(value, ".,") {
			return value
		}
		if first == "" {
			first = value
		}
	}
	return first
}

// FormatLiters renders liters the way the dataset stores them: "2.0", "1.6"
func FormatLiters(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Fold lowercases, trims, collapses inner whitespace and strips diacritics,
// so "  Škoda " and "skoda" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = whitespace.ReplaceAllString(strings.TrimSpace(folded), " ")
	return strings.ToLower(folded)
}

// CleanText collapses whitespace (including non-breaking spaces) and trims
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
