// Package normalize holds the pure text clean-up helpers shared by the chat
// and extraction flows: digit-script mapping, transliteration of Persian
// names and the canonical forms of flight numbers, ids and phone numbers.
package normalize

import (
	"strings"
	"unicode"
)

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

var persianToLatin = map[rune]string{
	'آ': "A", 'ا': "A", 'ب': "B", 'پ': "P", 'ت': "T", 'ث': "S",
	'ج': "J", 'چ': "CH", 'ح': "H", 'خ': "KH", 'د': "D", 'ذ': "Z",
	'ر': "R", 'ز': "Z", 'ژ': "ZH", 'س': "S", 'ش': "SH", 'ص': "S",
	'ض': "Z", 'ط': "T", 'ظ': "Z", 'ع': "A", 'غ': "GH", 'ف': "F",
	'ق': "GH", 'ک': "K", 'گ': "G", 'ل': "L", 'م': "M", 'ن': "N",
	'و': "V", 'ه': "H", 'ی': "Y", 'ئ': "E", 'ء': "E", 'ة': "H",
	'أ': "A", 'إ': "E", 'ؤ': "O", 'ي': "Y",
}

var nationalities = map[string]string{
	"ایرانی":     "Iranian",
	"غیر ایرانی": "Non-Iranian",
	"دپلمات":     "Diplomat",
}

// Digits maps Extended Arabic-Indic (Persian) and Arabic-Indic digits to
// ASCII digits. Every other rune is left alone.
func Digits(s string) string {
	return digitReplacer.Replace(s)
}

// FlightNumber returns the canonical form of a flight number:
// ASCII digits, no spaces or hyphens, upper case.
func FlightNumber(s string) string {
	s = Digits(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToUpper(s)
}

// Name transliterates Persian letters to Latin and title-cases the result.
func Name(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if lat, ok := persianToLatin[r]; ok {
			b.WriteString(lat)
			continue
		}
		b.WriteRune(r)
	}
	return title(strings.TrimSpace(b.String()))
}

// title upper-cases the first cased rune of every run of cased runes and
// lower-cases the rest.
func title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		if !isCased(r) {
			prevCased = false
			b.WriteRune(r)
			continue
		}
		if prevCased {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToTitle(r))
		}
		prevCased = true
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// IDNumber strips all whitespace from a national id or passport number.
func IDNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Phone maps digits to ASCII and removes whitespace and hyphens. A leading
// "+" survives.
func Phone(s string) string {
	s = strings.TrimSpace(Digits(s))
	plus := strings.HasPrefix(s, "+")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '+' {
			return -1
		}
		return r
	}, s)
	if plus {
		return "+" + s
	}
	return s
}

// Nationality maps the known Persian nationality labels to English and
// transliterates anything else.
func Nationality(s string) string {
	if v, ok := nationalities[strings.TrimSpace(s)]; ok {
		return v
	}
	return Name(s)
}

// TravelType maps a travel direction to "arrival" or "departure".
// Unknown values yield "".
func TravelType(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "arrival" || strings.Contains(v, "ورودی"):
		return "arrival"
	case v == "departure" || strings.Contains(v, "خروجی"):
		return "departure"
	}
	return ""
}

// Int parses a count that may be written with Persian digits, returning
// false when no digits are present.
func Int(s string) (int, bool) {
	s = strings.TrimSpace(Digits(s))
	if s == "" {
		return 0, false
	}
	n := 0
	seen := false
	for _, r := range s {
		if r < '0' || r > '9' {
			if seen {
				break
			}
			continue
		}
		seen = true
		n = n*10 + int(r-'0')
	}
	return n, seen
}
