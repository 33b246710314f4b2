package normalize

import (
	"regexp"
	"sort"
	"strings"
)

var phoneSpan = regexp.MustCompile(`\+?[\d\s-]{9,20}`)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// FindPhone scans free text for something that looks like a contact number.
// Candidates prefixed with +98/0098 rank above 98, which ranks above a 09
// mobile prefix; ties go to the longer candidate, then to the first one seen.
// It returns "" when nothing plausible is found.
func FindPhone(texts ...string) string {
	var candidates []string
	for _, text := range texts {
		for _, m := range phoneSpan.FindAllString(Digits(text), -1) {
			p := Phone(m)
			digits := strings.TrimPrefix(p, "+")
			if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits || !allDigits(digits) {
				continue
			}
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := phoneScore(candidates[i]), phoneScore(candidates[j])
		if si != sj {
			return si > sj
		}
		return len(candidates[i]) > len(candidates[j])
	})
	return candidates[0]
}

func phoneScore(p string) int {
	digits := strings.TrimPrefix(p, "+")
	switch {
	case strings.HasPrefix(p, "+98") || strings.HasPrefix(digits, "0098"):
		return 4
	case strings.HasPrefix(digits, "98"):
		return 3
	case strings.HasPrefix(digits, "09"):
		return 2
	}
	return 1
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
