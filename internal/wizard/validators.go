package wizard

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameLength = 255
	maxPoolAmount = 10_000_000
	maxCustomTerm = 360
	minFICO       = 300
	maxFICO       = 850
	adultAge      = 18
	phoneDigits   = 10
	ssnDigits     = 9
	dateLayoutISO = "2006-01-02"
	dateLayoutUS  = "01/02/2006"
)

var (
	nameRe  = regexp.MustCompile(`^[\p{L}' -]+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipRe   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	cityRe  = regexp.MustCompile(`^[\p{L} '-]+$`)
)

func IsValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNameLength {
		return false
	}
	return nameRe.MatchString(trimmed)
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

func IsValidPhone(phone string) bool {
	return len(digitsOnly(phone)) == phoneDigits
}

// ParseDate accepts ISO dates from date inputs and US-style typed dates.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{dateLayoutISO, dateLayoutUS} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeOn returns whole years between dob and now, counting the birthday itself.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func IsAdult(dob string, now time.Time) bool {
	t, ok := ParseDate(dob)
	if !ok {
		return false
	}
	return AgeOn(t, now) >= adultAge
}

func IsValidSSN(ssn string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, ssn)
	if len(cleaned) != ssnDigits {
		return false
	}
	return digitsOnly(cleaned) == cleaned
}

// IsValidFICO treats an empty score as "not provided".
func IsValidFICO(score string) bool {
	score = strings.TrimSpace(score)
	if score == "" {
		return true
	}
	n, err := strconv.Atoi(score)
	if err != nil {
		return false
	}
	return n >= minFICO && n <= maxFICO
}

func IsValidZIP(zip string) bool {
	return zipRe.MatchString(strings.TrimSpace(zip))
}

func IsValidCity(city string) bool {
	trimmed := strings.TrimSpace(city)
	return trimmed != "" && cityRe.MatchString(trimmed)
}

func IsValidCurrency(raw string, required bool) bool {
	m := ParseMoney(raw)
	if m.Blank() {
		return !required
	}
	return m.Positive()
}

func IsValidPercentage(raw string) bool {
	p := ParsePercentage(raw)
	return p.Positive() && p.Float64() <= 100
}

func IsValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

func IsValidPoolAmount(raw string) bool {
	m := ParseMoney(raw)
	return m.Positive() && m.Float64() <= maxPoolAmount
}

func IsValidROIRate(raw string) bool {
	p := ParsePercentage(raw)
	return p.Positive() && p.Float64() <= 100
}

func IsValidTerm(raw string, custom bool) bool {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return false
	}
	return !custom || n <= maxCustomTerm
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
