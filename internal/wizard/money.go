package wizard

import (
	"math"
	"strconv"
	"strings"
)

// Money is a currency amount parsed from user input such as "$1,250.00".
type Money struct {
	value float64
	blank bool
	ok    bool
}

// Percentage is a share or rate parsed from input such as "12.5" or "12.5%".
type Percentage struct {
	value float64
	blank bool
	ok    bool
}

var moneyCleaner = strings.NewReplacer("$", "", ",", "", " ", "", "\t", "", "\n", "", "\r", "")

// ParseMoney strips currency formatting and parses what is left.
func ParseMoney(raw string) Money {
	cleaned := moneyCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return Money{blank: true}
	}
	v, ok := parseFinite(cleaned)
	return Money{value: v, ok: ok}
}

// ParsePercentage accepts an optional trailing percent sign.
func ParsePercentage(raw string) Percentage {
	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return Percentage{blank: true}
	}
	v, ok := parseFinite(cleaned)
	return Percentage{value: v, ok: ok}
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (m Money) Blank() bool      { return m.blank }
func (m Money) Valid() bool      { return m.ok }
func (m Money) Positive() bool   { return m.ok && m.value > 0 }
func (m Money) Float64() float64 { return m.value }

func (p Percentage) Blank() bool      { return p.blank }
func (p Percentage) Valid() bool      { return p.ok }
func (p Percentage) Positive() bool   { return p.ok && p.value > 0 }
func (p Percentage) Float64() float64 { return p.value }

// Fraction converts 12 into 0.12.
func (p Percentage) Fraction() float64 { return p.value / 100 }
