package core

import (
	"strconv"
	"strings"
)

// NormalizeRUT strips dots, spaces and the hyphen from a Chilean RUT and
// returns it as "<body>-<check digit>", e.g. "12.345.678-5" → "12345678-5".
// Values too short to hold a check digit are returned cleaned but unchanged.
func NormalizeRUT(rut string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(rut) {
		if (r >= '0' && r <= '9') || r == 'K' {
			b.WriteRune(r)
		}
	}
	clean := strings.TrimLeft(b.String(), "0")
	if len(clean) < 2 {
		return clean
	}
	return clean[:len(clean)-1] + "-" + clean[len(clean)-1:]
}

// rutCheckDigit computes the modulo 11 check digit of a RUT body.
func rutCheckDigit(body string) string {
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		mul++
		if mul > 7 {
			mul = 2
		}
	}
	switch dv := 11 - (sum % 11); dv {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(dv)
	}
}

// ValidRUT reports whether rut (any formatting) carries a correct check digit.
func ValidRUT(rut string) bool {
	norm := NormalizeRUT(rut)
	parts := strings.SplitN(norm, "-", 2)
	if len(parts) != 2 || len(parts[0]) < 6 || len(parts[0]) > 8 {
		return false
	}
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return rutCheckDigit(parts[0]) == parts[1]
}

// FormatRUT renders a RUT with thousands dots: "12345678-5" → "12.345.678-5".
func FormatRUT(rut string) string {
	norm := NormalizeRUT(rut)
	parts := strings.SplitN(norm, "-", 2)
	if len(parts) != 2 {
		return rut
	}
	body := parts[0]
	var b strings.Builder
	for i, r := range body {
		if i > 0 && (len(body)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String() + "-" + parts[1]
}
