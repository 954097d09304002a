package utils

import (
	"errors"
	"strings"
)

var (
	ErrNationalIDLength   = errors.New("national id must have 11 digits")
	ErrNationalIDRepeated = errors.New("national id with repeated digits is invalid")
	ErrNationalIDChecksum = errors.New("national id checksum is invalid")
)

// NormalizeNationalID strips every non-digit character. Spreadsheet imports
// and the public form send formatted ids (000.000.000-00); the store only
// ever sees the 11-digit form.
func NormalizeNationalID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateNationalID normalizes and validates a CPF-style national id,
// returning the digits-only form. Sequences of a single repeated digit pass
// the checksum but are not real ids, so they are rejected explicitly.
func ValidateNationalID(raw string) (string, error) {
	digits := NormalizeNationalID(raw)
	if len(digits) != 11 {
		return "", ErrNationalIDLength
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return "", ErrNationalIDRepeated
	}

	if digits[9] != checkDigit(digits[:9]) || digits[10] != checkDigit(digits[:10]) {
		return "", ErrNationalIDChecksum
	}

	return digits, nil
}

// checkDigit computes one verification digit: each digit is weighted from
// len+1 down to 2, and the remainder mod 11 maps to 0 when below 2, otherwise
// to 11 minus the remainder.
func checkDigit(digits string) byte {
	total := 0
	weight := len(digits) + 1
	for i := 0; i < len(digits); i++ {
		total += int(digits[i]-'0') * weight
		weight--
	}

	rem := total % 11
	if rem < 2 {
		return '0'
	}
	return byte('0' + 11 - rem)
}
