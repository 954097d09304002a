package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// GenerateAccessToken returns a 32-byte url-safe random secret for the
// per-event box-office, gate and registration credentials.
func GenerateAccessToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var nonAlphanumeric = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// Slugify normalizes an event name into the public registration URL segment:
// accents stripped, lowercased, non-alphanumeric runs collapsed to hyphens.
func Slugify(name string) string {
	if name == "" {
		return ""
	}

	decomposed := norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r < 128 {
			b.WriteRune(r)
		}
	}

	slug := nonAlphanumeric.ReplaceAllString(b.String(), "-")
	return strings.ToLower(strings.Trim(slug, "-"))
}
