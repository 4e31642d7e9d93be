// Package shortcode generates random URL-safe identifiers for links.
//
// Generated codes are not guaranteed to be unique; callers must rely on the
// store's uniqueness constraint and retry on conflict.
package shortcode

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	DefaultLength = 8
	Alphabet      = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var pattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Generate returns a random code of the given length. Non-positive lengths
// fall back to DefaultLength.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	code, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate short code: %w", err)
	}
	return code, nil
}

// Valid reports whether s only contains characters of Alphabet.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
