package credential

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	codePrefix = "ACE"

	// codeAlphabet excludes visually confusable symbols (0/O, 1/I). Its
	// length of 32 divides 256 evenly, so reducing a random byte modulo the
	// alphabet introduces no bias.
	codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	codeGroups   = 3
	codeGroupLen = 4
)

// NewCode draws a fresh access code of the form ACE-XXXX-XXXX-XXXX using a
// cryptographically secure random source. Guessable codes are free exam
// access, so math/rand is not an option here.
func NewCode() (string, error) {
	buf := make([]byte, codeGroups*codeGroupLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	var b strings.Builder
	b.WriteString(codePrefix)
	for i, rb := range buf {
		if i%codeGroupLen == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(codeAlphabet[int(rb)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// Normalize canonicalizes user-entered codes for storage and lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
