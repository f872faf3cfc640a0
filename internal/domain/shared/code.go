package shared

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// CodeAlphabet excludes characters that are easily confused when read aloud
// or handwritten (0/O, 1/I/L). Its length divides 256, so byte-to-symbol
// mapping is unbiased.
const CodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewCode returns prefix + "-" + n random symbols from CodeAlphabet.
func NewCode(prefix string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	var b strings.Builder
	b.Grow(len(prefix) + 1 + n)
	b.WriteString(prefix)
	b.WriteByte('-')
	for _, c := range buf {
		b.WriteByte(CodeAlphabet[int(c)%len(CodeAlphabet)])
	}
	return b.String(), nil
}

// IsCode reports whether s has the shape produced by NewCode(prefix, n).
func IsCode(s, prefix string, n int) bool {
	if len(s) != len(prefix)+1+n || !strings.HasPrefix(s, prefix+"-") {
		return false
	}
	for _, c := range s[len(prefix)+1:] {
		if !strings.ContainsRune(CodeAlphabet, c) {
			return false
		}
	}
	return true
}
