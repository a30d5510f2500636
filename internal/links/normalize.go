package links

import "strings"

// Normalize lowercases name and drops everything that is not a-z, 0-9 or '/'.
func Normalize(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '/' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

const upperHex = "0123456789ABCDEF"

// QuotePath percent-encodes every byte of s except ASCII letters, digits,
// '_', '.', '-', '~' and '/'.
func QuotePath(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for i := range len(s) {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)

			continue
		}

		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}

	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~', c == '/':
		return true
	default:
		return false
	}
}
