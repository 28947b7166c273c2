package registry

import (
	"strings"
	"unicode"
)

// Identifier converts a context name ("users item", "get user-profile
// response") into a PascalCase Go identifier. Non-alphanumeric runes act
// as word separators; a leading digit is prefixed to keep the identifier
// valid.
func Identifier(context string) string {
	var sb strings.Builder
	upperNext := true
	for _, r := range context {
		switch {
		case unicode.IsLetter(r):
			if upperNext {
				sb.WriteRune(unicode.ToUpper(r))
				upperNext = false
			} else {
				sb.WriteRune(r)
			}
		case unicode.IsDigit(r):
			if sb.Len() == 0 {
				sb.WriteString("N")
			}
			sb.WriteRune(r)
			upperNext = true
		default:
			upperNext = true
		}
	}
	return sb.String()
}
