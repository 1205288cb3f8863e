package bridge

import (
	"strings"
	"unicode"
)

// NameMapper maps a Go field or method name to the script property name.
type NameMapper func(goName string) string

// LowerCamel maps Go names to lowerCamel script names, lowering a leading
// acronym as a whole: Name -> name, URLPath -> urlPath, ID -> id.
func LowerCamel(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	if !unicode.IsUpper(runes[0]) {
		return s
	}

	acronymEnd := 1
	for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
		acronymEnd++
	}
	if acronymEnd > 1 && acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
		// Last uppercase before lowercase starts the next word
		acronymEnd--
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if i < acronymEnd {
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// setterName returns the Go setter method name for a property getter.
func setterName(getter string) string {
	return "Set" + getter
}
