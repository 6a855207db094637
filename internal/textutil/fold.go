package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FoldKey returns a case-folded, whitespace-normalized comparison key.
func FoldKey(value string) string {
	return cases.Fold().String(NormalizeWhitespace(value))
}

// TitleCase capitalizes each word using English casing rules.
func TitleCase(value string) string {
	return cases.Title(language.English).String(strings.ToLower(value))
}
