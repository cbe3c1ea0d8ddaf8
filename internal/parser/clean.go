package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanText folds compatibility characters (ligatures, non-breaking and
// full-width forms) and collapses runs of whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
