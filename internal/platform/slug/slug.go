// Package slug normalises user-typed route names into route keys.
package slug

import (
	"regexp"
	"strings"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Route maps "/Catalog/", " catalog " and "CATALOG" to "catalog". Inner
// runs of other characters collapse to a single "-". Input with no letters
// or digits yields "".
func Route(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.Trim(s, "/")
	s = nonAlphaNum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
