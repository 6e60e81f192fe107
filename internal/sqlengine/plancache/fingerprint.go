package plancache

import (
	"regexp"
	"strings"
)

// vectorLiteralPattern matches a bracketed numeric literal, flat or
// nested (matrix), the same shape lexer.scanVector accepts.
var vectorLiteralPattern = regexp.MustCompile(`\[[\d\s,.\-+eE\[\]]*\]`)

// Fingerprint normalizes query text for cache keying (spec §4.4 "Plan
// cache"): vector/matrix literals are replaced by a single placeholder
// token so that two queries differing only in their embedded vector
// literal collide on the same cache entry, while any other token
// difference (field name, limit, ...) changes the fingerprint and
// misses the cache (spec §8.4 property 14).
func Fingerprint(query string) string {
	collapsed := strings.Join(strings.Fields(query), " ")
	return vectorLiteralPattern.ReplaceAllString(collapsed, "?VEC?")
}
