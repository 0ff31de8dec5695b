package renderer

import "strings"

var jsRegexSpecials = strings.NewReplacer(
	`\`, `\\`, `/`, `\/`, `.`, `\.`, `*`, `\*`, `+`, `\+`, `?`, `\?`,
	`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
	`|`, `\|`, `^`, `\^`, `$`, `\$`,
)

// regexpEscape quotes s for use inside a JavaScript regex literal.
func regexpEscape(s string) string {
	return jsRegexSpecials.Replace(s)
}
