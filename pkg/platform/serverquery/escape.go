package serverquery

import "strings"

// ServerQuery has its own escaping for parameter values: whitespace and
// the protocol's delimiters travel as backslash pairs.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`/`, `\/`,
	` `, `\s`,
	`|`, `\p`,
	"\a", `\a`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\v", `\v`,
)

// Escape encodes a raw value for use in a command parameter.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape decodes a parameter value from the wire. Unknown escape pairs
// and a trailing lone backslash decode to the literal character, matching
// how the server treats them.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case '\\':
			sb.WriteByte('\\')
		case '/':
			sb.WriteByte('/')
		case 's':
			sb.WriteByte(' ')
		case 'p':
			sb.WriteByte('|')
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
