package minify

import "strings"

// cssTight lists the punctuation that never needs surrounding whitespace.
const cssTight = "{};:,>~"

// CSS minifies one stylesheet fragment: comments removed, whitespace runs
// collapsed to one space, spaces around structural punctuation dropped.
// Strings and url(...) bodies are untouched.
func CSS(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	pendingSpace := false
	i := 0

	flushSpace := func(next byte) {
		if pendingSpace {
			if out.Len() > 0 && !isTight(lastByte(&out)) && !isTight(next) {
				out.WriteByte(' ')
			}
			pendingSpace = false
		}
	}

	for i < len(src) {
		c := src[i]
		switch {
		case isJSSpace(c):
			pendingSpace = true
			i++

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = len(src)
			} else {
				i += 2 + end + 2
			}
			pendingSpace = true

		case c == '"' || c == '\'':
			j := scanJSString(src, i)
			flushSpace(c)
			out.WriteString(src[i:j])
			i = j

		default:
			flushSpace(c)
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

func isTight(c byte) bool {
	return strings.IndexByte(cssTight, c) >= 0
}

func lastByte(b *strings.Builder) byte {
	s := b.String()
	return s[len(s)-1]
}
