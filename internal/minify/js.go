// Package minify compresses embedded script and style content. The
// scanners are deliberately small: comments out, whitespace collapsed,
// everything semantic (strings, regex literals, token boundaries) kept
// byte-for-byte. Fragments may start or end mid-statement because template
// expressions sit between them, so boundary whitespace next to word tokens
// survives as a single space.
package minify

import "strings"

type tokClass uint8

const (
	tokNone  tokClass = iota
	tokWord           // identifier, keyword, number
	tokPunct          // operator or punctuation
	tokValue          // `)` `]` string end: a `/` after these divides
)

// JS minifies one JavaScript fragment.
func JS(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	prev := tokNone
	leadIn := leadingSpaceMatters(src)
	pendingSpace := leadIn
	i := 0

	emit := func(class tokClass, text string) {
		if pendingSpace && class == tokWord && (prev == tokWord || prev == tokNone && leadIn) {
			out.WriteByte(' ')
		}
		out.WriteString(text)
		pendingSpace = false
		prev = class
	}

	for i < len(src) {
		c := src[i]
		switch {
		case isJSSpace(c):
			j := i
			for j < len(src) && isJSSpace(src[j]) {
				j++
			}
			pendingSpace = true
			i = j

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}

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
			emit(tokValue, src[i:j])
			i = j

		case c == '/':
			if prev == tokWord || prev == tokValue {
				emit(tokPunct, "/")
				i++
			} else {
				j := scanRegex(src, i)
				emit(tokValue, src[i:j])
				i = j
			}

		case isJSWord(c):
			j := i
			for j < len(src) && isJSWord(src[j]) {
				j++
			}
			emit(tokWord, src[i:j])
			i = j

		case c == ')' || c == ']':
			emit(tokValue, string(c))
			i++

		default:
			emit(tokPunct, string(c))
			i++
		}
	}

	result := out.String()
	if pendingSpace && trailingSpaceMatters(result) {
		result += " "
	}
	return result
}

// leadingSpaceMatters keeps one space at the front of a fragment whose
// source starts with whitespace: the preceding fragment may end in a word
// token (`{{ a }} in b`).
func leadingSpaceMatters(src string) bool {
	return len(src) > 0 && isJSSpace(src[0])
}

func trailingSpaceMatters(minified string) bool {
	return len(minified) > 0 && isJSWord(minified[len(minified)-1])
}

func isJSSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isJSWord(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '$'
}

func scanJSString(src string, i int) int {
	quote := src[i]
	j := i + 1
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
		case quote:
			return j + 1
		default:
			j++
		}
	}
	return j
}

// scanRegex consumes a regex literal including flags; `/` inside a
// character class does not terminate it.
func scanRegex(src string, i int) int {
	j := i + 1
	inClass := false
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
			continue
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				j++
				for j < len(src) && isJSWord(src[j]) {
					j++
				}
				return j
			}
		case '\n':
			// Not a regex after all; stop rather than swallow the line.
			return j
		}
		j++
	}
	return j
}
