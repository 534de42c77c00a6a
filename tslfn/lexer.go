package tslfn

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// multi-character punctuators, longest first.
var puncts = []string{
	"===", "!==", "=>", "==", "!=", "<=", ">=", "&&", "||", "**",
	"(", ")", "[", "]", "{", "}", ",", ";", ".", "=", "+", "-", "*", "/", "%",
	"<", ">", "!", "?", ":",
}

// lex splits code into tokens. Comments are skipped.
func lex(code string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(code) {
		c := code[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.HasPrefix(code[i:], "//"):
			end := strings.IndexByte(code[i:], '\n')
			if end < 0 {
				i = len(code)
			} else {
				i += end
			}
		case strings.HasPrefix(code[i:], "/*"):
			end := strings.Index(code[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated comment at offset %d", i)
			}
			i += end + 4
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for j < len(code) && code[j] != c {
				if code[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(code) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			toks = append(toks, token{kind: tokString, text: code[i+1 : j], pos: i})
			i = j + 1
		case isDigit(c) || (c == '.' && i+1 < len(code) && isDigit(code[i+1])):
			j := i
			for j < len(code) && (isDigit(code[j]) || code[j] == '.' || code[j] == 'e' || code[j] == 'E' ||
				((code[j] == '-' || code[j] == '+') && (code[j-1] == 'e' || code[j-1] == 'E')) ||
				code[j] == 'x' || code[j] == 'X' || isHex(code[j])) {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: code[i:j], pos: i})
			i = j
		case isIdentStart(code[i:]):
			j := i
			for j < len(code) {
				r, sz := utf8.DecodeRuneInString(code[j:])
				if !(r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
					break
				}
				j += sz
			}
			toks = append(toks, token{kind: tokIdent, text: code[i:j], pos: i})
			i = j
		default:
			matched := false
			for _, p := range puncts {
				if strings.HasPrefix(code[i:], p) {
					toks = append(toks, token{kind: tokPunct, text: p, pos: i})
					i += len(p)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected character %q at offset %d", code[i], i)
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(code)})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

// StripComments removes line and block comments outside of string literals.
func StripComments(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			j := i + 1
			for j < len(code) && code[j] != c {
				if code[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(code) {
				j = len(code) - 1
			}
			sb.WriteString(code[i : j+1])
			i = j
		case strings.HasPrefix(code[i:], "//"):
			end := strings.IndexByte(code[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1
		case strings.HasPrefix(code[i:], "/*"):
			end := strings.Index(code[i+2:], "*/")
			if end < 0 {
				return sb.String()
			}
			i += end + 3
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Normalize strips comments and collapses runs of whitespace into single
// spaces so the code fits on one line.
func Normalize(code string) string {
	return strings.Join(strings.Fields(StripComments(code)), " ")
}
