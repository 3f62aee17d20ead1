package filter

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokWord   tokenKind = iota // attribute name or keyword
	tokOp                      // ==, !=, >=, <=, >, <
	tokString                  // "…" or '…'
	tokNumber                  // 42 | -3 | 1.5e9
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		ch := src[i]
		switch {
		case unicode.IsSpace(rune(ch)):
			i++
		case ch == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case ch == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			n := 1
			if i+1 < len(src) && src[i+1] == '=' {
				n = 2
			}
			op := src[i : i+n]
			if op == "=" || op == "!" {
				return nil, fmt.Errorf("position %d: unknown operator %q", i, op)
			}
			tokens = append(tokens, token{tokOp, op, i})
			i += n
		case ch == '"' || ch == '\'':
			s, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokString, s, i})
			i = next
		case isDigit(ch) || (ch == '-' && i+1 < len(src) && isDigit(src[i+1])):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || strings.IndexByte(".eE+", src[j]) >= 0) {
				j++
			}
			tokens = append(tokens, token{tokNumber, src[i:j], i})
			i = j
		case unicode.IsLetter(rune(ch)) || ch == '_':
			j := i
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || isDigit(src[j]) || src[j] == '_') {
				j++
			}
			tokens = append(tokens, token{tokWord, src[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("position %d: unexpected character %q", i, ch)
		}
	}
	return append(tokens, token{tokEOF, "", len(src)}), nil
}

// lexString reads a quoted literal starting at src[start] and returns its
// unescaped value and the index after the closing quote.
func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			if j+1 < len(src) {
				j++
				b.WriteByte(src[j])
			}
		case quote:
			return b.String(), j + 1, nil
		default:
			b.WriteByte(src[j])
		}
	}
	return "", 0, fmt.Errorf("position %d: unterminated string", start)
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
