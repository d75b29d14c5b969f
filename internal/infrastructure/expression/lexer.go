package expression

import (
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokQuestion
	tokColon
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

var twoCharOps = map[string]bool{
	"<=": true, ">=": true, "==": true, "!=": true, "&&": true, "||": true,
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				if i >= len(src) || !isDigit(src[i]) {
					return nil, syntaxErr(start, "malformed number %q", src[start:i])
				}
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			if i < len(src) && (isLetter(src[i]) || src[i] == '.') {
				return nil, syntaxErr(i, "unexpected character %q after number", src[i])
			}
			v, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, syntaxErr(start, "malformed number %q", src[start:i])
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], num: v, pos: start})
		case isLetter(c):
			start := i
			for i < len(src) && (isLetter(src[i]) || isDigit(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '?':
			toks = append(toks, token{kind: tokQuestion, text: "?", pos: i})
			i++
		case c == ':':
			toks = append(toks, token{kind: tokColon, text: ":", pos: i})
			i++
		default:
			if i+1 < len(src) && twoCharOps[src[i:i+2]] {
				toks = append(toks, token{kind: tokOp, text: src[i : i+2], pos: i})
				i += 2
				continue
			}
			switch c {
			case '+', '-', '*', '/', '<', '>':
				toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
				i++
			default:
				return nil, syntaxErr(i, "unexpected character %q", c)
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
