package lang

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokOp     // == != <= >= < > && || ! + - * / =
	tokLParen // (
	tokRParen // )
	tokLBrace // {
	tokRBrace // }
	tokSemi   // ;
	tokComma  // ,
)

type token struct {
	kind tokenKind
	text string
	line int
}

// lex tokenizes source. Dotted identifiers like `in.functionName` are kept as
// one token since the dialect has no other use for '.'. Comments are dropped.
func lex(src string) []token {
	var toks []token
	line := 1
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				if src[i] == '\n' {
					line++
				}
				i++
			}
			i += 2
		case c == '"':
			j := i + 1
			var sb strings.Builder
			for j < n && src[j] != '"' {
				if src[j] == '\\' && j+1 < n {
					j++
				}
				sb.WriteByte(src[j])
				j++
			}
			toks = append(toks, token{tokString, sb.String(), line})
			i = j + 1
		case isIdentStart(c):
			j := i
			for j < n && (isIdentPart(src[j]) || (src[j] == '.' && j+1 < n && isIdentStart(src[j+1]))) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], line})
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < n && (src[j] >= '0' && src[j] <= '9') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j], line})
			i = j
		default:
			if i+1 < n {
				two := src[i : i+2]
				switch two {
				case "==", "!=", "<=", ">=", "&&", "||":
					toks = append(toks, token{tokOp, two, line})
					i += 2
					continue
				}
			}
			switch c {
			case '(':
				toks = append(toks, token{tokLParen, "(", line})
			case ')':
				toks = append(toks, token{tokRParen, ")", line})
			case '{':
				toks = append(toks, token{tokLBrace, "{", line})
			case '}':
				toks = append(toks, token{tokRBrace, "}", line})
			case ';':
				toks = append(toks, token{tokSemi, ";", line})
			case ',':
				toks = append(toks, token{tokComma, ",", line})
			case '!', '<', '>', '=', '+', '-', '*', '/', '&':
				toks = append(toks, token{tokOp, string(c), line})
			}
			// anything else (stray punctuation) is skipped
			i++
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
