package asm

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed assembly text.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type token struct {
	text   string
	quoted bool
}

type line struct {
	num    int
	tokens []token
}

// lex splits text into non-empty lines of tokens. Comments run from ';' to
// the end of the line unless the ';' is inside a string.
func lex(text string) ([]line, error) {
	var out []line
	for i, raw := range strings.Split(text, "\n") {
		toks, err := lexLine(raw)
		if err != nil {
			return nil, &SyntaxError{Line: i + 1, Message: err.Error()}
		}
		if len(toks) > 0 {
			out = append(out, line{num: i + 1, tokens: toks})
		}
	}
	return out, nil
}

func lexLine(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ';':
			return toks, nil
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"':
			var sb strings.Builder
			i++
			closed := false
			for i < len(s) {
				if s[i] == '\\' && i+1 < len(s) {
					sb.WriteByte(s[i+1])
					i += 2
					continue
				}
				if s[i] == '"' {
					closed = true
					i++
					break
				}
				sb.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, token{text: sb.String(), quoted: true})
		case c == '=':
			toks = append(toks, token{text: "="})
			i++
		default:
			start := i
			for i < len(s) && !strings.ContainsRune(" \t\r;=\"", rune(s[i])) {
				i++
			}
			toks = append(toks, token{text: s[start:i]})
		}
	}
	return toks, nil
}
