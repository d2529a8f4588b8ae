// Package mathexpr evaluates small arithmetic expressions found in
// spoken edit requests. It supports + - * / and percent-of and rejects
// everything else; user speech must never reach a general evaluator.
package mathexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercentOf
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	value float64
}

// Evaluate parses and evaluates an arithmetic expression. Spoken
// operator words (plus, minus, times, divided by, percent of) are
// accepted alongside their symbols.
func Evaluate(input string) (float64, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, fmt.Errorf("empty expression")
	}
	p := &parser{tokens: tokens}
	result, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("unexpected trailing input")
	}
	return result, nil
}

func tokenize(input string) ([]token, error) {
	// Normalize spoken operator phrases before scanning.
	s := strings.ToLower(strings.TrimSpace(input))
	replacer := strings.NewReplacer(
		"divided by", "/",
		"percent of", "%of",
		"% of", "%of",
		"plus", "+",
		"minus", "-",
		"times", "*",
	)
	s = replacer.Replace(s)

	var tokens []token
	i := 0
	for i < len(s) {
		ch := rune(s[i])
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '+':
			tokens = append(tokens, token{kind: tokPlus})
			i++
		case ch == '-':
			tokens = append(tokens, token{kind: tokMinus})
			i++
		case ch == '*':
			tokens = append(tokens, token{kind: tokStar})
			i++
		case ch == '/':
			tokens = append(tokens, token{kind: tokSlash})
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case ch == '%':
			if strings.HasPrefix(s[i:], "%of") {
				tokens = append(tokens, token{kind: tokPercentOf})
				i += 3
			} else {
				return nil, fmt.Errorf("unexpected character %q", ch)
			}
		case unicode.IsDigit(ch) || ch == '.':
			j := i
			for j < len(s) && (unicode.IsDigit(rune(s[j])) || s[j] == '.' || s[j] == ',') {
				j++
			}
			numText := strings.ReplaceAll(s[i:j], ",", "")
			value, err := strconv.ParseFloat(numText, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", s[i:j])
			}
			tokens = append(tokens, token{kind: tokNumber, value: value})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", ch)
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		tok, ok := p.peek()
		if !ok || (tok.kind != tokPlus && tok.kind != tokMinus) {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if tok.kind == tokPlus {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		tok, ok := p.peek()
		if !ok || (tok.kind != tokStar && tok.kind != tokSlash && tok.kind != tokPercentOf) {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		switch tok.kind {
		case tokStar:
			left *= right
		case tokSlash:
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case tokPercentOf:
			// "20 percent of 50" = 10
			left = left / 100 * right
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	tok, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	switch tok.kind {
	case tokNumber:
		p.pos++
		return tok.value, nil
	case tokMinus:
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case tokLParen:
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		next, ok := p.peek()
		if !ok || next.kind != tokRParen {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected token")
	}
}
