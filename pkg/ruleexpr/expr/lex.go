package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// literalMark delimits literal placeholders in the working text. The lexer
// rejects sources that contain it, so no identifier can collide with a
// placeholder.
const literalMark = '\x00'

// padChars are padded with whitespace outside function-call brackets.
const padChars = "=!<>+-*/()"

var (
	// literalPattern matches one double-quoted, non-nested string.
	literalPattern = regexp.MustCompile(`"[^"]*"`)

	// stitchPattern re-joins the two halves of <=, >= and != after padding.
	stitchPattern = regexp.MustCompile(`([<>!])\s+=`)

	// placeholderPattern matches a literal placeholder in the working text.
	placeholderPattern = regexp.MustCompile(`\x00[0-9]+\x00`)
)

// lex turns source text into tokens and the table of extracted literals.
func lex(src string) ([]Token, []string, error) {
	text, literals, err := extractLiterals(src)
	if err != nil {
		return nil, nil, err
	}

	padded, err := pad(text)
	if err != nil {
		return nil, nil, &SyntaxError{Source: src, Offset: -1, Err: err}
	}
	padded = stitchPattern.ReplaceAllString(padded, "$1=")

	fields := strings.Fields(padded)
	tokens := make([]Token, 0, len(fields))
	for _, frag := range fields {
		tok, err := classify(frag, literals)
		if err != nil {
			return nil, nil, &SyntaxError{Source: src, Offset: -1, Err: err}
		}
		tokens = append(tokens, tok)
	}
	return tokens, literals, nil
}

// extractLiterals replaces every quoted string with a placeholder and
// records the unquoted text in order of appearance.
func extractLiterals(src string) (string, []string, error) {
	if i := strings.IndexByte(src, literalMark); i >= 0 {
		return "", nil, &SyntaxError{Source: src, Offset: i, Err: ErrReservedCharacter}
	}

	var (
		b        strings.Builder
		literals []string
		last     int
	)
	for _, m := range literalPattern.FindAllStringIndex(src, -1) {
		if err := checkStrayQuote(src, last, m[0]); err != nil {
			return "", nil, err
		}
		b.WriteString(src[last:m[0]])
		b.WriteString(placeholder(len(literals)))
		literals = append(literals, src[m[0]+1:m[1]-1])
		last = m[1]
	}
	if err := checkStrayQuote(src, last, len(src)); err != nil {
		return "", nil, err
	}
	b.WriteString(src[last:])
	return b.String(), literals, nil
}

// checkStrayQuote reports a quote left between two literal matches.
func checkStrayQuote(src string, from, to int) error {
	if i := strings.IndexByte(src[from:to], '"'); i >= 0 {
		return &SyntaxError{Source: src, Offset: from + i, Err: ErrUnterminatedLiteral}
	}
	return nil
}

// placeholder returns the working-text marker for literal i.
func placeholder(i int) string {
	return string(literalMark) + strconv.Itoa(i) + string(literalMark)
}

// literalIndex reports whether s is exactly a placeholder and returns its index.
func literalIndex(s string) (int, bool) {
	if len(s) < 3 || s[0] != literalMark || s[len(s)-1] != literalMark {
		return -1, false
	}
	i, err := strconv.Atoi(s[1 : len(s)-1])
	if err != nil || i < 0 {
		return -1, false
	}
	return i, true
}

// pad surrounds operator characters and parentheses with spaces, and
// collapses each function call into a single whitespace-free fragment.
// Nothing inside brackets is padded.
func pad(s string) (string, error) {
	out := make([]byte, 0, len(s)*2)
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			if depth == 0 {
				out = trimTrailingSpace(out)
			}
			depth++
			out = append(out, c)
		case c == ']':
			if depth == 0 {
				return "", ErrUnbalancedBracket
			}
			depth--
			out = append(out, c)
		case depth > 0:
			if !isSpace(c) {
				out = append(out, c)
			}
		case strings.IndexByte(padChars, c) >= 0:
			out = append(out, ' ', c, ' ')
		default:
			out = append(out, c)
		}
	}
	if depth != 0 {
		return "", ErrUnbalancedBracket
	}
	return string(out), nil
}

func trimTrailingSpace(b []byte) []byte {
	for len(b) > 0 && isSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// classify turns one whitespace-delimited fragment into a token.
func classify(frag string, literals []string) (Token, error) {
	switch {
	case frag == "(" || frag == ")":
		return Token{Kind: KindParen, Text: frag, Literal: -1}, nil
	case isOperator(frag):
		return Token{Kind: KindOperator, Text: frag, Literal: -1}, nil
	case strings.Contains(frag, "["):
		call, err := parseCall(frag, literals)
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: KindFunction, Text: callText(call), Literal: -1, Call: call}, nil
	case isUnsigned(frag):
		n, err := strconv.ParseInt(frag, 10, 64)
		if err != nil {
			return Token{}, fmt.Errorf("integer literal %s: %w", frag, err)
		}
		return Token{Kind: KindValue, Text: frag, Value: n, Literal: -1}, nil
	case frag == "true" || frag == "false":
		return Token{Kind: KindValue, Text: frag, Value: frag == "true", Literal: -1}, nil
	}

	if i, ok := literalIndex(frag); ok && i < len(literals) {
		return Token{Kind: KindAttribute, Text: strconv.Quote(literals[i]), Literal: i}, nil
	}
	if strings.ContainsRune(frag, literalMark) {
		return Token{}, fmt.Errorf("%w: %s", ErrMisplacedLiteral, displayText(frag, literals))
	}
	return Token{Kind: KindAttribute, Text: frag, Literal: -1}, nil
}

// parseCall splits name[arg1,arg2] into its parts.
func parseCall(frag string, literals []string) (*Call, error) {
	open := strings.IndexByte(frag, '[')
	name := frag[:open]
	if name == "" || strings.ContainsAny(name, padChars+"]") || !strings.HasSuffix(frag, "]") {
		return nil, fmt.Errorf("%w: %s", ErrMalformedCall, displayText(frag, literals))
	}

	inner := frag[open+1 : len(frag)-1]
	if strings.ContainsAny(inner, "[]") {
		return nil, fmt.Errorf("%w: nested call in %s", ErrMalformedCall, displayText(frag, literals))
	}

	call := &Call{Name: name}
	if inner == "" {
		return call, nil
	}
	for _, raw := range strings.Split(inner, ",") {
		if i, ok := literalIndex(raw); ok && i < len(literals) {
			call.Args = append(call.Args, Arg{Text: strconv.Quote(literals[i]), Literal: i})
			continue
		}
		if strings.ContainsRune(raw, literalMark) {
			return nil, fmt.Errorf("%w: %s", ErrMisplacedLiteral, displayText(frag, literals))
		}
		call.Args = append(call.Args, Arg{Text: raw, Literal: -1})
	}
	return call, nil
}

// callText renders a call the way it would be written.
func callText(c *Call) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Text
	}
	return c.Name + "[" + strings.Join(args, ",") + "]"
}

// displayText restores placeholders in frag for error messages.
func displayText(frag string, literals []string) string {
	return placeholderPattern.ReplaceAllStringFunc(frag, func(m string) string {
		if i, ok := literalIndex(m); ok && i < len(literals) {
			return strconv.Quote(literals[i])
		}
		return m
	})
}

func isUnsigned(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
