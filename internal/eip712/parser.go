package eip712

import (
	"strconv"
	"strings"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInteger
	tokOpen
	tokClose
	tokIllegal
)

type token struct {
	kind tokenKind
	text string
}

// lexer splits a type string into identifiers, integer literals and brackets.
type lexer struct {
	src string
	pos int
}

func (l *lexer) next() token {
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}
	}
	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '[':
		l.pos++
		return token{kind: tokOpen, text: "["}
	case c == ']':
		l.pos++
		return token{kind: tokClose, text: "]"}
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: l.src[start:l.pos]}
	case isDigit(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokInteger, text: l.src[start:l.pos]}
	default:
		l.pos++
		return token{kind: tokIllegal, text: l.src[start:l.pos]}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ParseType parses a Solidity-style type string such as "uint256", "bytes32",
// "Person[]" or "int8[2][]" into a Type.
func ParseType(s string) (Type, error) {
	var (
		lex     = lexer{src: s}
		current *Type
		open    bool
		pending uint64
		depth   int
	)

	fail := func(kind error, tok string) (Type, error) {
		return Type{}, &ParseError{Kind: kind, Token: tok, Input: s}
	}

	for {
		tok := lex.next()
		switch tok.kind {
		case tokEOF:
			if open {
				return fail(ErrUnexpectedToken, "[")
			}
			if current == nil {
				return fail(ErrNonExistentType, "")
			}
			return *current, nil

		case tokIdent:
			if current != nil || open {
				return fail(ErrUnexpectedToken, tok.text)
			}
			t := elementaryType(tok.text)
			current = &t

		case tokInteger:
			if !open || pending != 0 {
				return fail(ErrUnexpectedToken, tok.text)
			}
			n, ok := parseArrayLength(tok.text)
			if !ok {
				return fail(ErrInvalidArraySize, tok.text)
			}
			pending = n

		case tokOpen:
			if current == nil || open {
				return fail(ErrUnexpectedToken, tok.text)
			}
			open = true

		case tokClose:
			if depth >= MaxArrayDepth {
				return fail(ErrUnsupportedArrayDepth, tok.text)
			}
			if !open || current == nil {
				return fail(ErrUnexpectedToken, tok.text)
			}
			inner := *current
			current = &Type{Kind: KindArray, Elem: &inner, Length: pending}
			pending = 0
			open = false
			depth++

		default:
			return fail(ErrUnexpectedToken, tok.text)
		}
	}
}

// parseArrayLength accepts a positive decimal literal without leading zeros.
func parseArrayLength(text string) (uint64, bool) {
	if text == "" || text[0] == '0' {
		return 0, false
	}
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// elementaryType maps reserved type names to their kinds. Names that only look
// like elementary types ("uint7", "bytes33") are treated as custom struct names
// and fail later as unknown types.
func elementaryType(name string) Type {
	switch name {
	case "address":
		return Type{Kind: KindAddress}
	case "bool":
		return Type{Kind: KindBool}
	case "string":
		return Type{Kind: KindString}
	case "bytes":
		return Type{Kind: KindBytes}
	case "uint":
		return Type{Kind: KindUint}
	case "int":
		return Type{Kind: KindInt}
	}

	switch {
	case strings.HasPrefix(name, "uint"):
		if n, ok := sizeSuffix(name[len("uint"):]); ok && n%8 == 0 && n >= 8 && n <= 256 {
			return Type{Kind: KindUint, Size: n}
		}
	case strings.HasPrefix(name, "int"):
		if n, ok := sizeSuffix(name[len("int"):]); ok && n%8 == 0 && n >= 8 && n <= 256 {
			return Type{Kind: KindInt, Size: n}
		}
	case strings.HasPrefix(name, "bytes"):
		if n, ok := sizeSuffix(name[len("bytes"):]); ok && n >= 1 && n <= 32 {
			return Type{Kind: KindFixedBytes, Size: n}
		}
	}
	return Type{Kind: KindCustom, Name: name}
}

func sizeSuffix(s string) (int, bool) {
	if s == "" || s[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
