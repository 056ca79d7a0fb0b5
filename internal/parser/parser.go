// Package parser implements the recursive-descent parser for the restricted
// object grammar:
//
//	object       := '{' ws ( member (',' member)* )? ws '}'
//	member       := key ':' value
//	key          := quotedString | identifier
//	value        := quotedString | integer   -- chosen by the key's class
//	quotedString := '"' ( '\' any | rawChar )* '"'
//	identifier   := [A-Za-z_][A-Za-z0-9_]*
//	integer      := ['+'|'-'] digit+
//
// Whitespace (space, tab, CR, LF) may precede every token. A backslash inside
// a quoted string consumes the next byte without interpreting it; the raw
// bytes, backslash included, are kept.
package parser

import (
	"fmt"
	"strconv"

	"github.com/MikhailWahib/bjson/internal/arena"
	"github.com/MikhailWahib/bjson/internal/derrors"
	"github.com/MikhailWahib/bjson/internal/record"
	"github.com/MikhailWahib/bjson/internal/schema"
)

// Options configures the parser.
type Options struct {
	// Strict rejects objects that repeat a key.
	Strict bool
}

type parser struct {
	src   []byte
	pos   int
	arena *arena.Arena
	opts  Options
	seen  map[string]struct{}
}

// Parse parses text as one object and returns its members in source order.
//
// Keys and string values are duplicated into a; the returned entries are
// valid until a is released. Parsing is all-or-nothing: on error no entries
// are returned.
func Parse(text []byte, a *arena.Arena, opts Options) (_ []record.Entry, err error) {
	defer derrors.Wrap(&err, "parse")

	if len(text) == 0 {
		return nil, fmt.Errorf("empty input: %w", derrors.InvalidArgument)
	}
	if a == nil {
		return nil, fmt.Errorf("nil arena: %w", derrors.InvalidArgument)
	}
	p := &parser{src: text, arena: a, opts: opts}
	if opts.Strict {
		p.seen = make(map[string]struct{})
	}
	entries, err := p.object()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf(derrors.SyntaxError, "trailing input after '}'")
	}
	return entries, nil
}

func (p *parser) object() ([]record.Entry, error) {
	if !p.eat('{') {
		return nil, p.errorf(derrors.SyntaxError, "expected '{'")
	}
	var entries []record.Entry
	if p.eat('}') {
		return entries, nil
	}
	for {
		e, err := p.member()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		if p.eat('}') {
			return entries, nil
		}
		if !p.eat(',') {
			return nil, p.errorf(derrors.SyntaxError, "expected ',' or '}'")
		}
	}
}

func (p *parser) member() (record.Entry, error) {
	keyPos := p.pos
	key, err := p.stringOrIdent()
	if err != nil {
		return record.Entry{}, err
	}
	if !p.eat(':') {
		return record.Entry{}, p.errorf(derrors.SyntaxError, "expected ':'")
	}
	class, err := schema.Classify(key)
	if err != nil {
		return record.Entry{}, fmt.Errorf("offset %d: %w", keyPos, err)
	}
	if p.seen != nil {
		if _, dup := p.seen[string(key)]; dup {
			return record.Entry{}, fmt.Errorf("offset %d: duplicate key %q: %w", keyPos, key, derrors.SyntaxError)
		}
		p.seen[string(key)] = struct{}{}
	}

	e := record.Entry{Type: class.Type, Key: key, MaxLen: class.MaxLen, Width: class.Width}
	valuePos := p.pos
	if class.Type == record.TypeString {
		s, err := p.stringOrIdent()
		if err != nil {
			return record.Entry{}, err
		}
		if err := class.CheckString(len(s)); err != nil {
			return record.Entry{}, fmt.Errorf("offset %d: %w", valuePos, err)
		}
		e.Str = s
	} else {
		v, err := p.integer()
		if err != nil {
			return record.Entry{}, err
		}
		if err := class.CheckInt(v); err != nil {
			return record.Entry{}, fmt.Errorf("offset %d: %w", valuePos, err)
		}
		e.Int = v
	}
	return e, nil
}

// stringOrIdent parses a quoted string or an identifier and duplicates its
// raw bytes into the arena.
func (p *parser) stringOrIdent() ([]byte, error) {
	p.skipSpace()
	start := p.pos
	if p.eat('"') {
		start = p.pos
		for p.pos < len(p.src) {
			c := p.src[p.pos]
			p.pos++
			switch c {
			case '"':
				return p.arena.Duplicate(p.src[start : p.pos-1])
			case '\\':
				if p.pos >= len(p.src) {
					return nil, p.errorf(derrors.SyntaxError, "dangling escape")
				}
				p.pos++
			}
		}
		p.pos = start - 1
		return nil, p.errorf(derrors.SyntaxError, "unterminated string")
	}
	if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
		return nil, p.errorf(derrors.SyntaxError, "expected string or identifier")
	}
	p.pos++
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	return p.arena.Duplicate(p.src[start:p.pos])
}

func (p *parser) integer() (int64, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
		p.pos++
	}
	digits := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == digits {
		p.pos = start
		return 0, p.errorf(derrors.SyntaxError, "expected integer")
	}
	v, err := strconv.ParseInt(string(p.src[start:p.pos]), 10, 64)
	if err != nil {
		// Only a range error is possible for a well-formed literal.
		return 0, fmt.Errorf("offset %d: integer %s overflows: %w", start, p.src[start:p.pos], derrors.TypeOrRange)
	}
	return v, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

// eat consumes c if it is the next token.
func (p *parser) eat(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(kind error, format string, args ...any) error {
	found := "end of input"
	if p.pos < len(p.src) {
		found = strconv.QuoteRune(rune(p.src[p.pos]))
	}
	return fmt.Errorf("offset %d: %s, found %s: %w", p.pos, fmt.Sprintf(format, args...), found, kind)
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdent(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
