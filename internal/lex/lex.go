// Package lex splits input text into tokens for parsing. A Lexer is an ordered
// list of rules, each a regular expression and the token class it produces,
// run by the lazy lexer of ictiobus. At each position the first rule that
// matches wins.
package lex

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"

	"github.com/dekarrin/cykparse/internal/cykerrors"
	ictiolex "github.com/dekarrin/ictiobus/lex"
)

const (
	// ClassChar is the class of tokens made by Chars.
	ClassChar = "char"

	// ClassWord is the class of tokens made by Words.
	ClassWord = "word"
)

// Rule is a single lexing rule. Pattern is a regular expression in the syntax
// of the regexp package; it is always matched at the current position.
type Rule struct {
	Pattern string
	Class   string
}

// Lexer turns text into a Stream of tokens. A Lexer is not modified by lexing
// and can be shared.
type Lexer struct {
	lx ictiolex.Lexer
}

// New creates a Lexer from the given rules. If skipWhitespace is set,
// whitespace between tokens is discarded instead of needing a rule to match
// it.
func New(rules []Rule, skipWhitespace bool) (*Lexer, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no lexer rules given")
	}

	lx := &Lexer{lx: ictiolex.NewLexer(true)}

	if skipWhitespace {
		if err := lx.lx.AddPattern(`\s+`, ictiolex.Discard(), "", 0); err != nil {
			return nil, fmt.Errorf("whitespace rule: %w", err)
		}
	}

	for i, r := range rules {
		if r.Class == "" {
			return nil, fmt.Errorf("rule %d: empty class", i+1)
		}
		pat, err := plainPattern(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, r.Class, err)
		}

		lx.lx.RegisterClass(ictiolex.NewTokenClass(r.Class, r.Class), "")
		if err := lx.lx.AddPattern(pat, ictiolex.LexAs(r.Class), "", 0); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, r.Class, err)
		}
	}

	return lx, nil
}

// plainPattern rewrites every capturing group in pat as a non-capturing one.
// The ictiobus lexer joins all patterns into one expression and finds the
// matching rule by group index, so rules cannot bring groups of their own.
// Patterns that can match the empty string are rejected.
func plainPattern(pat string) (string, error) {
	re, err := syntax.Parse(pat, syntax.Perl)
	if err != nil {
		return "", err
	}
	plain := uncapture(re).String()

	whole, err := regexp.Compile(`^(?:` + plain + `)$`)
	if err != nil {
		return "", err
	}
	if whole.MatchString("") {
		return "", fmt.Errorf("pattern %q matches the empty string", pat)
	}

	return plain, nil
}

func uncapture(re *syntax.Regexp) *syntax.Regexp {
	for re.Op == syntax.OpCapture {
		re = re.Sub[0]
	}
	for i := range re.Sub {
		re.Sub[i] = uncapture(re.Sub[i])
	}
	return re
}

// MustNew is like New but panics on error.
func MustNew(rules []Rule, skipWhitespace bool) *Lexer {
	lx, err := New(rules, skipWhitespace)
	if err != nil {
		panic(err.Error())
	}
	return lx
}

// Chars returns a Lexer that makes every rune other than whitespace its own
// token of class "char".
func Chars() *Lexer {
	return MustNew([]Rule{{Pattern: `\S`, Class: ClassChar}}, true)
}

// Words returns a Lexer that makes every whitespace-separated word a token of
// class "word".
func Words() *Lexer {
	return MustNew([]Rule{{Pattern: `\S+`, Class: ClassWord}}, true)
}

// Lex returns a Stream that reads tokens from input as they are requested.
func (lx *Lexer) Lex(input string) *Stream {
	ts, err := lx.lx.Lex(strings.NewReader(input))
	if err != nil {
		return &Stream{err: fmt.Errorf("start lexer: %w", err)}
	}
	return &Stream{ts: ts}
}

// Stream is a lazily-read sequence of tokens from a single input.
type Stream struct {
	ts ictiolex.TokenStream

	// next token, already read from ts
	next ictiolex.Token

	err  error
	done bool
}

// HasNext returns whether a call to Next would give a token or an error.
func (s *Stream) HasNext() bool {
	if s.done {
		return false
	}
	if s.err != nil {
		return true
	}
	s.fill()
	return !s.done
}

func (s *Stream) fill() {
	if s.next != nil || s.done || s.err != nil {
		return
	}
	tok := s.ts.Next()
	if tok.Class().Equal(ictiolex.TokenEndOfText) {
		s.done = true
		return
	}
	s.next = tok
}

// Next returns the next token. If no rule matches at the current position, it
// returns a *Error, and the stream ends.
func (s *Stream) Next() (ictiolex.Token, error) {
	if s.err != nil {
		s.done = true
		return nil, s.err
	}

	s.fill()
	if s.done {
		return nil, fmt.Errorf("no more tokens")
	}

	tok := s.next
	s.next = nil

	if tok.Class().Equal(ictiolex.TokenError) || tok.Lexeme() == "" {
		s.err = newError(tok)
		s.done = true
		return nil, s.err
	}

	return tok, nil
}

// All reads every remaining token. If an error occurs, the tokens read before
// it are returned along with the error.
func (s *Stream) All() ([]ictiolex.Token, error) {
	var toks []ictiolex.Token
	for s.HasNext() {
		tok, err := s.Next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// Error is returned when no lexer rule matches the input at some position. It
// matches cykerrors.ErrMalformedInput.
type Error struct {
	// Line and Column are 1-indexed.
	Line   int
	Column int

	// FullLine is the line of input the failure is on.
	FullLine string

	// Text is the rune no rule could match.
	Text string
}

// newError makes an Error from the error token the ictiobus lexer gives at the
// point no rule matched.
func newError(tok ictiolex.Token) *Error {
	e := &Error{
		Line:     tok.Line(),
		Column:   tok.LinePos(),
		FullLine: tok.FullLine(),
	}
	line := []rune(e.FullLine)
	if e.Column >= 1 && e.Column <= len(line) {
		e.Text = string(line[e.Column-1])
	}
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: no rule matches %q", e.Line, e.Column, e.Text)
}

// Is returns whether target is cykerrors.ErrMalformedInput.
func (e *Error) Is(target error) bool {
	return target == cykerrors.ErrMalformedInput
}

// FullMessage gives the error message followed by the line of input it
// happened on and a cursor pointing to the failure.
func (e *Error) FullMessage() string {
	var cursor strings.Builder
	for _, ch := range firstRunes(e.FullLine, e.Column-1) {
		if ch == '\t' {
			cursor.WriteRune('\t')
		} else {
			cursor.WriteRune(' ')
		}
	}
	return fmt.Sprintf("%s:\n%s\n%s^", e.Error(), e.FullLine, cursor.String())
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if n > len(runes) {
		n = len(runes)
	}
	if n < 0 {
		n = 0
	}
	return string(runes[:n])
}
