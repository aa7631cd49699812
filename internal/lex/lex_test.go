package lex

import (
	"errors"
	"testing"

	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/stretchr/testify/assert"
)

type lexed struct {
	class  string
	lexeme string
	line   int
	col    int
}

func Test_Lexer_Lex(t *testing.T) {
	testCases := []struct {
		name   string
		lx     *Lexer
		input  string
		expect []lexed
	}{
		{
			name:  "chars skips whitespace",
			lx:    Chars(),
			input: "a b\nc",
			expect: []lexed{
				{class: ClassChar, lexeme: "a", line: 1, col: 1},
				{class: ClassChar, lexeme: "b", line: 1, col: 3},
				{class: ClassChar, lexeme: "c", line: 2, col: 1},
			},
		},
		{
			name:  "words",
			lx:    Words(),
			input: "  the  cat\tsat ",
			expect: []lexed{
				{class: ClassWord, lexeme: "the", line: 1, col: 3},
				{class: ClassWord, lexeme: "cat", line: 1, col: 8},
				{class: ClassWord, lexeme: "sat", line: 1, col: 12},
			},
		},
		{
			name: "first matching rule wins",
			lx: MustNew([]Rule{
				{Pattern: `[a-z]+`, Class: "ident"},
				{Pattern: `[a-z]`, Class: "letter"},
				{Pattern: `\+`, Class: "plus"},
			}, true),
			input: "ab+c",
			expect: []lexed{
				{class: "ident", lexeme: "ab", line: 1, col: 1},
				{class: "plus", lexeme: "+", line: 1, col: 3},
				{class: "ident", lexeme: "c", line: 1, col: 4},
			},
		},
		{
			name: "earlier rule shadows later one",
			lx: MustNew([]Rule{
				{Pattern: `if`, Class: "kw_if"},
				{Pattern: `[a-z]+`, Class: "ident"},
			}, true),
			input: "if xif",
			expect: []lexed{
				{class: "kw_if", lexeme: "if", line: 1, col: 1},
				{class: "ident", lexeme: "xif", line: 1, col: 4},
			},
		},
		{
			name: "groups in patterns",
			lx: MustNew([]Rule{
				{Pattern: `(a)(b)+`, Class: "abs"},
				{Pattern: `(?P<digit>[0-9])`, Class: "digit"},
				{Pattern: `c`, Class: "c"},
			}, true),
			input: "abb 7 c",
			expect: []lexed{
				{class: "abs", lexeme: "abb", line: 1, col: 1},
				{class: "digit", lexeme: "7", line: 1, col: 5},
				{class: "c", lexeme: "c", line: 1, col: 7},
			},
		},
		{
			name:  "empty input",
			lx:    Words(),
			input: " \n ",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// execute
			toks, err := tc.lx.Lex(tc.input).All()

			// assert
			if !assert.NoError(err) {
				return
			}
			actual := make([]lexed, len(toks))
			for i := range toks {
				actual[i] = lexed{
					class:  toks[i].Class().ID(),
					lexeme: toks[i].Lexeme(),
					line:   toks[i].Line(),
					col:    toks[i].LinePos(),
				}
			}
			if len(tc.expect) == 0 {
				assert.Empty(actual)
			} else {
				assert.Equal(tc.expect, actual)
			}
		})
	}
}

func Test_Stream_Next_error(t *testing.T) {
	assert := assert.New(t)

	lx := MustNew([]Rule{{Pattern: `[ab]`, Class: "ab"}}, true)
	stream := lx.Lex("a b\n b ? a")

	toks, err := stream.All()

	assert.Len(toks, 3)
	assert.ErrorIs(err, cykerrors.ErrMalformedInput)

	var lexErr *Error
	if !assert.True(errors.As(err, &lexErr)) {
		return
	}
	assert.Equal(2, lexErr.Line)
	assert.Equal(4, lexErr.Column)
	assert.Equal("?", lexErr.Text)
	assert.Equal(" b ? a", lexErr.FullLine)
	assert.Equal("line 2, column 4: no rule matches \"?\":\n b ? a\n   ^", lexErr.FullMessage())

	// stream ends after an error
	assert.False(stream.HasNext())
}

func Test_Lexer_whitespaceNotSkipped(t *testing.T) {
	assert := assert.New(t)

	lx := MustNew([]Rule{
		{Pattern: `\d+`, Class: "num"},
		{Pattern: ` +`, Class: "space"},
	}, false)

	toks, err := lx.Lex("1 23").All()
	if !assert.NoError(err) {
		return
	}

	var classes []string
	for _, tok := range toks {
		classes = append(classes, tok.Class().ID())
	}
	assert.Equal([]string{"num", "space", "num"}, classes)

	_, err = lx.Lex("1\t2").All()
	assert.ErrorIs(err, cykerrors.ErrMalformedInput)
}

func Test_New_errors(t *testing.T) {
	testCases := []struct {
		name  string
		rules []Rule
	}{
		{name: "no rules"},
		{name: "empty class", rules: []Rule{{Pattern: `a`}}},
		{name: "bad pattern", rules: []Rule{{Pattern: `(`, Class: "x"}}},
		{name: "matches empty string", rules: []Rule{{Pattern: `x*`, Class: "xs"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := New(tc.rules, true)

			assert.Error(err)
		})
	}
}
