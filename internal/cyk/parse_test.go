package cyk

import (
	"strings"
	"testing"

	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/dekarrin/cykparse/internal/lex"
	"github.com/stretchr/testify/assert"
)

const (
	textbookGrammar = "S -> A B | B C\nA -> B A | 'a'\nB -> C C | 'b'\nC -> A B | 'a'"
	balancedGrammar = "S -> A S B | ε\nA -> 'a'\nB -> 'b'"
)

// setupParser parses and converts text and gives a Parser for the result,
// failing the test immediately on any error.
func setupParser(t *testing.T, text string) *Parser {
	g, err := grammar.ParseText(text)
	if err != nil {
		t.Fatalf("setup grammar: %v", err)
	}
	cnf, err := grammar.Convert(g)
	if err != nil {
		t.Fatalf("convert grammar: %v", err)
	}
	p, err := New(cnf)
	if err != nil {
		t.Fatalf("create parser: %v", err)
	}
	return p
}

func Test_Parser_Parse(t *testing.T) {
	testCases := []struct {
		name    string
		grammar string
		input   string
		expect  bool
	}{
		{name: "textbook accepts baaba", grammar: textbookGrammar, input: "baaba", expect: true},
		{name: "textbook accepts ba", grammar: textbookGrammar, input: "ba", expect: true},
		{name: "textbook rejects bb", grammar: textbookGrammar, input: "bb", expect: false},
		{name: "textbook rejects b", grammar: textbookGrammar, input: "b", expect: false},
		{name: "textbook rejects empty", grammar: textbookGrammar, input: "", expect: false},
		{name: "balanced accepts empty", grammar: balancedGrammar, input: "", expect: true},
		{name: "balanced accepts ab", grammar: balancedGrammar, input: "ab", expect: true},
		{name: "balanced accepts aabb", grammar: balancedGrammar, input: "aabb", expect: true},
		{name: "balanced rejects ba", grammar: balancedGrammar, input: "ba", expect: false},
		{name: "balanced rejects aab", grammar: balancedGrammar, input: "aab", expect: false},
		{name: "unit cycle accepts x", grammar: "A -> B | 'x'\nB -> A", input: "x", expect: true},
		{name: "unit cycle rejects xx", grammar: "A -> B | 'x'\nB -> A", input: "xx", expect: false},
		{name: "unit cycle rejects empty", grammar: "A -> B | 'x'\nB -> A", input: "", expect: false},
		{name: "unknown terminal rejects", grammar: balancedGrammar, input: "ac", expect: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			p := setupParser(t, tc.grammar)

			// execute
			actual, err := p.Parse(splitChars(tc.input))

			// assert
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, actual.Accepted)
			if tc.expect {
				if assert.NotNil(actual.Tree) {
					assert.Equal(p.Grammar().StartSymbol(), actual.Tree.Value)
					assert.Equal(tc.input, leafText(actual.Tree))
				}
			} else {
				assert.Nil(actual.Tree)
			}
		})
	}
}

// Test_Parser_matchesReference checks that parsing with the converted grammar
// accepts exactly the strings that the unconverted grammar derives.
func Test_Parser_matchesReference(t *testing.T) {
	testCases := []struct {
		name    string
		grammar string
		maxLen  int
	}{
		{name: "textbook", grammar: textbookGrammar, maxLen: 6},
		{name: "balanced", grammar: balancedGrammar, maxLen: 7},
		{name: "parens", grammar: "S -> S S | '(' S ')' | ε", maxLen: 7},
		{name: "expressions", grammar: "E -> E '+' T | T\nT -> T '*' F | F\nF -> '(' E ')' | 'n'", maxLen: 5},
		{name: "all nullable", grammar: "S -> A B C\nA -> 'a' | ε\nB -> 'b' | ε\nC -> 'c' | ε", maxLen: 4},
		{name: "unit chain with cycle", grammar: "S -> A | 'x'\nA -> B\nB -> S | 'y' 'y' | 'y' S", maxLen: 5},
		{name: "palindromes", grammar: "P -> 'a' P 'a' | 'b' P 'b' | 'a' | 'b' | ε", maxLen: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			g, err := grammar.ParseText(tc.grammar)
			if !assert.NoError(err) {
				return
			}
			p := setupParser(t, tc.grammar)

			for _, input := range allStrings(g.Terminals(), tc.maxLen) {
				// execute
				actual, err := p.Parse(input)
				if !assert.NoError(err) {
					return
				}

				// assert
				expect := referenceAccepts(g, input)
				if !assert.Equal(expect, actual.Accepted, "input %q", strings.Join(input, " ")) {
					return
				}
			}
		})
	}
}

func Test_Parser_Parse_table(t *testing.T) {
	assert := assert.New(t)

	p := setupParser(t, textbookGrammar)

	actual, err := p.Parse(splitChars("baaba"))
	if !assert.NoError(err) {
		return
	}

	tbl := actual.Table
	assert.Equal(5, tbl.Len())
	assert.Equal([]string{"B"}, tbl.Cell(0, 1))
	assert.Equal([]string{"A", "C"}, tbl.Cell(1, 1))
	assert.Contains(tbl.Cell(0, 5), "S")
	assert.Nil(tbl.Cell(3, 3))

	w, ok := tbl.Witness(0, 1, "B")
	assert.True(ok)
	assert.True(w.IsTerminal())
	assert.Equal(0, w.Split)

	w, ok = tbl.Witness(0, 5, "S")
	if assert.True(ok) {
		assert.False(w.IsTerminal())
		assert.True(tbl.Has(0, w.Split, w.Left))
		assert.True(tbl.Has(w.Split, 5-w.Split, w.Right))
	}

	out := tbl.String()
	assert.Contains(out, "Length")
	assert.Contains(out, "0:b")
}

func Test_Parser_Parse_tree(t *testing.T) {
	assert := assert.New(t)

	p := setupParser(t, balancedGrammar)

	actual, err := p.Parse([]string{"a", "b"})
	if !assert.NoError(err) || !assert.True(actual.Accepted) {
		return
	}

	expect := strings.Join([]string{
		"( S )",
		"  |---: ( A )",
		"  |     " + `  \---: (TERM "a")`,
		`  \---: ( X1 )`,
		"        " + `  \---: (TERM "b")`,
	}, "\n")
	assert.Equal(expect, actual.Tree.String())
}

func Test_Parser_Parse_emptyTree(t *testing.T) {
	assert := assert.New(t)

	p := setupParser(t, balancedGrammar)

	actual, err := p.Parse(nil)

	assert.NoError(err)
	assert.True(actual.Accepted)
	if assert.NotNil(actual.Tree) {
		assert.True(actual.Tree.Equal(Tree{Value: "S"}))
	}
	assert.Equal(0, actual.Table.Len())
}

func Test_Parser_Parse_witnessOrder(t *testing.T) {
	testCases := []struct {
		name        string
		grammar     string
		input       string
		expectSplit int
		expectLeft  string
		expectRight string
	}{
		{
			name:        "lowest split wins",
			grammar:     "S -> S S | 'a'",
			input:       "aaa",
			expectSplit: 1,
			expectLeft:  "S",
			expectRight: "S",
		},
		{
			name:        "earlier production wins at the same split",
			grammar:     "S -> A B | A C\nA -> 'a'\nB -> 'b'\nC -> 'b'",
			input:       "ab",
			expectSplit: 1,
			expectLeft:  "A",
			expectRight: "B",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			p := setupParser(t, tc.grammar)

			// execute
			actual, err := p.Parse(splitChars(tc.input))

			// assert
			if !assert.NoError(err) {
				return
			}
			assert.True(actual.Accepted)
			w, ok := actual.Table.Witness(0, len(tc.input), "S")
			if !assert.True(ok) {
				return
			}
			assert.Equal(Witness{Split: tc.expectSplit, Left: tc.expectLeft, Right: tc.expectRight}, w)
		})
	}
}

func Test_Parser_emptyLanguage(t *testing.T) {
	testCases := []struct {
		name    string
		grammar string
	}{
		{name: "pure unit cycle", grammar: "S -> A\nA -> S"},
		{name: "non-terminating nonterminal", grammar: "S -> A 'b'\nA -> A"},
		{name: "nullable helper cannot save it", grammar: "S -> A 'b' 'b'\nA -> A\nB -> ε"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			p := setupParser(t, tc.grammar)

			for _, input := range []string{"", "b", "bb", "ab"} {
				// execute
				actual, err := p.Parse(splitChars(input))

				// assert
				if !assert.NoError(err, "input %q", input) {
					return
				}
				assert.False(actual.Accepted, "input %q", input)
				assert.Nil(actual.Tree, "input %q", input)
			}
			assert.True(p.Grammar().EmptyLanguage())
		})
	}
}

func Test_New_notCNF(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParse("S -> A 'b'\nA -> 'a'")

	_, err := New(g)

	assert.ErrorIs(err, cykerrors.ErrGrammar)
}

func Test_Parser_MaxTokens(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParse("S -> S S | 'a'")
	p, err := NewWithOptions(g, Options{MaxTokens: 3})
	if !assert.NoError(err) {
		return
	}

	_, err = p.Parse([]string{"a", "a", "a"})
	assert.NoError(err)

	_, err = p.Parse([]string{"a", "a", "a", "a"})
	assert.ErrorIs(err, cykerrors.ErrInputTooLong)

	_, err = p.ParseTokens(lex.Chars().Lex("aaaa"), MatchLexeme)
	assert.ErrorIs(err, cykerrors.ErrInputTooLong)
}

func Test_Parser_ParseTokens(t *testing.T) {
	testCases := []struct {
		name      string
		grammar   string
		lexer     *lex.Lexer
		mode      MatchMode
		input     string
		expect    bool
		expectErr error
	}{
		{
			name:    "lexemes accepted",
			grammar: "S -> 'the' N\nN -> 'cat' | 'dog'",
			lexer:   lex.Words(),
			mode:    MatchLexeme,
			input:   "the  dog",
			expect:  true,
		},
		{
			name:    "lexemes rejected",
			grammar: "S -> 'the' N\nN -> 'cat' | 'dog'",
			lexer:   lex.Words(),
			mode:    MatchLexeme,
			input:   "dog the",
			expect:  false,
		},
		{
			name:    "classes accepted",
			grammar: "E -> E 'plus' E | 'num'",
			lexer: lex.MustNew([]lex.Rule{
				{Pattern: `\d+`, Class: "num"},
				{Pattern: `\+`, Class: "plus"},
			}, true),
			mode:   MatchClass,
			input:  "12 + 3+456",
			expect: true,
		},
		{
			name:    "malformed input is an error",
			grammar: "E -> E 'plus' E | 'num'",
			lexer: lex.MustNew([]lex.Rule{
				{Pattern: `\d+`, Class: "num"},
				{Pattern: `\+`, Class: "plus"},
			}, true),
			mode:      MatchClass,
			input:     "12 - 3",
			expectErr: cykerrors.ErrMalformedInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			p := setupParser(t, tc.grammar)

			// execute
			actual, err := p.ParseTokens(tc.lexer.Lex(tc.input), tc.mode)

			// assert
			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, actual.Accepted)
			if tc.expect {
				for _, leaf := range actual.Tree.Leaves() {
					assert.NotNil(leaf.Source, "leaf %q has no source token", leaf.Value)
				}
			}
		})
	}
}

func Test_Parser_concurrent(t *testing.T) {
	assert := assert.New(t)

	p := setupParser(t, balancedGrammar)

	results := make(chan bool)
	for i := 0; i < 8; i++ {
		go func(n int) {
			input := strings.Repeat("a", n) + strings.Repeat("b", n)
			res, err := p.Parse(splitChars(input))
			results <- err == nil && res.Accepted
		}(i)
	}

	for i := 0; i < 8; i++ {
		assert.True(<-results)
	}
}

func splitChars(s string) []string {
	var toks []string
	for _, ch := range s {
		toks = append(toks, string(ch))
	}
	return toks
}

func leafText(tr *Tree) string {
	var sb strings.Builder
	for _, leaf := range tr.Leaves() {
		sb.WriteString(leaf.Value)
	}
	return sb.String()
}

// allStrings gives every sequence over alphabet of length 0 to maxLen.
func allStrings(alphabet []string, maxLen int) [][]string {
	all := [][]string{{}}
	prev := [][]string{{}}
	for length := 1; length <= maxLen; length++ {
		var next [][]string
		for _, s := range prev {
			for _, sym := range alphabet {
				ext := make([]string, len(s)+1)
				copy(ext, s)
				ext[len(s)] = sym
				next = append(next, ext)
			}
		}
		all = append(all, next...)
		prev = next
	}
	return all
}

// referenceAccepts decides membership of w directly from g, with no
// normalization, by computing which nonterminals derive which spans of w
// (including empty spans) as a least fixpoint.
func referenceAccepts(g grammar.Grammar, w []string) bool {
	n := len(w)
	rules := g.Rules()

	derives := map[string][][]bool{}
	for _, r := range rules {
		m := make([][]bool, n+1)
		for i := range m {
			m[i] = make([]bool, n+1)
		}
		derives[r.NonTerminal] = m
	}

	changed := true
	for changed {
		changed = false
		for _, r := range rules {
			for i := 0; i <= n; i++ {
				for _, p := range r.Productions {
					for j := range referenceEnds(p, i, w, derives) {
						if !derives[r.NonTerminal][i][j] {
							derives[r.NonTerminal][i][j] = true
							changed = true
						}
					}
				}
			}
		}
	}

	return derives[g.StartSymbol()][0][n]
}

// referenceEnds gives every position where a match of p that starts at i can
// end, given what is known so far about which nonterminals derive which spans.
func referenceEnds(p grammar.Production, i int, w []string, derives map[string][][]bool) map[int]bool {
	cur := map[int]bool{i: true}
	for _, sym := range p {
		next := map[int]bool{}
		for pos := range cur {
			if sym.IsTerminal() {
				if pos < len(w) && w[pos] == sym.Value {
					next[pos+1] = true
				}
				continue
			}
			for j := pos; j <= len(w); j++ {
				if derives[sym.Value][pos][j] {
					next[j] = true
				}
			}
		}
		cur = next
	}
	return cur
}
