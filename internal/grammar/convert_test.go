package grammar

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/stretchr/testify/assert"
)

func Test_SeparateTerminals(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expect        string
		expectOrigins map[string]Origin
	}{
		{
			name:   "no terminals in long bodies is unchanged",
			input:  "S -> A B | 'a'\nA -> 'a'\nB -> 'b'",
			expect: "S -> A B | 'a'\nA -> 'a'\nB -> 'b'",
		},
		{
			name:   "terminals replaced in order seen",
			input:  "S -> 'a' S 'b' | 'c'",
			expect: "S -> T_a S T_b | 'c'\nT_a -> 'a'\nT_b -> 'b'",
			expectOrigins: map[string]Origin{
				"S":   Declared,
				"T_a": TerminalSubstitute,
				"T_b": TerminalSubstitute,
			},
		},
		{
			name:   "same terminal shares one substitute",
			input:  "S -> 'a' 'a' | 'a' S",
			expect: "S -> T_a T_a | T_a S\nT_a -> 'a'",
		},
		{
			name:   "taken name gets a suffix",
			input:  "S -> 'a' T_a\nT_a -> 'b'",
			expect: "S -> T_a_2 T_a\nT_a -> 'b'\nT_a_2 -> 'a'",
		},
		{
			name:   "symbols are sanitized",
			input:  "E -> E '+' E | E '-' E | 'n'",
			expect: "E -> E T__ E | E T___2 E | 'n'\nT__ -> '+'\nT___2 -> '-'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			g := setupGrammar(t, tc.input)

			// execute
			actual := SeparateTerminals(g, NewSymbolGenerator(g))

			// assert
			assert.Equal(tc.expect, actual.String())
			for nt, o := range tc.expectOrigins {
				assert.Equal(o, actual.Origin(nt), "origin of %s", nt)
			}
			assert.Equal(g.StartSymbol(), actual.StartSymbol())
		})
	}
}

func Test_Binarize(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "short bodies unchanged",
			input:  "S -> A B | 'a'\nA -> 'a'\nB -> 'b'",
			expect: "S -> A B | 'a'\nA -> 'a'\nB -> 'b'",
		},
		{
			name:   "three symbols",
			input:  "S -> A B C\nA -> 'a'\nB -> 'b'\nC -> 'c'",
			expect: "S -> A X1\nA -> 'a'\nB -> 'b'\nC -> 'c'\nX1 -> B C",
		},
		{
			name:   "four symbols make a chain",
			input:  "S -> A B C D | 'a'\nA -> 'a'\nB -> 'b'\nC -> 'c'\nD -> 'd'",
			expect: "S -> A X1 | 'a'\nA -> 'a'\nB -> 'b'\nC -> 'c'\nD -> 'd'\nX1 -> B X2\nX2 -> C D",
		},
		{
			name:   "declared X names are skipped",
			input:  "S -> A A A | X1\nA -> 'a'\nX1 -> 'x'",
			expect: "S -> A X2 | X1\nA -> 'a'\nX1 -> 'x'\nX2 -> A A",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			g := setupGrammar(t, tc.input)

			// execute
			actual := Binarize(g, NewSymbolGenerator(g))

			// assert
			assert.Equal(tc.expect, actual.String())
			for _, r := range actual.Rules() {
				for _, p := range r.Productions {
					assert.LessOrEqual(len(p), 2, "%s -> %s", r.NonTerminal, p)
				}
				if strings.HasPrefix(r.NonTerminal, "X") && !g.Has(r.NonTerminal) {
					assert.Equal(BinaryChain, actual.Origin(r.NonTerminal))
				}
			}
		})
	}
}

func Test_Nullable(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:  "nothing nullable",
			input: "S -> A B\nA -> 'a'\nB -> 'b'",
		},
		{
			name:   "direct epsilon",
			input:  "S -> A 'b'\nA -> 'a' | ε",
			expect: []string{"A"},
		},
		{
			name:   "transitive",
			input:  "S -> A B\nA -> 'a' | ε\nB -> A A",
			expect: []string{"A", "B", "S"},
		},
		{
			name:   "terminal blocks nullability",
			input:  "S -> A 'x'\nA -> ε",
			expect: []string{"A"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			g := setupGrammar(t, tc.input)

			actual := Nullable(g)

			var names []string
			for nt, ok := range actual {
				if ok {
					names = append(names, nt)
				}
			}
			assert.ElementsMatch(tc.expect, names)
		})
	}
}

func Test_EliminateEpsilons(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "no epsilons unchanged",
			input:  "S -> A B\nA -> 'a'\nB -> 'b'",
			expect: "S -> A B\nA -> 'a'\nB -> 'b'",
		},
		{
			name:   "variants in drop mask order and nullable start",
			input:  "S -> A B\nA -> 'a' | ε\nB -> 'b' | ε",
			expect: "S -> A B | B | A | ε\nA -> 'a'\nB -> 'b'",
		},
		{
			name:   "epsilon-only nonterminal is removed",
			input:  "S -> A 'b'\nA -> ε",
			expect: "S -> 'b'",
		},
		{
			name:   "start epsilon stays",
			input:  "S -> 'a' S | ε",
			expect: "S -> 'a' S | 'a' | ε",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			g := setupGrammar(t, tc.input)

			// execute
			actual := EliminateEpsilons(g)

			// assert
			assert.Equal(tc.expect, actual.String())
			for _, r := range actual.Rules() {
				if r.NonTerminal != actual.StartSymbol() {
					assert.False(r.HasEpsilon(), "%s has epsilon", r.NonTerminal)
				}
			}
		})
	}
}

func Test_UnitClosure(t *testing.T) {
	assert := assert.New(t)

	g := setupGrammar(t, "S -> A | 'a'\nA -> B | 'b'\nB -> S | C | 'c'\nC -> 'd'")

	assert.Equal([]string{"S", "A", "B", "C"}, UnitClosure(g, "S"))
	assert.Equal([]string{"B", "S", "C", "A"}, UnitClosure(g, "B"))
	assert.Equal([]string{"C"}, UnitClosure(g, "C"))
}

func Test_EliminateUnits(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "no units unchanged",
			input:  "S -> A B\nA -> 'a'\nB -> 'b'",
			expect: "S -> A B\nA -> 'a'\nB -> 'b'",
		},
		{
			name:   "chain of units",
			input:  "S -> A | S S\nA -> B\nB -> 'b'",
			expect: "S -> S S | 'b'\nA -> 'b'\nB -> 'b'",
		},
		{
			name:   "cycle of units",
			input:  "S -> A | 'a'\nA -> B | 'b'\nB -> S | 'c'",
			expect: "S -> 'a' | 'b' | 'c'\nA -> 'b' | 'c' | 'a'\nB -> 'c' | 'a' | 'b'",
		},
		{
			name:   "epsilon only copied to start",
			input:  "S -> A | ε\nA -> S | 'a'",
			expect: "S -> ε | 'a'\nA -> 'a'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			g := setupGrammar(t, tc.input)

			// execute
			actual := EliminateUnits(g)

			// assert
			assert.Equal(tc.expect, actual.String())
			for _, r := range actual.Rules() {
				assert.Empty(r.UnitProductions(), "%s has unit productions", r.NonTerminal)
			}
		})
	}
}

func Test_Convert(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expect        string
		expectOrigins map[string]Origin
	}{
		{
			name:   "textbook CNF grammar is unchanged",
			input:  "S -> A B | B C\nA -> B A | 'a'\nB -> C C | 'b'\nC -> A B | 'a'",
			expect: "S -> A B | B C\nA -> B A | 'a'\nB -> C C | 'b'\nC -> A B | 'a'",
		},
		{
			name:   "balanced pairs with epsilon",
			input:  "S -> A S B | ε\nA -> 'a'\nB -> 'b'",
			expect: "S -> A X1 | ε\nA -> 'a'\nB -> 'b'\nX1 -> S B | 'b'",
			expectOrigins: map[string]Origin{
				"X1": BinaryChain,
			},
		},
		{
			name:   "unit cycle collapses",
			input:  "S -> A | 'x'\nA -> S",
			expect: "S -> 'x'",
		},
		{
			name:   "terminals and chains together",
			input:  "S -> 'a' S 'b' | 'c'",
			expect: "S -> T_a X1 | 'c'\nT_a -> 'a'\nT_b -> 'b'\nX1 -> S T_b",
			expectOrigins: map[string]Origin{
				"T_a": TerminalSubstitute,
				"T_b": TerminalSubstitute,
				"X1":  BinaryChain,
			},
		},
		{
			name:   "unreachable rules are dropped",
			input:  "S -> 'a'\nQ -> 'q'",
			expect: "S -> 'a'",
		},
		{
			name:   "pure unit cycle derives nothing",
			input:  "S -> A\nA -> S",
			expect: "S -> ",
		},
		{
			name:   "non-terminating nonterminal derives nothing",
			input:  "S -> A 'b'\nA -> A",
			expect: "S -> ",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			g := setupGrammar(t, tc.input)
			before := g.String()

			// execute
			actual, err := Convert(g)

			// assert
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, actual.String())
			assert.NoError(actual.ValidateCNF())
			for nt, o := range tc.expectOrigins {
				assert.Equal(o, actual.Origin(nt), "origin of %s", nt)
			}
			assert.Equal(before, g.String(), "input grammar was modified")
		})
	}
}

func Test_Convert_properties(t *testing.T) {
	grammars := []string{
		"S -> A B | B C\nA -> B A | 'a'\nB -> C C | 'b'\nC -> A B | 'a'",
		"S -> A S B | ε\nA -> 'a'\nB -> 'b'",
		"E -> E '+' T | T\nT -> T '*' F | F\nF -> '(' E ')' | 'n'",
		"S -> A B C D E\nA -> 'a' | ε\nB -> 'b' | ε\nC -> 'c' | ε\nD -> 'd' | ε\nE -> 'e' | ε",
		"S -> A | 'x'\nA -> B\nB -> S | 'y' 'y'",
		"S -> S S | '(' S ')' | ε",
	}

	for _, text := range grammars {
		t.Run(strings.SplitN(text, "\n", 2)[0], func(t *testing.T) {
			assert := assert.New(t)

			g := setupGrammar(t, text)

			first, err := Convert(g)
			if !assert.NoError(err) {
				return
			}
			second, err := Convert(g)
			if !assert.NoError(err) {
				return
			}

			assert.True(first.Equal(second), "conversion is not deterministic")
			assert.NoError(first.CheckCNF())
			assert.Equal(g.StartSymbol(), first.StartSymbol())
			assert.NoError(first.Validate())
		})
	}
}

func Test_Convert_idempotent(t *testing.T) {
	grammars := []string{
		"S -> A B | B C\nA -> B A | 'a'\nB -> C C | 'b'\nC -> A B | 'a'",
		"S -> A S B | ε\nA -> 'a'\nB -> 'b'",
	}

	for _, text := range grammars {
		t.Run(strings.SplitN(text, "\n", 2)[0], func(t *testing.T) {
			assert := assert.New(t)

			g := setupGrammar(t, text)
			once, err := Convert(g)
			if !assert.NoError(err) {
				return
			}

			twice, err := Convert(once)

			assert.NoError(err)
			assert.True(once.Equal(twice), "expected:\n%s\nactual:\n%s", once, twice)
		})
	}
}

func Test_Convert_invalid(t *testing.T) {
	assert := assert.New(t)

	_, err := Convert(Grammar{})

	assert.ErrorIs(err, cykerrors.ErrGrammar)
}

func Test_ConvertWith_logsStages(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	g := setupGrammar(t, "S -> 'a' S 'b' | 'c'")

	_, err := ConvertWith(g, logger)

	assert.NoError(err)
	out := buf.String()
	for _, stage := range []string{"TERM", "BIN", "DEL", "UNIT", "CLEAN"} {
		assert.Contains(out, "DEBUG "+stage+":")
	}
	assert.Less(strings.Index(out, "TERM"), strings.Index(out, "BIN"))
	assert.Less(strings.Index(out, "DEL"), strings.Index(out, "UNIT"))
}

func Test_Reachable(t *testing.T) {
	assert := assert.New(t)

	g := setupGrammar(t, "S -> A 'x' | B\nQ -> S\nA -> 'a'\nB -> A A")

	assert.Equal([]string{"S", "A", "B"}, Reachable(g))
	assert.Equal("S -> A 'x' | B\nA -> 'a'\nB -> A A", RemoveUnreachable(g).String())
}
