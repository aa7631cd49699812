package grammar

import (
	"fmt"
	"strings"
	"unicode"
)

// SymbolGenerator mints nonterminal names that do not collide with any name
// in the grammar it was created from, or with any name it has already given
// out. Given the same grammar, a new SymbolGenerator hands out the same names
// in the same order.
type SymbolGenerator struct {
	taken   map[string]bool
	byTerm  map[string]string
	counter int
}

// NewSymbolGenerator creates a SymbolGenerator that avoids every nonterminal
// name in g.
func NewSymbolGenerator(g Grammar) *SymbolGenerator {
	gen := &SymbolGenerator{
		taken:  map[string]bool{},
		byTerm: map[string]string{},
	}

	for _, r := range g.rules {
		gen.taken[r.NonTerminal] = true
		for _, p := range r.Productions {
			for _, sym := range p {
				if sym.Kind == NonTerminal {
					gen.taken[sym.Value] = true
				}
			}
		}
	}

	return gen
}

// Next returns the next free chain name: X1, X2, and so on, skipping any that
// are taken.
func (gen *SymbolGenerator) Next() string {
	for {
		gen.counter++
		name := fmt.Sprintf("X%d", gen.counter)
		if !gen.taken[name] {
			gen.taken[name] = true
			return name
		}
	}
}

// ForTerminal returns the substitute nonterminal name for the terminal with
// the given text. The first call for a text mints a name of the form T_text,
// with every rune that is not a letter, digit, or underscore replaced by an
// underscore; if that is taken, _2, _3, and so on are appended until a free
// one is found. Every later call with the same text returns the same name.
func (gen *SymbolGenerator) ForTerminal(text string) string {
	if name, ok := gen.byTerm[text]; ok {
		return name
	}

	base := "T_" + sanitizeName(text)
	name := base
	for n := 2; gen.taken[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}

	gen.taken[name] = true
	gen.byTerm[text] = name
	return name
}

func sanitizeName(text string) string {
	var sb strings.Builder
	for _, ch := range text {
		if ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			sb.WriteRune(ch)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
