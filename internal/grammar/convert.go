package grammar

import (
	"log"
)

// Convert returns a grammar in Chomsky Normal Form that generates the same
// language as g. Every production of the returned grammar is a single
// terminal, exactly two nonterminals, or, for the start symbol only, epsilon.
//
// The stages run in a fixed order: SeparateTerminals, Binarize,
// EliminateEpsilons, EliminateUnits. Afterwards, nonterminals that can no
// longer be reached from the start symbol are removed. Fresh nonterminals are
// named deterministically, so converting equal grammars gives equal results.
//
// The returned error, if non-nil, matches cykerrors.ErrGrammar or
// cykerrors.ErrUnboundSymbol; see Grammar.Validate. g is never modified.
func Convert(g Grammar) (Grammar, error) {
	return ConvertWith(g, nil)
}

// ConvertWith is like Convert but writes a DEBUG line to logger after each
// stage. If logger is nil, nothing is logged.
func ConvertWith(g Grammar, logger *log.Logger) (Grammar, error) {
	if err := g.Validate(); err != nil {
		return Grammar{}, err
	}

	trace := func(stage string, cur Grammar) {
		if logger != nil {
			logger.Printf("DEBUG %s: %d rules, %d productions", stage, len(cur.rules), cur.Len())
		}
	}

	gen := NewSymbolGenerator(g)

	cnf := SeparateTerminals(g, gen)
	trace("TERM", cnf)

	cnf = Binarize(cnf, gen)
	trace("BIN", cnf)

	cnf = EliminateEpsilons(cnf)
	trace("DEL", cnf)

	cnf = EliminateUnits(cnf)
	trace("UNIT", cnf)

	cnf = RemoveUnreachable(cnf)
	trace("CLEAN", cnf)

	return cnf, nil
}

// Reachable returns every nonterminal that appears in some derivation from the
// start symbol of g, in the order they are first found.
func Reachable(g Grammar) []string {
	if !g.Has(g.start) {
		return nil
	}

	visited := map[string]bool{g.start: true}
	order := []string{g.start}

	for i := 0; i < len(order); i++ {
		r := g.rules[g.rulesByName[order[i]]]
		for _, p := range r.Productions {
			for _, sym := range p {
				if sym.Kind != NonTerminal || visited[sym.Value] || !g.Has(sym.Value) {
					continue
				}
				visited[sym.Value] = true
				order = append(order, sym.Value)
			}
		}
	}

	return order
}

// RemoveUnreachable returns a copy of g without the rules of nonterminals that
// cannot be reached from the start symbol.
func RemoveUnreachable(g Grammar) Grammar {
	reached := map[string]bool{}
	for _, nt := range Reachable(g) {
		reached[nt] = true
	}

	unreachable := map[string]bool{}
	for _, r := range g.rules {
		if !reached[r.NonTerminal] {
			unreachable[r.NonTerminal] = true
		}
	}

	cleaned := g.copyGrammar()
	cleaned.removeRules(unreachable)
	return cleaned
}
