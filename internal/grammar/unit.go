package grammar

// UnitClosure returns every nonterminal reachable from the nonterminal from by
// a chain of unit productions, starting with from itself and then in
// breadth-first order. Cycles are followed only once.
func UnitClosure(g Grammar, from string) []string {
	visited := map[string]bool{from: true}
	order := []string{from}

	for i := 0; i < len(order); i++ {
		idx, ok := g.rulesByName[order[i]]
		if !ok {
			continue
		}
		for _, p := range g.rules[idx].Productions {
			if p.Class() != Unit {
				continue
			}
			next := p[0].Value
			if !visited[next] {
				visited[next] = true
				order = append(order, next)
			}
		}
	}

	return order
}

// EliminateUnits returns a grammar equivalent to g that has no unit
// productions. Each nonterminal A gets every non-unit production of every
// nonterminal in its unit closure, in closure order and without duplicates,
// after which all unit productions are dropped. Epsilon productions are only
// carried over to the start symbol.
//
// A cycle of unit productions, such as A -> B and B -> A, is not an error; it
// contributes nothing beyond the non-unit productions its members already
// have.
func EliminateUnits(g Grammar) Grammar {
	unit := g.copyGrammar()

	for i, r := range g.rules {
		set := newProductionSet()
		for _, member := range UnitClosure(g, r.NonTerminal) {
			idx, ok := g.rulesByName[member]
			if !ok {
				continue
			}
			for _, p := range g.rules[idx].Productions {
				switch p.Class() {
				case Unit:
					continue
				case EpsilonRule:
					if r.NonTerminal != g.start {
						continue
					}
				}
				set.add(p)
			}
		}
		unit.rules[i] = Rule{NonTerminal: r.NonTerminal, Productions: set.prods}
	}

	pruneEmptyRules(&unit)
	return unit
}
