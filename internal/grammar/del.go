package grammar

// Nullable returns the set of nonterminals of g that can derive the empty
// string.
func Nullable(g Grammar) map[string]bool {
	nullable := map[string]bool{}

	// fixpoint; each pass adds at least one nonterminal or stops
	updated := true
	for updated {
		updated = false
		for _, r := range g.rules {
			if nullable[r.NonTerminal] {
				continue
			}
			for _, p := range r.Productions {
				if allNullable(p, nullable) {
					nullable[r.NonTerminal] = true
					updated = true
					break
				}
			}
		}
	}

	return nullable
}

func allNullable(p Production, nullable map[string]bool) bool {
	for _, sym := range p {
		if sym.IsTerminal() || !nullable[sym.Value] {
			return false
		}
	}
	return true
}

// EliminateEpsilons returns a grammar equivalent to g that has no epsilon
// productions, except for a single epsilon production of the start symbol if
// the start symbol is nullable in g.
//
// Every production that contains nullable nonterminals is kept, and next to it
// every variant of it made by dropping any subset of those nullable
// occurrences is added, skipping variants that are empty or already present.
// Nonterminals that are left with no productions at all are removed, along
// with every production that refers to them.
func EliminateEpsilons(g Grammar) Grammar {
	nullable := Nullable(g)
	del := g.copyGrammar()

	for i := range del.rules {
		r := del.rules[i]
		set := newProductionSet()
		for _, p := range r.Productions {
			for _, variant := range epsilonVariants(p, nullable) {
				if len(variant) > 0 {
					set.add(variant)
				}
			}
		}
		del.rules[i] = Rule{NonTerminal: r.NonTerminal, Productions: set.prods}
	}

	if nullable[del.start] {
		del.addProduction(del.start, Epsilon)
	}

	pruneEmptyRules(&del)
	return del
}

// epsilonVariants returns p followed by every production made by dropping a
// non-empty subset of the nullable nonterminals in p. The variants are in the
// order of a drop mask counting up from zero, where bit i of the mask drops
// the i-th nullable occurrence.
func epsilonVariants(p Production, nullable map[string]bool) []Production {
	var positions []int
	for i, sym := range p {
		if sym.Kind == NonTerminal && nullable[sym.Value] {
			positions = append(positions, i)
		}
	}

	variants := make([]Production, 0, 1<<len(positions))
	for mask := 0; mask < 1<<len(positions); mask++ {
		drop := map[int]bool{}
		for bit, pos := range positions {
			if mask&(1<<bit) != 0 {
				drop[pos] = true
			}
		}

		variant := Production{}
		for i, sym := range p {
			if !drop[i] {
				variant = append(variant, sym)
			}
		}
		variants = append(variants, variant)
	}

	return variants
}

// pruneEmptyRules removes every rule other than the start symbol's that has
// no productions, then every production that refers to a removed rule,
// repeating until nothing else is removed.
func pruneEmptyRules(g *Grammar) {
	for {
		empty := map[string]bool{}
		for _, r := range g.rules {
			if len(r.Productions) == 0 && r.NonTerminal != g.start {
				empty[r.NonTerminal] = true
			}
		}
		if len(empty) == 0 {
			return
		}

		g.removeRules(empty)
		for i := range g.rules {
			r := g.rules[i]
			kept := make([]Production, 0, len(r.Productions))
			for _, p := range r.Productions {
				if !refersToAny(p, empty) {
					kept = append(kept, p)
				}
			}
			g.rules[i] = Rule{NonTerminal: r.NonTerminal, Productions: kept}
		}
	}
}

func refersToAny(p Production, names map[string]bool) bool {
	for _, sym := range p {
		if sym.Kind == NonTerminal && names[sym.Value] {
			return true
		}
	}
	return false
}
