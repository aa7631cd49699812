package grammar

// Binarize returns a grammar equivalent to g in which no production has more
// than two symbols. A production A -> S1 S2 ... Sk with k > 2 is replaced in
// place by A -> S1 X1, and the chain X1 -> S2 X2, ..., X(k-2) -> S(k-1) Sk is
// added after the existing rules, with every X named by gen. A grammar with no
// production longer than two symbols is returned unchanged.
func Binarize(g Grammar, gen *SymbolGenerator) Grammar {
	bin := g.copyGrammar()

	type chainLink struct {
		name string
		body Production
	}
	var chains []chainLink

	for i := range bin.rules {
		r := bin.rules[i]
		for j, p := range r.Productions {
			if p.Class() != NAry {
				continue
			}

			// p[0] stays with the head; every later symbol but the last two
			// starts a new link.
			name := gen.Next()
			r.Productions[j] = Production{p[0], NT(name)}

			for k := 1; k < len(p)-2; k++ {
				next := gen.Next()
				chains = append(chains, chainLink{name: name, body: Production{p[k], NT(next)}})
				name = next
			}
			chains = append(chains, chainLink{name: name, body: Production{p[len(p)-2], p[len(p)-1]}})
		}
		bin.rules[i] = r
	}

	for _, link := range chains {
		bin.addProduction(link.name, link.body)
		bin.setOrigin(link.name, BinaryChain)
	}

	return bin
}
