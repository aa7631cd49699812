package grammar

// SeparateTerminals returns a grammar equivalent to g in which no production
// with two or more symbols contains a terminal. Each such terminal t is
// replaced with a substitute nonterminal named by gen, and one rule of the form
// T_t -> t is added per distinct terminal text, after the existing rules and in
// the order the terminals were first seen. Productions of a single symbol are
// left as they are.
func SeparateTerminals(g Grammar, gen *SymbolGenerator) Grammar {
	sep := g.copyGrammar()

	// substitutes in the order they are minted
	var newTerms []string
	subs := map[string]string{}

	for i := range sep.rules {
		r := sep.rules[i]
		for j, p := range r.Productions {
			if len(p) < 2 || !p.HasTerminal() {
				continue
			}

			rewritten := p.Copy()
			for k := range rewritten {
				if !rewritten[k].IsTerminal() {
					continue
				}

				text := rewritten[k].Value
				name, ok := subs[text]
				if !ok {
					name = gen.ForTerminal(text)
					subs[text] = name
					newTerms = append(newTerms, text)
				}
				rewritten[k] = NT(name)
			}
			r.Productions[j] = rewritten
		}
		sep.rules[i] = r
	}

	for _, text := range newTerms {
		name := subs[text]
		sep.addProduction(name, Production{Term(text)})
		sep.setOrigin(name, TerminalSubstitute)
	}

	return sep
}
