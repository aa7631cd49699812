package grammar

import "strings"

// Rule is every production of a single nonterminal, in declaration order.
type Rule struct {
	NonTerminal string
	Productions []Production
}

// Copy returns a deep-copy duplicate of the given Rule.
func (r Rule) Copy() Rule {
	r2 := Rule{
		NonTerminal: r.NonTerminal,
		Productions: make([]Production, len(r.Productions)),
	}

	for i := range r.Productions {
		r2.Productions[i] = r.Productions[i].Copy()
	}

	return r2
}

func (r Rule) String() string {
	var sb strings.Builder

	sb.WriteString(r.NonTerminal)
	sb.WriteString(" -> ")

	for i := range r.Productions {
		sb.WriteString(r.Productions[i].String())
		if i+1 < len(r.Productions) {
			sb.WriteString(" | ")
		}
	}

	return sb.String()
}

// Equal returns whether Rule is equal to another value. It will not be equal
// if the other value cannot be casted to a Rule or *Rule. Productions must be
// in the same order for two rules to be equal.
func (r Rule) Equal(o any) bool {
	other, ok := o.(Rule)
	if !ok {
		otherPtr, ok := o.(*Rule)
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if r.NonTerminal != other.NonTerminal {
		return false
	}
	if len(r.Productions) != len(other.Productions) {
		return false
	}
	for i := range r.Productions {
		if !r.Productions[i].Equal(other.Productions[i]) {
			return false
		}
	}
	return true
}

// HasProduction returns whether the rule has a production of the exact sequence
// of symbols in prod.
func (r Rule) HasProduction(prod Production) bool {
	for _, alt := range r.Productions {
		if alt.Equal(prod) {
			return true
		}
	}
	return false
}

// HasEpsilon returns whether the rule has an epsilon production.
func (r Rule) HasEpsilon() bool {
	return r.HasProduction(Epsilon)
}

// UnitProductions returns all productions of the rule that are of the form
// A -> B where B is a nonterminal.
func (r Rule) UnitProductions() []Production {
	prods := []Production{}

	for _, alt := range r.Productions {
		if alt.Class() == Unit {
			prods = append(prods, alt)
		}
	}

	return prods
}

// productionSet is an ordered, duplicate-free list of productions.
type productionSet struct {
	prods []Production
	seen  map[string]bool
}

func newProductionSet() *productionSet {
	return &productionSet{seen: map[string]bool{}}
}

// add adds p if an equal production is not already present and returns
// whether it was added.
func (ps *productionSet) add(p Production) bool {
	k := p.key()
	if ps.seen[k] {
		return false
	}
	ps.seen[k] = true
	ps.prods = append(ps.prods, p.Copy())
	return true
}

func (ps *productionSet) has(p Production) bool {
	return ps.seen[p.key()]
}
