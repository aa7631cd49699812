// Package grammar holds the context-free grammar model and the conversion of
// an arbitrary grammar into Chomsky Normal Form (CNF).
//
// A Grammar is immutable once built. Every conversion stage takes a Grammar
// and returns a new one; none of them modify their input. The stages are run
// in order by Convert:
//
//   - SeparateTerminals replaces terminals in bodies longer than one symbol
//     with substitute nonterminals.
//   - Binarize splits bodies longer than two symbols into chains.
//   - EliminateEpsilons removes epsilon productions, other than one on the
//     start symbol.
//   - EliminateUnits removes productions whose body is a single nonterminal.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/dekarrin/rosed"
)

// Origin tells where a nonterminal came from.
type Origin int

const (
	// Declared is a nonterminal that was part of the grammar as it was built.
	Declared Origin = iota

	// TerminalSubstitute is a nonterminal created by SeparateTerminals. It has
	// exactly one production, a single terminal.
	TerminalSubstitute

	// BinaryChain is a nonterminal created by Binarize to hold the tail of a
	// body that was too long.
	BinaryChain
)

func (o Origin) String() string {
	switch o {
	case Declared:
		return "declared"
	case TerminalSubstitute:
		return "terminal-substitute"
	case BinaryChain:
		return "binary-chain"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Grammar is a context-free grammar: a start nonterminal and, for every
// nonterminal, an ordered and duplicate-free list of productions. The
// zero-value is an empty grammar with no start symbol; use a Builder,
// FromRaw, or ParseText to make one.
type Grammar struct {
	// main rules store; not a map because declaration order matters
	rules       []Rule
	rulesByName map[string]int

	// only nonterminals that were not Declared are stored.
	origins map[string]Origin

	start string
}

// StartSymbol returns the name of the start nonterminal.
func (g Grammar) StartSymbol() string {
	return g.start
}

// NonTerminals returns the name of every nonterminal that has a rule, in
// declaration order.
func (g Grammar) NonTerminals() []string {
	names := make([]string, len(g.rules))
	for i := range g.rules {
		names[i] = g.rules[i].NonTerminal
	}
	return names
}

// Has returns whether the grammar has a rule for the nonterminal.
func (g Grammar) Has(nonterminal string) bool {
	_, ok := g.rulesByName[nonterminal]
	return ok
}

// Rule returns the rule for the given nonterminal. If there is no rule defined
// for that nonterminal, a Rule with an empty NonTerminal field is returned.
// The returned Rule is a copy and may be modified freely.
func (g Grammar) Rule(nonterminal string) Rule {
	idx, ok := g.rulesByName[nonterminal]
	if !ok {
		return Rule{}
	}
	return g.rules[idx].Copy()
}

// Rules returns copies of every rule in the grammar in declaration order.
func (g Grammar) Rules() []Rule {
	rules := make([]Rule, len(g.rules))
	for i := range g.rules {
		rules[i] = g.rules[i].Copy()
	}
	return rules
}

// Len returns the total number of productions across all rules.
func (g Grammar) Len() int {
	var count int
	for i := range g.rules {
		count += len(g.rules[i].Productions)
	}
	return count
}

// Terminals returns the text of every terminal used in the grammar, sorted.
func (g Grammar) Terminals() []string {
	seen := map[string]bool{}
	for _, r := range g.rules {
		for _, p := range r.Productions {
			for _, sym := range p {
				if sym.IsTerminal() {
					seen[sym.Value] = true
				}
			}
		}
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Origin returns where the given nonterminal came from. Nonterminals with no
// rule are reported as Declared.
func (g Grammar) Origin(nonterminal string) Origin {
	if o, ok := g.origins[nonterminal]; ok {
		return o
	}
	return Declared
}

// String gives one line per rule in declaration order.
func (g Grammar) String() string {
	var sb strings.Builder
	for i := range g.rules {
		sb.WriteString(g.rules[i].String())
		if i+1 < len(g.rules) {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// Table gives a text table of every rule in the grammar, wrapped to the given
// width. The start symbol is marked with an asterisk.
func (g Grammar) Table(width int) string {
	data := [][]string{{"Nonterminal", "Productions", "Origin"}}

	for _, r := range g.rules {
		name := r.NonTerminal
		if name == g.start {
			name += " *"
		}

		alts := make([]string, len(r.Productions))
		for i := range r.Productions {
			alts[i] = r.Productions[i].String()
		}

		data = append(data, []string{name, strings.Join(alts, " | "), g.Origin(r.NonTerminal).String()})
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, width, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// Equal returns whether g is equal to another value. Two grammars are equal if
// they have the same start symbol, the same rules in the same order, and the
// same origins for every nonterminal.
func (g Grammar) Equal(o any) bool {
	other, ok := o.(Grammar)
	if !ok {
		otherPtr, ok := o.(*Grammar)
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if g.start != other.start {
		return false
	}
	if len(g.rules) != len(other.rules) {
		return false
	}
	for i := range g.rules {
		if !g.rules[i].Equal(other.rules[i]) {
			return false
		}
		nt := g.rules[i].NonTerminal
		if g.Origin(nt) != other.Origin(nt) {
			return false
		}
	}
	return true
}

// Validate returns an error if the grammar cannot be used. The returned error
// will match cykerrors.ErrGrammar if the grammar is malformed, and will match
// cykerrors.ErrUnboundSymbol if a body refers to a nonterminal that has no
// rule.
func (g Grammar) Validate() error {
	return g.validate(false)
}

// ValidateCNF is like Validate followed by CheckCNF, except that the start
// symbol may have no productions. Convert gives a grammar like that when no
// string at all can be derived from the start symbol of its input.
func (g Grammar) ValidateCNF() error {
	if err := g.validate(true); err != nil {
		return err
	}
	return g.CheckCNF()
}

// EmptyLanguage returns whether g is a converted grammar whose start symbol has
// no productions, and so generates no strings.
func (g Grammar) EmptyLanguage() bool {
	idx, ok := g.rulesByName[g.start]
	return ok && len(g.rules[idx].Productions) == 0
}

func (g Grammar) validate(allowEmptyStart bool) error {
	if len(g.rules) == 0 {
		return cykerrors.Grammarf("grammar has no rules")
	}
	if g.start == "" {
		return cykerrors.Grammarf("no start symbol given")
	}
	startIdx, ok := g.rulesByName[g.start]
	if !ok || (!allowEmptyStart && len(g.rules[startIdx].Productions) == 0) {
		return cykerrors.Grammarf("start symbol %q has no productions", g.start)
	}

	for _, r := range g.rules {
		if r.NonTerminal == "" {
			return cykerrors.Grammarf("rule with empty head")
		}
		for _, p := range r.Productions {
			for _, sym := range p {
				if sym.Value == "" {
					return cykerrors.Grammarf("empty %s in rule for %q", sym.Kind, r.NonTerminal)
				}
				if sym.Kind == NonTerminal && !g.Has(sym.Value) {
					return cykerrors.Unbound(r.NonTerminal, sym.Value)
				}
			}
		}
	}

	return nil
}

// CheckCNF returns an error matching cykerrors.ErrGrammar that describes the
// first production that is not in Chomsky Normal Form, or nil if every
// production is. A production is in CNF if it is a single terminal, exactly
// two nonterminals, or an epsilon production of the start symbol.
func (g Grammar) CheckCNF() error {
	for _, r := range g.rules {
		for _, p := range r.Productions {
			switch p.Class() {
			case TerminalRule:
				continue
			case EpsilonRule:
				if r.NonTerminal == g.start {
					continue
				}
			case Binary:
				if !p.HasTerminal() {
					continue
				}
			}
			return cykerrors.Grammarf("production %s -> %s is not in CNF", r.NonTerminal, p.String())
		}
	}
	return nil
}

// IsCNF returns whether every production of the grammar is in Chomsky Normal
// Form.
func (g Grammar) IsCNF() bool {
	return g.CheckCNF() == nil
}

// copyGrammar returns a deep copy of g that can be modified without affecting
// g.
func (g Grammar) copyGrammar() Grammar {
	g2 := Grammar{
		rules:       make([]Rule, len(g.rules)),
		rulesByName: make(map[string]int, len(g.rulesByName)),
		origins:     make(map[string]Origin, len(g.origins)),
		start:       g.start,
	}

	for i := range g.rules {
		g2.rules[i] = g.rules[i].Copy()
	}
	for k, v := range g.rulesByName {
		g2.rulesByName[k] = v
	}
	for k, v := range g.origins {
		g2.origins[k] = v
	}

	return g2
}

// addProduction adds p to the rule for nonterminal, creating the rule at the
// end of the grammar if it does not yet exist. If an equal production is
// already present, nothing is added. Returns whether p was added.
func (g *Grammar) addProduction(nonterminal string, p Production) bool {
	if g.rulesByName == nil {
		g.rulesByName = map[string]int{}
	}

	idx, ok := g.rulesByName[nonterminal]
	if !ok {
		g.rules = append(g.rules, Rule{NonTerminal: nonterminal})
		idx = len(g.rules) - 1
		g.rulesByName[nonterminal] = idx
	}

	r := g.rules[idx]
	if r.HasProduction(p) {
		return false
	}
	r.Productions = append(r.Productions, p.Copy())
	g.rules[idx] = r
	return true
}

// setProductions replaces the productions of the rule for nonterminal,
// creating the rule at the end of the grammar if it does not yet exist.
func (g *Grammar) setProductions(nonterminal string, prods []Production) {
	if g.rulesByName == nil {
		g.rulesByName = map[string]int{}
	}

	idx, ok := g.rulesByName[nonterminal]
	if !ok {
		g.rules = append(g.rules, Rule{NonTerminal: nonterminal})
		idx = len(g.rules) - 1
		g.rulesByName[nonterminal] = idx
	}

	set := newProductionSet()
	for _, p := range prods {
		set.add(p)
	}
	g.rules[idx] = Rule{NonTerminal: nonterminal, Productions: set.prods}
}

// removeRules removes the rules of every named nonterminal, keeping the order
// of the others.
func (g *Grammar) removeRules(names map[string]bool) {
	if len(names) == 0 {
		return
	}

	kept := make([]Rule, 0, len(g.rules))
	for _, r := range g.rules {
		if !names[r.NonTerminal] {
			kept = append(kept, r)
		}
	}

	g.rules = kept
	g.rulesByName = make(map[string]int, len(kept))
	for i := range kept {
		g.rulesByName[kept[i].NonTerminal] = i
	}
	for name := range names {
		delete(g.origins, name)
	}
}

// setOrigin records where nonterminal came from.
func (g *Grammar) setOrigin(nonterminal string, o Origin) {
	if o == Declared {
		delete(g.origins, nonterminal)
		return
	}
	if g.origins == nil {
		g.origins = map[string]Origin{}
	}
	g.origins[nonterminal] = o
}

// Builder accumulates rules for a new Grammar. The zero-value is ready to use.
type Builder struct {
	g   Grammar
	err error
}

// AddRule adds a production with the given head and body. A call with no body
// symbols adds an epsilon production. Adding a production that the head
// already has does nothing.
func (b *Builder) AddRule(head string, body ...Symbol) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(head) == "" {
		b.err = cykerrors.Grammarf("rule %d: empty head", b.g.Len()+1)
		return b
	}
	b.g.addProduction(head, Production(body))
	return b
}

// Build validates the accumulated rules and returns the Grammar built from
// them with the given start symbol. If start is empty, the first nonterminal
// that was added is used.
//
// The returned error, if non-nil, matches cykerrors.ErrGrammar or
// cykerrors.ErrUnboundSymbol; see Grammar.Validate.
func (b *Builder) Build(start string) (Grammar, error) {
	if b.err != nil {
		return Grammar{}, b.err
	}

	g := b.g.copyGrammar()
	if start == "" && len(g.rules) > 0 {
		start = g.rules[0].NonTerminal
	}
	g.start = start

	if err := g.Validate(); err != nil {
		return Grammar{}, err
	}
	return g, nil
}

// MustBuild is like Build but panics if there is an error.
func (b *Builder) MustBuild(start string) Grammar {
	g, err := b.Build(start)
	if err != nil {
		panic(err.Error())
	}
	return g
}
