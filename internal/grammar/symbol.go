package grammar

import (
	"fmt"
	"strings"
)

// SymbolKind is the tag of a Symbol.
type SymbolKind int

const (
	Terminal SymbolKind = iota
	NonTerminal
)

func (sk SymbolKind) String() string {
	switch sk {
	case Terminal:
		return "terminal"
	case NonTerminal:
		return "nonterminal"
	default:
		return fmt.Sprintf("SymbolKind(%d)", int(sk))
	}
}

// Symbol is a single symbol in the body of a production. It is either a
// terminal, whose Value is the text it matches, or a nonterminal, whose Value
// is its name.
type Symbol struct {
	Kind  SymbolKind
	Value string
}

// Term returns the terminal Symbol that matches text.
func Term(text string) Symbol {
	return Symbol{Kind: Terminal, Value: text}
}

// NT returns the nonterminal Symbol with the given name.
func NT(name string) Symbol {
	return Symbol{Kind: NonTerminal, Value: name}
}

// IsTerminal returns whether sym is a terminal.
func (sym Symbol) IsTerminal() bool {
	return sym.Kind == Terminal
}

// Less returns whether sym orders before o. Symbols are ordered by kind first,
// with all terminals before all nonterminals, and then by value.
func (sym Symbol) Less(o Symbol) bool {
	if sym.Kind != o.Kind {
		return sym.Kind < o.Kind
	}
	return sym.Value < o.Value
}

// String gives terminals in single quotes and nonterminals as their bare name.
func (sym Symbol) String() string {
	if sym.Kind == Terminal {
		return "'" + sym.Value + "'"
	}
	return sym.Value
}

// Production is the body of a rule: an ordered sequence of zero or more
// symbols. A Production with no symbols is an epsilon production.
type Production []Symbol

// Epsilon is the empty production.
var Epsilon = Production{}

// Copy returns a deep-copied duplicate of this production.
func (p Production) Copy() Production {
	p2 := make(Production, len(p))
	copy(p2, p)
	return p2
}

// Equal returns whether p is equal to another value. It will not be equal if
// the other value cannot be cast to Production or *Production.
func (p Production) Equal(o any) bool {
	other, ok := o.(Production)
	if !ok {
		otherPtr, ok := o.(*Production)
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String gives the symbols of p separated by spaces, or "ε" if p is empty.
func (p Production) String() string {
	if len(p) == 0 {
		return "ε"
	}

	var sb strings.Builder
	for i := range p {
		sb.WriteString(p[i].String())
		if i+1 < len(p) {
			sb.WriteRune(' ')
		}
	}
	return sb.String()
}

// HasTerminal returns whether any symbol in p is a terminal.
func (p Production) HasTerminal() bool {
	for i := range p {
		if p[i].IsTerminal() {
			return true
		}
	}
	return false
}

// Refers returns whether p contains the nonterminal with the given name.
func (p Production) Refers(name string) bool {
	for i := range p {
		if p[i].Kind == NonTerminal && p[i].Value == name {
			return true
		}
	}
	return false
}

// key gives a string that uniquely identifies the symbol sequence of p. It is
// used for duplicate detection.
func (p Production) key() string {
	var sb strings.Builder
	for i := range p {
		if p[i].Kind == Terminal {
			sb.WriteByte('t')
		} else {
			sb.WriteByte('n')
		}
		sb.WriteString(fmt.Sprintf("%d:", len(p[i].Value)))
		sb.WriteString(p[i].Value)
	}
	return sb.String()
}

// RuleClass is the shape of a production body.
type RuleClass int

const (
	// EpsilonRule is a body with no symbols.
	EpsilonRule RuleClass = iota

	// TerminalRule is a body with exactly one symbol, a terminal.
	TerminalRule

	// Unit is a body with exactly one symbol, a nonterminal.
	Unit

	// Binary is a body with exactly two symbols of any kind.
	Binary

	// NAry is a body with more than two symbols.
	NAry
)

func (rc RuleClass) String() string {
	switch rc {
	case EpsilonRule:
		return "epsilon"
	case TerminalRule:
		return "terminal"
	case Unit:
		return "unit"
	case Binary:
		return "binary"
	case NAry:
		return "n-ary"
	default:
		return fmt.Sprintf("RuleClass(%d)", int(rc))
	}
}

// Classify returns the RuleClass of the given body. Bodies of length two are
// always Binary, even when they contain terminals.
func Classify(p Production) RuleClass {
	switch len(p) {
	case 0:
		return EpsilonRule
	case 1:
		if p[0].IsTerminal() {
			return TerminalRule
		}
		return Unit
	case 2:
		return Binary
	default:
		return NAry
	}
}

// Class is shorthand for Classify(p).
func (p Production) Class() RuleClass {
	return Classify(p)
}
