package cyk

import (
	"fmt"
	"strings"

	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/dekarrin/ictiobus/lex"
)

const (
	treeLevelEmpty               = "        "
	treeLevelOngoing             = "  |     "
	treeLevelPrefix              = "  |%s: "
	treeLevelPrefixLast          = `  \%s: `
	treeLevelPrefixNamePadChar   = '-'
	treeLevelPrefixNamePadAmount = 3
)

func makeTreeLevelPrefix(msg string, last bool) string {
	for len([]rune(msg)) < treeLevelPrefixNamePadAmount {
		msg = string(treeLevelPrefixNamePadChar) + msg
	}
	if last {
		return fmt.Sprintf(treeLevelPrefixLast, msg)
	}
	return fmt.Sprintf(treeLevelPrefix, msg)
}

// Tree is a derivation of some input from a nonterminal, as rebuilt from the
// witnesses of a Table.
type Tree struct {
	// Terminal is whether this node is a leaf for a single token.
	Terminal bool

	// Value is the nonterminal name, or the matched token key for leaves.
	Value string

	// Source is the token that a leaf was built from. It is only set on leaves
	// of trees made by ParseTokens.
	Source lex.Token

	// Children of the node, left to right. Leaves have none. A nonterminal node
	// with no children derived the empty input.
	Children []*Tree
}

// String returns a prettified representation of the entire tree suitable for
// use in line-by-line comparisons of tree structure. Two trees are considered
// semantically identical if they produce identical String() output.
func (tr Tree) String() string {
	return tr.leveledStr("", "")
}

// Copy returns a duplicate, deeply-copied tree.
func (tr Tree) Copy() Tree {
	newTr := Tree{
		Terminal: tr.Terminal,
		Value:    tr.Value,
		Source:   tr.Source,
		Children: make([]*Tree, len(tr.Children)),
	}

	for i := range tr.Children {
		if tr.Children[i] != nil {
			newChild := tr.Children[i].Copy()
			newTr.Children[i] = &newChild
		}
	}

	return newTr
}

func (tr Tree) leveledStr(firstPrefix, contPrefix string) string {
	var sb strings.Builder

	sb.WriteString(firstPrefix)
	if tr.Terminal {
		sb.WriteString(fmt.Sprintf("(TERM %q)", tr.Value))
	} else {
		sb.WriteString(fmt.Sprintf("( %s )", tr.Value))
	}

	for i := range tr.Children {
		sb.WriteRune('\n')
		last := i+1 >= len(tr.Children)
		leveledContPrefix := contPrefix + treeLevelOngoing
		if last {
			leveledContPrefix = contPrefix + treeLevelEmpty
		}
		sb.WriteString(tr.Children[i].leveledStr(contPrefix+makeTreeLevelPrefix("", last), leveledContPrefix))
	}

	return sb.String()
}

// Equal returns whether the tree is equal to the given object. If the given
// object is not a Tree or *Tree, returns false, else returns whether the two
// trees have the exact same structure. Source tokens are not compared.
func (tr Tree) Equal(o any) bool {
	other, ok := o.(Tree)
	if !ok {
		otherPtr, ok := o.(*Tree)
		if !ok {
			return false
		} else if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if tr.Terminal != other.Terminal {
		return false
	} else if tr.Value != other.Value {
		return false
	}

	if len(tr.Children) != len(other.Children) {
		return false
	}
	for i := range tr.Children {
		if !tr.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Leaves returns the leaves of the tree from left to right.
func (tr Tree) Leaves() []*Tree {
	if tr.Terminal {
		leaf := tr
		return []*Tree{&leaf}
	}

	var leaves []*Tree
	for _, ch := range tr.Children {
		leaves = append(leaves, ch.Leaves()...)
	}
	return leaves
}

// Collapse returns a copy of the tree with the nonterminals that CNF
// conversion added taken back out, using the origins recorded in g. A node for
// a binarization chain is replaced by its children, and a node for a terminal
// substitute is replaced by the leaf it derives.
func (tr Tree) Collapse(g grammar.Grammar) Tree {
	collapsed := tr.Copy()
	collapsed.Children = collapseChildren(collapsed.Children, g)
	return collapsed
}

func collapseChildren(children []*Tree, g grammar.Grammar) []*Tree {
	var out []*Tree
	for _, ch := range children {
		if ch.Terminal {
			out = append(out, ch)
			continue
		}

		ch.Children = collapseChildren(ch.Children, g)

		switch g.Origin(ch.Value) {
		case grammar.BinaryChain:
			out = append(out, ch.Children...)
		case grammar.TerminalSubstitute:
			if len(ch.Children) == 1 && ch.Children[0].Terminal {
				out = append(out, ch.Children[0])
			} else {
				out = append(out, ch)
			}
		default:
			out = append(out, ch)
		}
	}
	return out
}
