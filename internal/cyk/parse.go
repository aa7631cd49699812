// Package cyk recognizes input against a grammar in Chomsky Normal Form using
// the Cocke-Younger-Kasami algorithm, and rebuilds a derivation tree for
// accepted input.
package cyk

import (
	"fmt"

	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/dekarrin/ictiobus/lex"
)

// MatchMode selects which part of a token is compared against the terminals of
// the grammar.
type MatchMode int

const (
	// MatchLexeme compares the exact text of each token.
	MatchLexeme MatchMode = iota

	// MatchClass compares the ID of the class of each token.
	MatchClass
)

func (m MatchMode) String() string {
	switch m {
	case MatchLexeme:
		return "lexeme"
	case MatchClass:
		return "class"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// TokenSource is a stream of tokens. Next returns an error when the input
// cannot be tokenized.
type TokenSource interface {
	HasNext() bool
	Next() (lex.Token, error)
}

// Options changes how a Parser handles input.
type Options struct {
	// MaxTokens is the most tokens that will be parsed. Longer input gives an
	// error matching cykerrors.ErrInputTooLong. 0 means no limit.
	MaxTokens int
}

type binaryProduction struct {
	head  string
	left  string
	right string
}

// Parser recognizes input against a single CNF grammar. It is not modified by
// parsing and is safe for concurrent use.
type Parser struct {
	g    grammar.Grammar
	opts Options

	// heads with a production for each terminal, in declaration order
	byTerminal map[string][]string

	// all productions of two nonterminals, in declaration order
	binaries []binaryProduction

	acceptsEmpty bool
}

// Result is the outcome of parsing one input.
type Result struct {
	// Accepted is whether the input is in the language of the grammar.
	Accepted bool

	// Table is the filled parse table.
	Table *Table

	// Tree is the derivation of the input from the start symbol. It is only
	// set when Accepted is true.
	Tree *Tree
}

// New creates a Parser for g with no options. The returned error will match
// cykerrors.ErrGrammar if g is not in Chomsky Normal Form or is otherwise
// invalid; use grammar.Convert to get a grammar that New accepts. A start
// symbol with no productions is allowed, and the Parser then rejects every
// input.
func New(g grammar.Grammar) (*Parser, error) {
	return NewWithOptions(g, Options{})
}

// NewWithOptions is like New but the Parser uses the given options.
func NewWithOptions(g grammar.Grammar, opts Options) (*Parser, error) {
	if err := g.ValidateCNF(); err != nil {
		return nil, err
	}
	if opts.MaxTokens < 0 {
		return nil, fmt.Errorf("MaxTokens must be non-negative, got %d", opts.MaxTokens)
	}

	p := &Parser{
		g:          g,
		opts:       opts,
		byTerminal: map[string][]string{},
	}

	for _, r := range g.Rules() {
		for _, prod := range r.Productions {
			switch prod.Class() {
			case grammar.TerminalRule:
				p.byTerminal[prod[0].Value] = append(p.byTerminal[prod[0].Value], r.NonTerminal)
			case grammar.Binary:
				p.binaries = append(p.binaries, binaryProduction{
					head:  r.NonTerminal,
					left:  prod[0].Value,
					right: prod[1].Value,
				})
			case grammar.EpsilonRule:
				p.acceptsEmpty = true
			}
		}
	}

	return p, nil
}

// Grammar returns the grammar the Parser recognizes.
func (p *Parser) Grammar() grammar.Grammar {
	return p.g
}

// Parse recognizes the given sequence of terminal texts. Not being in the
// language is not an error; the only error returned is one matching
// cykerrors.ErrInputTooLong.
func (p *Parser) Parse(terminals []string) (Result, error) {
	return p.parse(terminals, nil)
}

// ParseTokens reads every token from stream and recognizes the sequence. The
// mode decides whether the lexeme or the class ID of each token is matched
// against the terminals of the grammar. The leaves of the returned tree carry
// the source tokens.
//
// If the stream gives an error, the returned error matches
// cykerrors.ErrMalformedInput and wraps the error from the stream.
func (p *Parser) ParseTokens(stream TokenSource, mode MatchMode) (Result, error) {
	var keys []string
	var toks []lex.Token

	for stream.HasNext() {
		tok, err := stream.Next()
		if err != nil {
			return Result{}, cykerrors.Malformed(err)
		}
		if p.opts.MaxTokens > 0 && len(toks) >= p.opts.MaxTokens {
			return Result{}, p.tooLong()
		}

		toks = append(toks, tok)
		if mode == MatchClass {
			keys = append(keys, tok.Class().ID())
		} else {
			keys = append(keys, tok.Lexeme())
		}
	}

	return p.parse(keys, toks)
}

func (p *Parser) tooLong() error {
	return cykerrors.New(fmt.Sprintf("input has more than %d tokens", p.opts.MaxTokens), cykerrors.ErrInputTooLong)
}

func (p *Parser) parse(keys []string, toks []lex.Token) (Result, error) {
	if p.opts.MaxTokens > 0 && len(keys) > p.opts.MaxTokens {
		return Result{}, p.tooLong()
	}

	n := len(keys)
	table := newTable(keys)
	start := p.g.StartSymbol()

	if n == 0 {
		res := Result{Accepted: p.acceptsEmpty, Table: table}
		if res.Accepted {
			res.Tree = &Tree{Value: start}
		}
		return res, nil
	}

	for i, key := range keys {
		for _, head := range p.byTerminal[key] {
			table.add(i, 1, head, Witness{Split: i})
		}
	}

	for length := 2; length <= n; length++ {
		for i := 0; i+length <= n; i++ {
			for split := 1; split < length; split++ {
				for _, b := range p.binaries {
					if table.Has(i, split, b.left) && table.Has(i+split, length-split, b.right) {
						table.add(i, length, b.head, Witness{Split: split, Left: b.left, Right: b.right})
					}
				}
			}
		}
	}

	res := Result{Table: table, Accepted: table.Has(0, n, start)}
	if res.Accepted {
		res.Tree = buildTree(table, toks, 0, n, start)
	}
	return res, nil
}

// buildTree follows the witnesses from the given cell down to the leaves.
func buildTree(t *Table, toks []lex.Token, start, length int, nonterminal string) *Tree {
	w, _ := t.Witness(start, length, nonterminal)
	node := &Tree{Value: nonterminal}

	if length == 1 {
		leaf := &Tree{Terminal: true, Value: t.tokens[start]}
		if toks != nil {
			leaf.Source = toks[start]
		}
		node.Children = []*Tree{leaf}
		return node
	}

	node.Children = []*Tree{
		buildTree(t, toks, start, w.Split, w.Left),
		buildTree(t, toks, start+w.Split, length-w.Split, w.Right),
	}
	return node
}
