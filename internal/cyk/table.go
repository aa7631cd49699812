package cyk

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
)

// Witness records how a nonterminal came to be in a cell of the Table. For
// cells with length greater than one, Split is the length of the left part of
// the span and Left and Right are the nonterminals that derive the two parts.
// For cells of length one, Left and Right are empty and Split is the index of
// the token the nonterminal derives.
type Witness struct {
	Split int
	Left  string
	Right string
}

// IsTerminal returns whether w records a terminal production rather than a
// split.
func (w Witness) IsTerminal() bool {
	return w.Left == ""
}

type cell struct {
	// insertion order of nonterminals
	order   []string
	witness map[string]Witness
}

// Table is the CYK parse table for one input. Cells are indexed by the
// position of the first token they cover and the number of tokens they cover.
// Each cell holds the nonterminals that derive that span, in the order they
// were found, along with one Witness per nonterminal.
type Table struct {
	tokens []string

	// cells[start][length-1]
	cells [][]cell
}

func newTable(tokens []string) *Table {
	n := len(tokens)
	t := &Table{
		tokens: make([]string, n),
		cells:  make([][]cell, n),
	}
	copy(t.tokens, tokens)

	for start := 0; start < n; start++ {
		t.cells[start] = make([]cell, n-start)
		for i := range t.cells[start] {
			t.cells[start][i].witness = map[string]Witness{}
		}
	}
	return t
}

// Len returns the number of tokens the table was built for.
func (t *Table) Len() int {
	return len(t.tokens)
}

// Tokens returns the token keys the table was built for.
func (t *Table) Tokens() []string {
	toks := make([]string, len(t.tokens))
	copy(toks, t.tokens)
	return toks
}

func (t *Table) inRange(start, length int) bool {
	return start >= 0 && length >= 1 && start+length <= len(t.tokens)
}

// Cell returns the nonterminals that derive the span of the given length
// starting at the given token, in the order they were found. The returned
// slice is nil if the span is out of range or nothing derives it.
func (t *Table) Cell(start, length int) []string {
	if !t.inRange(start, length) {
		return nil
	}
	c := t.cells[start][length-1]
	if len(c.order) == 0 {
		return nil
	}
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Has returns whether nonterminal derives the given span.
func (t *Table) Has(start, length int, nonterminal string) bool {
	if !t.inRange(start, length) {
		return false
	}
	_, ok := t.cells[start][length-1].witness[nonterminal]
	return ok
}

// Witness returns the witness recorded for nonterminal in the given span. The
// bool is false if the nonterminal does not derive the span.
func (t *Table) Witness(start, length int, nonterminal string) (Witness, bool) {
	if !t.inRange(start, length) {
		return Witness{}, false
	}
	w, ok := t.cells[start][length-1].witness[nonterminal]
	return w, ok
}

// add records nonterminal in the cell unless it is already there, in which
// case the earlier witness is kept. Returns whether it was added.
func (t *Table) add(start, length int, nonterminal string, w Witness) bool {
	c := &t.cells[start][length-1]
	if _, ok := c.witness[nonterminal]; ok {
		return false
	}
	c.witness[nonterminal] = w
	c.order = append(c.order, nonterminal)
	return true
}

// String gives the table as text with one row per span length and one column
// per starting token.
func (t *Table) String() string {
	return t.Format(0)
}

// Format is like String but wraps the table to the given width. A width less
// than 1 does not wrap.
func (t *Table) Format(width int) string {
	n := len(t.tokens)
	if n == 0 {
		return "(empty input)"
	}

	header := make([]string, n+1)
	header[0] = "Length"
	for i, tok := range t.tokens {
		header[i+1] = fmt.Sprintf("%d:%s", i, tok)
	}
	data := [][]string{header}

	for length := 1; length <= n; length++ {
		row := make([]string, n+1)
		row[0] = fmt.Sprintf("%d", length)
		for start := 0; start < n; start++ {
			if start+length > n {
				continue
			}
			names := t.cells[start][length-1].order
			if len(names) == 0 {
				row[start+1] = "-"
			} else {
				row[start+1] = strings.Join(names, ", ")
			}
		}
		data = append(data, row)
	}

	if width < 1 {
		// wide enough that rosed never needs to wrap a cell
		colWidths := make([]int, n+1)
		for _, row := range data {
			for i, col := range row {
				if w := len([]rune(col)); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
		width = 0
		for _, w := range colWidths {
			width += w + 3
		}
		width += 4
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, width, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
