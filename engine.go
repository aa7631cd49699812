// Package cykparse contains a CLI-driven engine that reads lines of input and
// reports whether each is in the language of a grammar, continuously until the
// user quits.
package cykparse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/cykparse/internal/cyk"
	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/dekarrin/cykparse/internal/gfile"
	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/dekarrin/cykparse/internal/input"
	"github.com/dekarrin/cykparse/internal/lex"
	"github.com/dekarrin/rosed"
)

// Verdicts printed for each line of input.
const (
	VerdictAccept = "ACCEPT"
	VerdictReject = "REJECT"
)

// Tree display modes.
const (
	TreeCollapsed = "collapsed"
	TreeRaw       = "raw"
)

const consoleOutputWidth = 80

const helpText = `Type a line of input to check whether the grammar accepts it. Lines that
start with ':' are commands:

  :grammar          show the grammar as it was loaded
  :cnf              show the grammar converted to Chomsky normal form
  :table INPUT      show the recognition table for INPUT
  :tree raw         show parse trees over the converted grammar
  :tree collapsed   show parse trees with helper symbols removed
  :help             show this help
  :quit             exit
`

// Engine contains the things needed to run a recognizer from an interactive
// shell attached to an input stream and an output stream.
type Engine struct {
	source      grammar.Grammar
	parser      *cyk.Parser
	lexer       *lex.Lexer
	match       cyk.MatchMode
	in          input.LineReader
	out         *bufio.Writer
	treeMode    string
	forceDirect bool
	running     bool
}

// New creates a new engine ready to operate on the given input and output
// streams, recognizing the grammar in the given bundle or text rule file. It
// will immediately open a buffered reader on the input stream and a buffered
// writer on the output stream.
//
// If nil is given for the input stream, stdin is used. If nil is given for the
// output stream, stdout is used.
func New(inputStream io.Reader, outputStream io.Writer, grammarFilePath string, forceDirectInput bool) (*Engine, error) {
	bundle, err := gfile.Load(grammarFilePath)
	if err != nil {
		return nil, err
	}
	return NewFromBundle(inputStream, outputStream, bundle, forceDirectInput)
}

// NewFromBundle is like New but uses an already-loaded bundle.
func NewFromBundle(inputStream io.Reader, outputStream io.Writer, bundle gfile.Bundle, forceDirectInput bool) (*Engine, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	source, err := bundle.Grammar()
	if err != nil {
		return nil, fmt.Errorf("build grammar: %w", err)
	}
	lx, mode, err := bundle.Lexer()
	if err != nil {
		return nil, fmt.Errorf("build lexer: %w", err)
	}
	cnf, err := grammar.Convert(source)
	if err != nil {
		return nil, fmt.Errorf("convert grammar: %w", err)
	}
	parser, err := cyk.New(cnf)
	if err != nil {
		return nil, fmt.Errorf("initializing recognizer: %w", err)
	}

	eng := &Engine{
		source:      source,
		parser:      parser,
		lexer:       lx,
		match:       mode,
		out:         bufio.NewWriter(outputStream),
		treeMode:    TreeCollapsed,
		forceDirect: forceDirectInput,
	}

	useReadline := !forceDirectInput && inputStream == os.Stdin && outputStream == os.Stdout

	if useReadline {
		eng.in, err = input.NewInteractiveReader("> ")
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		eng.in = input.NewDirectReader(inputStream)
	}

	return eng, nil
}

// Grammar returns the grammar as it was loaded.
func (eng *Engine) Grammar() grammar.Grammar {
	return eng.source
}

// CNF returns the converted grammar that input is recognized against.
func (eng *Engine) CNF() grammar.Grammar {
	return eng.parser.Grammar()
}

// SaveCNF writes the binary encoding of the converted grammar to the given
// file.
func (eng *Engine) SaveCNF(path string) error {
	data, err := eng.CNF().MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode grammar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

// Eval tokenizes text with the lexer of the grammar and recognizes it. The
// returned error matches cykerrors.ErrMalformedInput if the text could not be
// tokenized.
func (eng *Engine) Eval(text string) (cyk.Result, error) {
	return eng.parser.ParseTokens(eng.lexer.Lex(text), eng.match)
}

// Close closes all resources associated with the Engine, including any
// readline-related resources created for interactive mode.
func (eng *Engine) Close() error {
	if eng.running {
		return fmt.Errorf("cannot close a running engine")
	}

	err := eng.in.Close()
	if err != nil {
		return fmt.Errorf("close line reader: %w", err)
	}

	return nil
}

// RunUntilQuit begins reading lines from the input stream and checking each
// one until the :quit command is received or input ends.
func (eng *Engine) RunUntilQuit() error {
	introMsg := "CYK Recognizer Engine\n"
	if eng.forceDirect {
		introMsg += "(direct input mode)\n"
	}
	introMsg += "=====================\n"
	introMsg += fmt.Sprintf("Grammar starts at %s with %d rules (%d in normal form)\n", eng.source.StartSymbol(), eng.source.Len(), eng.CNF().Len())
	introMsg += "Type :help for commands\n"

	if err := eng.write(introMsg); err != nil {
		return err
	}

	eng.running = true
	// so we dont have to remember to do this on every returned error condition
	defer func() {
		eng.running = false
	}()

	for eng.running {
		line, err := eng.in.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("get user input: %w", err)
		}

		if err := eng.handle(line); err != nil {
			return err
		}
	}

	return eng.write("Goodbye\n")
}

// handle runs a single line of input, either a command or text to recognize.
func (eng *Engine) handle(line string) error {
	if !strings.HasPrefix(line, ":") {
		return eng.recognize(line, false)
	}

	cmd, arg := line, ""
	if idx := strings.IndexAny(line, " \t"); idx != -1 {
		cmd, arg = line[:idx], strings.TrimSpace(line[idx+1:])
	}

	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		eng.running = false
		return nil
	case ":help", ":h":
		return eng.write(helpText)
	case ":grammar":
		return eng.write(eng.source.String() + "\n")
	case ":cnf":
		return eng.write(eng.CNF().Table(consoleOutputWidth) + "\n")
	case ":table":
		return eng.recognize(arg, true)
	case ":tree":
		switch strings.ToLower(arg) {
		case "":
			return eng.write(fmt.Sprintf("Trees are shown %s\n", eng.treeMode))
		case TreeRaw, TreeCollapsed:
			eng.treeMode = strings.ToLower(arg)
			return eng.write(fmt.Sprintf("Trees will be shown %s\n", eng.treeMode))
		default:
			return eng.writeWrapped(fmt.Sprintf("Tree mode must be %q or %q, not %q", TreeRaw, TreeCollapsed, arg))
		}
	default:
		return eng.writeWrapped(fmt.Sprintf("Unknown command %q; try :help for valid commands", cmd))
	}
}

func (eng *Engine) recognize(text string, showTable bool) error {
	res, err := eng.Eval(text)
	if err != nil {
		return eng.writeWrapped(cykerrors.Human(err))
	}

	var sb strings.Builder
	if showTable {
		sb.WriteString(res.Table.Format(consoleOutputWidth))
		sb.WriteRune('\n')
	}
	if !res.Accepted {
		sb.WriteString(VerdictReject + "\n")
		return eng.write(sb.String())
	}

	sb.WriteString(VerdictAccept + "\n")
	tree := *res.Tree
	if eng.treeMode == TreeCollapsed {
		tree = res.Tree.Collapse(eng.CNF())
	}
	sb.WriteString(tree.String())
	sb.WriteRune('\n')
	return eng.write(sb.String())
}

func (eng *Engine) writeWrapped(msg string) error {
	msg = rosed.Edit(msg).Wrap(consoleOutputWidth).String()
	return eng.write(msg + "\n")
}

func (eng *Engine) write(s string) error {
	if _, err := eng.out.WriteString(s); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := eng.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}
	return nil
}
