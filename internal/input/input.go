// Package input contains line readers for getting REPL input from a CLI or
// other source of input.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader reads one line of input at a time.
type LineReader interface {
	// ReadLine reads the next non-blank line of input with surrounding space
	// trimmed. At end of input it returns "" and io.EOF.
	ReadLine() (string, error)

	// Close releases any resources held by the reader.
	Close() error
}

// DirectLineReader implements LineReader and reads lines from any generic
// input stream directly. It can be used with any io.Reader but does not
// sanitize the input of control and escape sequences.
//
// DirectLineReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectLineReader struct {
	r *bufio.Reader
}

// InteractiveLineReader implements LineReader and reads lines from stdin using
// a go implementation of the GNU Readline library. This keeps input clear of
// all typing and editing escape sequences and enables the use of history. It
// should in general only be used when directly connected to a TTY.
//
// InteractiveLineReader should not be used directly; instead, create one with
// [NewInteractiveReader].
type InteractiveLineReader struct {
	rl     *readline.Instance
	prompt string
}

// NewDirectReader creates a new DirectLineReader with a buffered reader on
// the provided reader.
func NewDirectReader(r io.Reader) *DirectLineReader {
	return &DirectLineReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates a new InteractiveLineReader and initializes
// readline with the given prompt. The returned reader must have Close() called
// on it before disposal to properly teardown readline resources.
func NewInteractiveReader(prompt string) (*InteractiveLineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveLineReader{
		rl:     rl,
		prompt: prompt,
	}, nil
}

// Close does nothing; DirectLineReader holds no resources of its own.
func (dlr *DirectLineReader) Close() error {
	return nil
}

// Close cleans up readline resources.
func (ilr *InteractiveLineReader) Close() error {
	return ilr.rl.Close()
}

// ReadLine reads the next non-blank line from the stream.
func (dlr *DirectLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dlr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)
	}

	return line, nil
}

// ReadLine reads the next non-blank line from the terminal.
func (ilr *InteractiveLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ilr.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			if err == readline.ErrInterrupt {
				return "", io.EOF
			}
			return "", err
		}

		line = strings.TrimSpace(line)
	}

	return line, nil
}

// SetPrompt updates the prompt to the given text.
func (ilr *InteractiveLineReader) SetPrompt(p string) {
	ilr.prompt = p
	ilr.rl.SetPrompt(p)
}

// Prompt gets the current prompt.
func (ilr *InteractiveLineReader) Prompt() string {
	return ilr.prompt
}
