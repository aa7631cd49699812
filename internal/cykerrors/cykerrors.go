// Package cykerrors holds the error values shared by the grammar, cyk, and lex
// packages. It contains the Error type, which can be created with one or more
// 'cause' errors; calling errors.Is() on an Error with any of its causes as the
// target returns true.
//
// Callers should check failures against the sentinel errors in this package
// with errors.Is rather than by inspecting messages.
package cykerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrGrammar indicates a malformed grammar: an empty head, an empty
	// terminal, no rules at all, or a start symbol without productions.
	ErrGrammar = errors.New("malformed grammar")

	// ErrUnboundSymbol indicates that a production body refers to a
	// nonterminal that has no rule of its own.
	ErrUnboundSymbol = errors.New("unbound nonterminal")

	// ErrMalformedInput indicates that the input could not be tokenized. It is
	// distinct from the input simply not being in the language of a grammar,
	// which is not an error.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInputTooLong indicates that the input had more tokens than the parser
	// was configured to accept.
	ErrInputTooLong = errors.New("input is too long")
)

// Error is a typed error with a message and zero or more causes. Calling
// errors.Is on an Error with any of its causes returns true.
//
// If Error has at least one cause, Error() gives its message followed by the
// Error() of the first cause.
//
// Error should not be created directly; call New or one of the other
// constructor functions.
type Error struct {
	msg   string
	human string
	cause []error
}

// Error returns the message of the Error, joined with the message of its first
// cause if it has one.
func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}

	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}

	return e.msg
}

// Unwrap returns the causes of Error, or nil if it has none.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether one of the causes of Error is target. Go 1.19 does not
// know about multi-error Unwrap, so errors.Is relies on this.
func (e Error) Is(target error) bool {
	for i := range e.cause {
		if errors.Is(e.cause[i], target) {
			return true
		}
	}
	return false
}

// New creates a new Error with the given message and causes.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// Grammarf returns a new Error that matches ErrGrammar. The message is built
// from the format string and arguments.
func Grammarf(format string, a ...interface{}) Error {
	msg := fmt.Sprintf(format, a...)
	return Error{
		msg:   msg,
		human: "The grammar is invalid: " + msg,
		cause: []error{ErrGrammar},
	}
}

// Unbound returns a new Error that matches ErrUnboundSymbol for a body of head
// that refers to the nonterminal name.
func Unbound(head, name string) Error {
	return Error{
		msg:   fmt.Sprintf("rule for %q refers to %q", head, name),
		human: fmt.Sprintf("The grammar uses %s in a rule for %s but never defines it.", name, head),
		cause: []error{ErrUnboundSymbol},
	}
}

// Malformed returns a new Error that matches ErrMalformedInput and that wraps
// the given error, which is usually the error produced by the tokenizer.
func Malformed(err error) Error {
	return Error{
		msg:   "tokenize input",
		human: "The input could not be read: " + err.Error(),
		cause: []error{err, ErrMalformedInput},
	}
}

// Human gets the message to display to a person reading a console for the
// given error. If it is an Error with a human message defined, that message is
// returned; otherwise err.Error() is returned.
func Human(err error) string {
	var cerr Error
	if errors.As(err, &cerr) && cerr.human != "" {
		return cerr.human
	}
	return err.Error()
}
