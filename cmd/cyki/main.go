/*
Cyki starts an interactive CYK recognizer session.

It reads in a grammar file, converts the grammar to Chomsky normal form, and
then reads lines of input from stdin, printing for each whether it is in the
language of the grammar along with its parse tree, until the input ends or the
":quit" command is given.

Usage:

	cyki [flags]

The flags are:

	-v, --version
		Give the current version of the CYK interpreter and then exit.

	-g, --grammar FILE
		Use the provided grammar file. It can be a CYK bundle or manifest in
		TOML or a plain text file with one rule per line. Defaults to the file
		"grammar.toml" in the current working directory.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input even if launched in a tty
		with stdin and stdout.

	-e, --eval INPUT
		Recognize INPUT once and exit instead of starting a session. The exit
		code is 0 if the input is accepted, 1 if it is rejected, and 2 if it
		could not be tokenized.

	--save-cnf FILE
		Write the binary encoding of the converted grammar to FILE before
		doing anything else.

Once a session has started, type ":help" for an explanation of the commands.
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dekarrin/cykparse"
	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/dekarrin/cykparse/internal/version"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution, or that evaluated
	// input was accepted.
	ExitSuccess = iota

	// ExitRejected indicates that evaluated input was not in the language, or
	// that there was a problem during the session.
	ExitRejected

	// ExitMalformed indicates that evaluated input could not be tokenized.
	ExitMalformed

	// ExitInitError indicates an unsuccessful program execution due to an issue
	// initializing the engine.
	ExitInitError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the CYK interpreter and then exit.")
	flagGrammar = pflag.StringP("grammar", "g", "grammar.toml", "The grammar bundle, manifest, or text rule file to recognize input with.")
	flagDirect  = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible.")
	flagEval    = pflag.StringP("eval", "e", "", "Recognize the given input once and exit with its verdict.")
	flagSaveCNF = pflag.String("save-cnf", "", "Write the binary encoding of the converted grammar to the given file.")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic("unrecoverable panic occured")
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		returnCode = ExitInitError
		return
	}

	eng, initErr := cykparse.New(os.Stdin, os.Stdout, *flagGrammar, *flagDirect || pflag.Lookup("eval").Changed)
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", initErr.Error())
		returnCode = ExitInitError
		return
	}
	defer eng.Close()

	if *flagSaveCNF != "" {
		if err := eng.SaveCNF(*flagSaveCNF); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}

	if pflag.Lookup("eval").Changed {
		res, err := eng.Eval(*flagEval)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", cykerrors.Human(err))
			if errors.Is(err, cykerrors.ErrMalformedInput) {
				returnCode = ExitMalformed
			} else {
				returnCode = ExitInitError
			}
			return
		}
		if res.Accepted {
			fmt.Println(cykparse.VerdictAccept)
			fmt.Println(res.Tree.Collapse(eng.CNF()).String())
		} else {
			fmt.Println(cykparse.VerdictReject)
			returnCode = ExitRejected
		}
		return
	}

	err := eng.RunUntilQuit()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitRejected
		return
	}
}
