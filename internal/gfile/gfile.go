// Package gfile has functions for loading grammars from CYK bundle files, a
// TOML-based format that holds the rules of a grammar along with the lexer
// used to tokenize its input. Bundles can be split across several files that
// are tied together by a manifest.
package gfile

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/cykparse/internal/grammar"
)

const (
	// FormatCYK is the value of the 'format' key every bundle file must have.
	FormatCYK = "CYK"

	// TypeGrammar is the 'type' of a file that holds rules.
	TypeGrammar = "GRAMMAR"

	// TypeManifest is the 'type' of a file that lists other files to load.
	TypeManifest = "MANIFEST"
)

const MaxManifestRecursionDepth = 32

var (
	// ErrManifestEmpty is the error returned when a manifest file is read
	// successfully but specifies no additional files to load.
	ErrManifestEmpty = errors.New("does not list any valid files to include")

	// ErrManifestStackOverflow is the error returned when the recusion level of
	// MaxManifestRecursionDepth is reached and an additional Manifest is then
	// specified, which would cause recursion to go deeper.
	ErrManifestStackOverflow = errors.New("too many manifests deep")

	// ErrManifestCircularRef is the error returned when a manifest specifies any
	// series of files that with their own manifests refer back to the original
	// manifest, and therefore cannot be followed.
	ErrManifestCircularRef = errors.New("manifest inclusion chain refers back to itself")
)

// Manifest contains data loaded from a manifest file.
type Manifest struct {
	Files []string
}

// Bundle is a grammar and its lexer as loaded from one or more files.
type Bundle struct {
	// Start is the start symbol. If empty, the head of the first rule is used.
	Start string

	// Rules holds one rule per entry in the text rule format, such as
	// "S -> A 'b' | ε".
	Rules []string

	// LexerDef is how input for the grammar is tokenized.
	LexerDef LexerDef
}

// Grammar builds the grammar described by the bundle.
func (b Bundle) Grammar() (grammar.Grammar, error) {
	raw, err := grammar.ParseLines(b.Rules)
	if err != nil {
		return grammar.Grammar{}, err
	}
	return grammar.FromRaw(b.Start, raw)
}

// FileInfo contains the essential information all bundle files must contain.
// It can be obtained from a file by reading it into memory and calling
// ScanFileInfo on the bytes.
type FileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

// LoadBundle loads a bundle from the given file. The file's type is
// auto-detected; it can either be "GRAMMAR" type or "MANIFEST" type. If it is a
// manifest, every file listed in it is loaded relative to it, recursively, and
// combined in order. Rules are appended; the first start symbol and the first
// lexer definition found are used.
func LoadBundle(path string) (Bundle, error) {
	unmarshaled, err := recursiveUnmarshalResource(path, nil)
	if err != nil {
		return Bundle{}, err
	}

	return parseBundle(unmarshaled)
}

// LoadManifestFile loads manifest data from a bundle file.
func LoadManifestFile(path string) (manif Manifest, err error) {
	manifestData, loadErr := os.ReadFile(path)
	if loadErr != nil {
		return manif, loadErr
	}

	unmarshaled, err := unmarshalManifest(manifestData)
	if err != nil {
		return manif, err
	}
	return Manifest{Files: unmarshaled.Files}, nil
}

// LoadTextFile loads a bundle from a file in the plain text rule format, one
// rule per line. The bundle uses the default lexer.
func LoadTextFile(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, err
	}

	b := Bundle{Rules: strings.Split(string(data), "\n")}

	// rules are checked now so errors are reported for the file and not later
	if _, err := b.Grammar(); err != nil {
		return Bundle{}, fmt.Errorf("%q: %w", path, err)
	}
	return b, nil
}

// Load loads a bundle from path. Files that have the TOML bundle header are
// loaded with LoadBundle; anything else is loaded with LoadTextFile.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, err
	}

	info, err := ScanFileInfo(data)
	if err == nil && strings.ToUpper(info.Format) == FormatCYK {
		return LoadBundle(path)
	}
	return LoadTextFile(path)
}

// ScanFileInfo takes the given data bytes and attempts to read the bundle
// format common header info from it. The bytes are read up to the first
// instance of a table definition header and those bytes are parsed for the
// info. If there is an error reading the info, returns a non-nil error.
func ScanFileInfo(data []byte) (FileInfo, error) {
	// only run the toml parser up to the end of the top-lev table
	var topLevelEnd int = -1
	var onNewLine = true
	for b := range data {
		if onNewLine {
			if data[b] == '[' {
				topLevelEnd = b
				break
			}
		}

		if data[b] == '\n' {
			onNewLine = true
		} else if !unicode.IsSpace(rune(data[b])) {
			onNewLine = false
		}
	}

	scanData := data
	if topLevelEnd != -1 {
		scanData = data[:topLevelEnd]
	}

	var info FileInfo
	err := toml.Unmarshal(scanData, &info)
	return info, err
}

func parseBundle(top topLevelGrammar) (Bundle, error) {
	b := Bundle{
		Start: top.Start,
		Rules: top.Rules,
	}
	if top.Lexer != nil {
		b.LexerDef = *top.Lexer
	}

	if len(b.Rules) == 0 {
		return b, fmt.Errorf("bundle defines no rules")
	}
	if err := b.LexerDef.Validate(); err != nil {
		return b, fmt.Errorf("lexer: %w", err)
	}
	if _, err := b.Grammar(); err != nil {
		return b, err
	}

	return b, nil
}
