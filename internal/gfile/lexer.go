package gfile

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/cykparse/internal/cyk"
	"github.com/dekarrin/cykparse/internal/lex"
)

// Lexer modes.
const (
	ModeChars = "chars"
	ModeWords = "words"
	ModeRules = "rules"
)

// Match settings.
const (
	MatchLexeme = "lexeme"
	MatchClass  = "class"
)

// LexerDef describes how input for a grammar is tokenized. The zero value
// makes each non-space character a token matched by its text.
type LexerDef struct {
	// Mode is one of "chars", "words", or "rules". If empty, it is "rules" when
	// Rules is set and "chars" otherwise.
	Mode string `toml:"mode,omitempty" json:"mode,omitempty"`

	// Match is "lexeme" to match grammar terminals against the text of each
	// token or "class" to match them against the token class. If empty, it is
	// "class" in rules mode and "lexeme" otherwise.
	Match string `toml:"match,omitempty" json:"match,omitempty"`

	// SkipWhitespace is only used in rules mode. If nil, whitespace is
	// skipped.
	SkipWhitespace *bool `toml:"skip_whitespace,omitempty" json:"skip_whitespace,omitempty"`

	Rules []LexRuleDef `toml:"rule,omitempty" json:"rules,omitempty"`
}

// LexRuleDef is a single pattern and the class of token it makes.
type LexRuleDef struct {
	Pattern string `toml:"pattern" json:"pattern"`
	Class   string `toml:"class" json:"class"`
}

func (ld LexerDef) mode() string {
	m := strings.ToLower(ld.Mode)
	if m == "" {
		if len(ld.Rules) > 0 {
			return ModeRules
		}
		return ModeChars
	}
	return m
}

func (ld LexerDef) match() string {
	m := strings.ToLower(ld.Match)
	if m == "" {
		if ld.mode() == ModeRules {
			return MatchClass
		}
		return MatchLexeme
	}
	return m
}

// Validate returns an error if the definition cannot be used to build a lexer.
func (ld LexerDef) Validate() error {
	_, _, err := ld.Build()
	return err
}

// Build creates the lexer described by ld, along with the mode the parser
// should use to match its tokens against the terminals of the grammar.
func (ld LexerDef) Build() (*lex.Lexer, cyk.MatchMode, error) {
	var mm cyk.MatchMode
	switch ld.match() {
	case MatchLexeme:
		mm = cyk.MatchLexeme
	case MatchClass:
		mm = cyk.MatchClass
	default:
		return nil, mm, fmt.Errorf("match: must be one of %q or %q, not %q", MatchLexeme, MatchClass, ld.Match)
	}

	switch ld.mode() {
	case ModeChars:
		if len(ld.Rules) > 0 {
			return nil, mm, fmt.Errorf("%q mode does not use rules", ModeChars)
		}
		return lex.Chars(), mm, nil
	case ModeWords:
		if len(ld.Rules) > 0 {
			return nil, mm, fmt.Errorf("%q mode does not use rules", ModeWords)
		}
		return lex.Words(), mm, nil
	case ModeRules:
		if len(ld.Rules) == 0 {
			return nil, mm, fmt.Errorf("%q mode requires at least one rule", ModeRules)
		}
		rules := make([]lex.Rule, len(ld.Rules))
		for i := range ld.Rules {
			rules[i] = lex.Rule{Pattern: ld.Rules[i].Pattern, Class: ld.Rules[i].Class}
		}
		skip := ld.SkipWhitespace == nil || *ld.SkipWhitespace
		lx, err := lex.New(rules, skip)
		if err != nil {
			return nil, mm, err
		}
		return lx, mm, nil
	default:
		return nil, mm, fmt.Errorf("mode: must be one of %q, %q, or %q, not %q", ModeChars, ModeWords, ModeRules, ld.Mode)
	}
}

// Lexer builds the lexer of the bundle. See LexerDef.Build.
func (b Bundle) Lexer() (*lex.Lexer, cyk.MatchMode, error) {
	return b.LexerDef.Build()
}

// EncodeTOML gives the definition as a TOML document.
func (ld LexerDef) EncodeTOML() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(ld); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DecodeLexerDef reads a definition from a TOML document written by
// EncodeTOML.
func DecodeLexerDef(doc string) (LexerDef, error) {
	var ld LexerDef
	if _, err := toml.Decode(doc, &ld); err != nil {
		return LexerDef{}, err
	}
	return ld, nil
}
