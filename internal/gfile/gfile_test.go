package gfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dekarrin/cykparse/internal/cyk"
	"github.com/stretchr/testify/assert"
)

// writeFiles writes every file in files to a new temp dir and returns the dir.
func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	return dir
}

func Test_ScanFileInfo(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    FileInfo
		expectErr bool
	}{
		{
			name:   "header only",
			input:  "format = \"CYK\"\ntype = \"GRAMMAR\"\n",
			expect: FileInfo{Format: "CYK", Type: "GRAMMAR"},
		},
		{
			name:   "stops at first table",
			input:  "format = \"CYK\"\ntype = \"GRAMMAR\"\n\n[lexer]\nmode = 7 = bad",
			expect: FileInfo{Format: "CYK", Type: "GRAMMAR"},
		},
		{
			name:      "not toml",
			input:     "S -> 'a' S | ε",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ScanFileInfo([]byte(tc.input))

			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_LoadBundle(t *testing.T) {
	testCases := []struct {
		name        string
		files       map[string]string
		load        string
		expectStart string
		expectRules []string
		expectMode  string
		expectErr   error
		expectAnErr bool
	}{
		{
			name: "single grammar file",
			files: map[string]string{
				"g.toml": `
format = "CYK"
type = "GRAMMAR"
start = "S"
rules = ["S -> A B", "A -> 'a'", "B -> 'b'"]

[lexer]
mode = "words"
`,
			},
			load:        "g.toml",
			expectStart: "S",
			expectRules: []string{"S -> A B", "A -> 'a'", "B -> 'b'"},
			expectMode:  ModeWords,
		},
		{
			name: "manifest merges in order and first start wins",
			files: map[string]string{
				"main.toml": `
format = "CYK"
type = "MANIFEST"
files = ["parts/top.toml", "parts/terms.toml"]
`,
				"parts/top.toml": `
format = "CYK"
type = "GRAMMAR"
start = "S"
rules = ["S -> A B"]
`,
				"parts/terms.toml": `
format = "CYK"
type = "GRAMMAR"
start = "A"
rules = ["A -> 'a'", "B -> 'b'"]

[lexer]
mode = "rules"

[[lexer.rule]]
pattern = "[ab]"
class = "letter"
`,
			},
			load:        "main.toml",
			expectStart: "S",
			expectRules: []string{"S -> A B", "A -> 'a'", "B -> 'b'"},
			expectMode:  ModeRules,
		},
		{
			name: "circular manifest is skipped",
			files: map[string]string{
				"a.toml": `
format = "CYK"
type = "MANIFEST"
files = ["b.toml", "g.toml"]
`,
				"b.toml": `
format = "CYK"
type = "MANIFEST"
files = ["a.toml"]
`,
				"g.toml": `
format = "CYK"
type = "GRAMMAR"
rules = ["S -> 'x'"]
`,
			},
			load:        "a.toml",
			expectRules: []string{"S -> 'x'"},
		},
		{
			name: "empty manifest",
			files: map[string]string{
				"m.toml": "format = \"CYK\"\ntype = \"MANIFEST\"\nfiles = []\n",
			},
			load:      "m.toml",
			expectErr: ErrManifestEmpty,
		},
		{
			name: "self-referencing manifest only",
			files: map[string]string{
				"m.toml": "format = \"CYK\"\ntype = \"MANIFEST\"\nfiles = [\"m.toml\"]\n",
			},
			load:      "m.toml",
			expectErr: ErrManifestEmpty,
		},
		{
			name: "wrong format",
			files: map[string]string{
				"g.toml": "format = \"TUNA\"\ntype = \"GRAMMAR\"\nrules = [\"S -> 'a'\"]\n",
			},
			load:        "g.toml",
			expectAnErr: true,
		},
		{
			name: "bad rule",
			files: map[string]string{
				"g.toml": "format = \"CYK\"\ntype = \"GRAMMAR\"\nrules = [\"S -> A\"]\n",
			},
			load:        "g.toml",
			expectAnErr: true,
		},
		{
			name: "bad lexer mode",
			files: map[string]string{
				"g.toml": "format = \"CYK\"\ntype = \"GRAMMAR\"\nrules = [\"S -> 'a'\"]\n\n[lexer]\nmode = \"bytes\"\n",
			},
			load:        "g.toml",
			expectAnErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			// setup
			dir := writeFiles(t, tc.files)

			// execute
			actual, err := LoadBundle(filepath.Join(dir, tc.load))

			// assert
			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				return
			}
			if tc.expectAnErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expectStart, actual.Start)
			assert.Equal(tc.expectRules, actual.Rules)
			if tc.expectMode != "" {
				assert.Equal(tc.expectMode, actual.LexerDef.mode())
			}

			_, err = actual.Grammar()
			assert.NoError(err)
		})
	}
}

func Test_LoadBundle_stackOverflow(t *testing.T) {
	assert := assert.New(t)

	// m0 -> m1 -> ... -> mN -> g, one manifest more than allowed
	files := map[string]string{
		"g.toml": "format = \"CYK\"\ntype = \"GRAMMAR\"\nrules = [\"S -> 'a'\"]\n",
	}
	for i := 0; i <= MaxManifestRecursionDepth; i++ {
		next := fmt.Sprintf("m%d.toml", i+1)
		if i == MaxManifestRecursionDepth {
			next = "g.toml"
		}
		files[fmt.Sprintf("m%d.toml", i)] = fmt.Sprintf("format = \"CYK\"\ntype = \"MANIFEST\"\nfiles = [%q]\n", next)
	}
	dir := writeFiles(t, files)

	_, err := LoadBundle(filepath.Join(dir, "m0.toml"))

	assert.ErrorIs(err, ErrManifestStackOverflow)
}

func Test_Load_textFile(t *testing.T) {
	assert := assert.New(t)

	dir := writeFiles(t, map[string]string{
		"g.cfg": "# pairs\nS -> 'a' S 'b' | ε\n",
	})

	b, err := Load(filepath.Join(dir, "g.cfg"))
	if !assert.NoError(err) {
		return
	}

	g, err := b.Grammar()
	assert.NoError(err)
	assert.Equal("S", g.StartSymbol())

	lx, mode, err := b.Lexer()
	assert.NoError(err)
	assert.NotNil(lx)
	assert.Equal(cyk.MatchLexeme, mode)
}

func Test_LexerDef_Build(t *testing.T) {
	no := false

	testCases := []struct {
		name        string
		def         LexerDef
		expectMode  cyk.MatchMode
		expectErr   bool
		input       string
		expectCount int
	}{
		{
			name:        "zero value is chars",
			input:       "a b",
			expectMode:  cyk.MatchLexeme,
			expectCount: 2,
		},
		{
			name:        "words",
			def:         LexerDef{Mode: "WORDS"},
			input:       "one two three",
			expectMode:  cyk.MatchLexeme,
			expectCount: 3,
		},
		{
			name:        "rules default to class matching",
			def:         LexerDef{Rules: []LexRuleDef{{Pattern: `\d+`, Class: "num"}}},
			input:       "12 34",
			expectMode:  cyk.MatchClass,
			expectCount: 2,
		},
		{
			name: "rules keeping whitespace",
			def: LexerDef{
				Match:          MatchLexeme,
				SkipWhitespace: &no,
				Rules: []LexRuleDef{
					{Pattern: `\d+`, Class: "num"},
					{Pattern: `\s+`, Class: "ws"},
				},
			},
			input:       "12 34",
			expectMode:  cyk.MatchLexeme,
			expectCount: 3,
		},
		{
			name:      "rules mode without rules",
			def:       LexerDef{Mode: ModeRules},
			expectErr: true,
		},
		{
			name:      "chars mode with rules",
			def:       LexerDef{Mode: ModeChars, Rules: []LexRuleDef{{Pattern: "a", Class: "a"}}},
			expectErr: true,
		},
		{
			name:      "bad match",
			def:       LexerDef{Match: "both"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			lx, mode, err := tc.def.Build()

			if tc.expectErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expectMode, mode)
			toks, err := lx.Lex(tc.input).All()
			assert.NoError(err)
			assert.Len(toks, tc.expectCount)
		})
	}
}

func Test_LexerDef_TOML(t *testing.T) {
	assert := assert.New(t)

	yes := true
	def := LexerDef{
		Mode:           ModeRules,
		Match:          MatchClass,
		SkipWhitespace: &yes,
		Rules: []LexRuleDef{
			{Pattern: `[a-z]+`, Class: "id"},
			{Pattern: `"[^"]*"`, Class: "str"},
		},
	}

	doc, err := def.EncodeTOML()
	if !assert.NoError(err) {
		return
	}
	actual, err := DecodeLexerDef(doc)

	assert.NoError(err)
	assert.Equal(def, actual)

	empty, err := LexerDef{}.EncodeTOML()
	assert.NoError(err)
	actual, err = DecodeLexerDef(empty)
	assert.NoError(err)
	assert.Equal(LexerDef{}, actual)
}
