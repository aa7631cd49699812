package gfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type topLevelManifest struct {
	Format string   `toml:"format"`
	Type   string   `toml:"type"`
	Files  []string `toml:"files"`
}

// topLevelGrammar is the top-level structure containing all keys in a complete
// 'GRAMMAR' type file.
type topLevelGrammar struct {
	Format string    `toml:"format"`
	Type   string    `toml:"type"`
	Start  string    `toml:"start"`
	Rules  []string  `toml:"rules"`
	Lexer  *LexerDef `toml:"lexer"`
}

// manifStack is for two reasons ->
// * detect circular deps (not an error, but we need to know to avoid them)
// * avoid infinite recursion (allow up to MaxManifestRecursionDepth levels)
//
// Returnes ErrManifestEmpty if and only if the first manifest in the stack is
// empty, otherwise it is not an error.
func recursiveUnmarshalResource(path string, manifStack []string) (data topLevelGrammar, err error) {
	path = filepath.Clean(path)

	fileData, loadErr := os.ReadFile(path)
	if loadErr != nil {
		return topLevelGrammar{}, fmt.Errorf("%q: reading from disk: %w", path, loadErr)
	}

	fileInfo, err := ScanFileInfo(fileData)
	if err != nil {
		return topLevelGrammar{}, fmt.Errorf("%q: detecting file type: %w", path, err)
	}

	if strings.ToUpper(fileInfo.Format) != FormatCYK {
		return topLevelGrammar{}, fmt.Errorf("%q: file does not have a 'format = \"CYK\"' entry", path)
	}

	fileType := strings.ToUpper(fileInfo.Type)
	switch fileType {
	case TypeGrammar:
		unmarshaled, err := unmarshalGrammar(fileData)
		if err != nil {
			return unmarshaled, fmt.Errorf("grammar file %q: %w", path, err)
		}
		return unmarshaled, nil
	case TypeManifest:
		// check the stack to be sure we havent recursed too far and to be sure
		// we aren't about to re-scan a circular-ref'd manifest file we've
		// already brought in.
		if len(manifStack) >= MaxManifestRecursionDepth {
			return topLevelGrammar{}, fmt.Errorf("manifest file %q: %w", path, ErrManifestStackOverflow)
		}
		for i := range manifStack {
			if manifStack[i] == path {
				return topLevelGrammar{}, fmt.Errorf("manifest file %q: %w", path, ErrManifestCircularRef)
			}
		}

		manif, err := unmarshalManifest(fileData)
		if err != nil {
			return topLevelGrammar{}, fmt.Errorf("manifest file %q: %w", path, err)
		}

		// an empty manifest is only a problem for the very first manifest.
		if len(manif.Files) < 1 && len(manifStack) == 0 {
			return topLevelGrammar{}, fmt.Errorf("manifest file %q: %w", path, ErrManifestEmpty)
		}

		combined := topLevelGrammar{}

		manifSubStack := make([]string, len(manifStack)+1)
		copy(manifSubStack, manifStack)
		manifSubStack[len(manifSubStack)-1] = path

		manifDir := filepath.Dir(path)

		// count of non-skipped files, to catch a first manifest that refers
		// only to circular entries
		processedFiles := 0

		for _, manifRelPath := range manif.Files {
			includedFilePath := filepath.Join(manifDir, manifRelPath)

			included, err := recursiveUnmarshalResource(includedFilePath, manifSubStack)
			if err != nil {
				// a circular reference is skipped, not failed
				if errors.Is(err, ErrManifestCircularRef) {
					continue
				}

				return topLevelGrammar{}, fmt.Errorf("in file referred to by manifest file:\n    %q\n%w", path, err)
			}

			if combined.Start == "" {
				combined.Start = included.Start
			}
			if combined.Lexer == nil {
				combined.Lexer = included.Lexer
			}
			combined.Rules = append(combined.Rules, included.Rules...)
			processedFiles++
		}

		if len(manifStack) == 0 && processedFiles == 0 {
			return combined, fmt.Errorf("manifest file %q: %w", path, ErrManifestEmpty)
		}
		return combined, nil

	default:
		return topLevelGrammar{}, fmt.Errorf("%q: file does not have 'type = ' entry set to either %q or %q", path, TypeGrammar, TypeManifest)
	}
}

// unmarshalGrammar unmarshals a grammar file from the given bytes. It does not
// parse or check the rules.
func unmarshalGrammar(tomlData []byte) (topLevelGrammar, error) {
	var top topLevelGrammar
	if tomlErr := toml.Unmarshal(tomlData, &top); tomlErr != nil {
		return top, tomlErr
	}

	if strings.ToUpper(top.Format) != FormatCYK {
		return top, fmt.Errorf("in header: 'format' key must exist and be set to %q", FormatCYK)
	}
	if strings.ToUpper(top.Type) != TypeGrammar {
		return top, fmt.Errorf("in header: 'type' must exist and be set to %q", TypeGrammar)
	}

	return top, nil
}

// unmarshalManifest unmarshals a manifest from the given bytes.
func unmarshalManifest(tomlData []byte) (topLevelManifest, error) {
	var top topLevelManifest
	if tomlErr := toml.Unmarshal(tomlData, &top); tomlErr != nil {
		return top, tomlErr
	}

	if strings.ToUpper(top.Format) != FormatCYK {
		return top, fmt.Errorf("in header: 'format' key must exist and be set to %q", FormatCYK)
	}
	if strings.ToUpper(top.Type) != TypeManifest {
		return top, fmt.Errorf("in header: 'type' must exist and be set to %q", TypeManifest)
	}

	return top, nil
}
