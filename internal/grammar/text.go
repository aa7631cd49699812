package grammar

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dekarrin/cykparse/internal/cykerrors"
)

// RawRule is a single production as given by a grammar loader: a head name and
// the body symbols as written. A body element that starts with a quote
// character (' or ") is a terminal; all others are nonterminals. An empty body,
// or a body consisting of only "ε", is an epsilon production.
type RawRule struct {
	Head string
	Body []string
}

// FromRaw builds a Grammar from raw rules in order. If start is empty, the head
// of the first rule is used.
//
// The returned error, if non-nil, matches cykerrors.ErrGrammar or
// cykerrors.ErrUnboundSymbol.
func FromRaw(start string, rules []RawRule) (Grammar, error) {
	if len(rules) == 0 {
		return Grammar{}, cykerrors.Grammarf("grammar has no rules")
	}

	var b Builder
	for i, r := range rules {
		head := strings.TrimSpace(r.Head)
		if head == "" {
			return Grammar{}, cykerrors.Grammarf("rule %d: empty head", i+1)
		}

		body, err := rawBody(r.Body)
		if err != nil {
			return Grammar{}, cykerrors.Grammarf("rule %d (%s): %s", i+1, head, err.Error())
		}
		b.AddRule(head, body...)
	}

	return b.Build(start)
}

func rawBody(elems []string) ([]Symbol, error) {
	if len(elems) == 1 && isEpsilonMark(elems[0]) {
		return nil, nil
	}

	body := make([]Symbol, 0, len(elems))
	for _, e := range elems {
		if e == "" {
			return nil, cykerrors.New("empty symbol")
		}
		if isEpsilonMark(e) {
			return nil, cykerrors.New("ε must be the only symbol in its production")
		}
		if e[0] == '\'' || e[0] == '"' {
			text, err := unquote(e)
			if err != nil {
				return nil, err
			}
			body = append(body, Term(text))
			continue
		}
		body = append(body, NT(e))
	}
	return body, nil
}

func isEpsilonMark(s string) bool {
	return s == "ε" || s == "ϵ"
}

// unquote takes a quoted terminal and gives its text. The closing quote is
// optional so that a body element starting with a quote is always a terminal.
// Inside the quotes, a backslash escapes the next character.
func unquote(s string) (string, error) {
	quote := rune(s[0])
	runes := []rune(s[1:])
	if len(runes) > 0 && runes[len(runes)-1] == quote {
		escaped := 0
		for i := len(runes) - 2; i >= 0 && runes[i] == '\\'; i-- {
			escaped++
		}
		if escaped%2 == 0 {
			runes = runes[:len(runes)-1]
		}
	}

	var sb strings.Builder
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			i++
		}
		sb.WriteRune(runes[i])
	}

	if sb.Len() == 0 {
		return "", cykerrors.New("empty terminal")
	}
	return sb.String(), nil
}

// ParseRule parses a single line of the form "S -> A 'b' | C | ε" into one
// RawRule per alternative. Quoted terminals may contain spaces and the |
// character.
func ParseRule(line string) ([]RawRule, error) {
	toks, err := splitRuleLine(line)
	if err != nil {
		return nil, err
	}

	if len(toks) < 2 || toks[1] != "->" {
		return nil, cykerrors.Grammarf("not a rule of form 'HEAD -> SYMBOL SYMBOL | SYMBOL ...': %q", line)
	}
	head := toks[0]
	if head == "->" || head == "|" || head[0] == '\'' || head[0] == '"' {
		return nil, cykerrors.Grammarf("invalid head %q", head)
	}

	var rules []RawRule
	cur := RawRule{Head: head}
	for _, tok := range toks[2:] {
		switch tok {
		case "|":
			rules = append(rules, cur)
			cur = RawRule{Head: head}
		case "->":
			return nil, cykerrors.Grammarf("unexpected '->' in body of %q", head)
		default:
			cur.Body = append(cur.Body, tok)
		}
	}
	rules = append(rules, cur)

	return rules, nil
}

// splitRuleLine breaks a rule line into "->", "|", quoted terminals (quotes
// included), and bare words.
func splitRuleLine(line string) ([]string, error) {
	var toks []string
	runes := []rune(line)

	for i := 0; i < len(runes); {
		ch := runes[i]
		switch {
		case unicode.IsSpace(ch):
			i++
		case ch == '|':
			toks = append(toks, "|")
			i++
		case ch == '-' && i+1 < len(runes) && runes[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		case ch == '\'' || ch == '"':
			end := i + 1
			for end < len(runes) && runes[end] != ch {
				if runes[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(runes) {
				return nil, cykerrors.Grammarf("unterminated quote starting at column %d", i+1)
			}
			toks = append(toks, string(runes[i:end+1]))
			i = end + 1
		default:
			end := i
			for end < len(runes) && !unicode.IsSpace(runes[end]) && runes[end] != '|' {
				if runes[end] == '-' && end+1 < len(runes) && runes[end+1] == '>' {
					break
				}
				end++
			}
			toks = append(toks, string(runes[i:end]))
			i = end
		}
	}

	return toks, nil
}

// ParseLines parses every rule line in order. Blank lines and lines starting
// with '#' are skipped.
func ParseLines(lines []string) ([]RawRule, error) {
	var rules []RawRule
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		parsed, err := ParseRule(trimmed)
		if err != nil {
			return nil, cykerrors.New(fmt.Sprintf("line %d", i+1), err)
		}
		rules = append(rules, parsed...)
	}
	return rules, nil
}

// ParseText parses a grammar with one rule per line. The head of the first rule
// is the start symbol.
func ParseText(text string) (Grammar, error) {
	rules, err := ParseLines(strings.Split(text, "\n"))
	if err != nil {
		return Grammar{}, err
	}
	return FromRaw("", rules)
}

// MustParse is like ParseText but panics on error.
func MustParse(text string) Grammar {
	g, err := ParseText(text)
	if err != nil {
		panic(err.Error())
	}
	return g
}

// Lines gives the rules of g as text lines that ParseLines accepts, one line
// per rule.
func (g Grammar) Lines() []string {
	lines := make([]string, len(g.rules))
	for i, r := range g.rules {
		lines[i] = lineFor(r)
	}
	return lines
}

func lineFor(r Rule) string {
	var sb strings.Builder
	sb.WriteString(r.NonTerminal)
	sb.WriteString(" ->")
	for i, p := range r.Productions {
		if i > 0 {
			sb.WriteString(" |")
		}
		if len(p) == 0 {
			sb.WriteString(" ε")
			continue
		}
		for _, sym := range p {
			sb.WriteRune(' ')
			if sym.IsTerminal() {
				sb.WriteString(quote(sym.Value))
			} else {
				sb.WriteString(sym.Value)
			}
		}
	}
	return sb.String()
}

func quote(text string) string {
	var sb strings.Builder
	sb.WriteRune('\'')
	for _, ch := range text {
		if ch == '\'' || ch == '\\' {
			sb.WriteRune('\\')
		}
		sb.WriteRune(ch)
	}
	sb.WriteRune('\'')
	return sb.String()
}
