package api

import (
	"time"

	"github.com/dekarrin/cykparse/internal/cyk"
	"github.com/dekarrin/cykparse/internal/gfile"
	"github.com/dekarrin/cykparse/server/dao"
)

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are in. Rather these are the models that are received from
// and sent to the client.

type InfoModel struct {
	Version struct {
		Server   string `json:"server"`
		CYKParse string `json:"cykparse"`
	} `json:"version"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountModel is an account as sent by and to the client. Password is only
// read from requests and never sent back.
type AccountModel struct {
	URI      string `json:"uri"`
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
	Created  string `json:"created,omitempty"`
}

// GrammarModel is a grammar as sent by and to the client. CNF is only filled
// in responses and holds the converted rules, one per line. Public grammars can
// be read and parsed against by anyone, including clients that are not logged
// in.
type GrammarModel struct {
	URI      string         `json:"uri"`
	ID       string         `json:"id,omitempty"`
	OwnerID  string         `json:"owner_id,omitempty"`
	Name     string         `json:"name"`
	Public   bool           `json:"public"`
	Start    string         `json:"start,omitempty"`
	Rules    []string       `json:"rules"`
	Lexer    gfile.LexerDef `json:"lexer"`
	CNF      []string       `json:"cnf,omitempty"`
	Created  string         `json:"created,omitempty"`
	Modified string         `json:"modified,omitempty"`
}

// ParseRequest is input to check against a grammar. If Tokens is non-nil it
// is used as the already-split terminals and Input is ignored. Table requests
// that the filled parse table be part of the response. Raw keeps the helper
// nonterminals of the converted grammar in the tree.
type ParseRequest struct {
	Input  string   `json:"input"`
	Tokens []string `json:"tokens,omitempty"`
	Table  bool     `json:"table,omitempty"`
	Raw    bool     `json:"raw,omitempty"`
}

type ParseResponse struct {
	Accepted bool        `json:"accepted"`
	Tree     string      `json:"tree,omitempty"`
	Nodes    *TreeModel  `json:"nodes,omitempty"`
	Table    *TableModel `json:"table,omitempty"`
}

type TreeModel struct {
	Value    string       `json:"value"`
	Terminal bool         `json:"terminal,omitempty"`
	Children []*TreeModel `json:"children,omitempty"`
}

type TableModel struct {
	Tokens []string    `json:"tokens"`
	Cells  []CellModel `json:"cells"`
}

// CellModel is one non-empty cell of a parse table.
type CellModel struct {
	Start        int      `json:"start"`
	Length       int      `json:"length"`
	NonTerminals []string `json:"nonterminals"`
}

func accountModel(u dao.User) AccountModel {
	return AccountModel{
		URI:      PathPrefix + "/users/" + u.ID.String(),
		ID:       u.ID.String(),
		Username: u.Username,
		Role:     u.Role.String(),
		Created:  u.Created.Format(time.RFC3339),
	}
}

func grammarModels(gs []dao.Grammar) []GrammarModel {
	ms := make([]GrammarModel, len(gs))
	for i := range gs {
		ms[i] = grammarModel(gs[i])
	}
	return ms
}

func grammarModel(g dao.Grammar) GrammarModel {
	rules := make([]string, len(g.Rules))
	copy(rules, g.Rules)

	return GrammarModel{
		URI:      PathPrefix + "/grammars/" + g.ID.String(),
		ID:       g.ID.String(),
		OwnerID:  g.OwnerID.String(),
		Name:     g.Name,
		Public:   g.Public,
		Start:    g.Start,
		Rules:    rules,
		Lexer:    g.Lexer,
		CNF:      g.CNF.Lines(),
		Created:  g.Created.Format(time.RFC3339),
		Modified: g.Modified.Format(time.RFC3339),
	}
}

func treeModel(tr *cyk.Tree) *TreeModel {
	if tr == nil {
		return nil
	}
	m := &TreeModel{
		Value:    tr.Value,
		Terminal: tr.Terminal,
	}
	for _, ch := range tr.Children {
		m.Children = append(m.Children, treeModel(ch))
	}
	return m
}

func tableModel(t *cyk.Table) *TableModel {
	if t == nil {
		return nil
	}
	m := &TableModel{
		Tokens: t.Tokens(),
		Cells:  []CellModel{},
	}
	n := t.Len()
	for length := 1; length <= n; length++ {
		for start := 0; start+length <= n; start++ {
			nts := t.Cell(start, length)
			if len(nts) == 0 {
				continue
			}
			m.Cells = append(m.Cells, CellModel{Start: start, Length: length, NonTerminals: nts})
		}
	}
	return m
}
