package cyksvc

import (
	"context"
	"errors"
	"strings"

	"github.com/dekarrin/cykparse/internal/cyk"
	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/dekarrin/cykparse/internal/gfile"
	"github.com/dekarrin/cykparse/internal/grammar"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/serr"
	"github.com/google/uuid"
)

// GrammarSource is what a client gives to store a new grammar. If Start is
// empty, the head of the first rule is the start symbol.
type GrammarSource struct {
	Name   string
	Start  string
	Rules  []string
	Lexer  gfile.LexerDef
	Public bool
}

// Parse is the outcome of checking input against a stored grammar.
type Parse struct {
	cyk.Result

	// Grammar is the grammar the input was checked against.
	Grammar dao.Grammar
}

// canSee returns whether who may read and parse against g. Private grammars
// are visible only to their owner and admins.
func canSee(who dao.User, g dao.Grammar) bool {
	return g.Public || ownsOrAdmin(who, g.OwnerID)
}

// ListGrammars returns every grammar who can see: all of them for an admin,
// and the public ones plus its own for everyone else.
func (svc Service) ListGrammars(ctx context.Context, who dao.User) ([]dao.Grammar, error) {
	f := dao.GrammarFilter{Shared: true, Viewer: who.ID}
	if who.Role >= dao.Admin {
		f = dao.GrammarFilter{}
	}

	gs, err := svc.DB.Grammars().List(ctx, f)
	if err != nil {
		return nil, serr.WrapDB("could not list grammars", err)
	}
	return gs, nil
}

// ListGrammarsOf returns the grammars owned by the account with the given ID
// that who can see. The owner and admins get all of them; everyone else gets
// the public ones.
//
// The returned error, if non-nil, will match serr.ErrNotFound if there is no
// such account, or serr.ErrDB if there was an unexpected problem with the DB.
func (svc Service) ListGrammarsOf(ctx context.Context, who dao.User, owner uuid.UUID) ([]dao.Grammar, error) {
	if _, err := svc.DB.Users().GetByID(ctx, owner); err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, serr.ErrNotFound
		}
		return nil, serr.WrapDB("could not get user", err)
	}

	f := dao.GrammarFilter{Owner: owner}
	if !ownsOrAdmin(who, owner) {
		f.Shared = true
	}

	gs, err := svc.DB.Grammars().List(ctx, f)
	if err != nil {
		return nil, serr.WrapDB("could not list grammars", err)
	}
	return gs, nil
}

// GetGrammar returns the grammar with the given ID. A grammar who cannot see
// is reported the same as one that does not exist.
//
// The returned error, if non-nil, will match serr.ErrNotFound if no grammar
// with that ID is visible to who, serr.ErrBadArgument if the ID is not valid,
// or serr.ErrDB if there was an unexpected problem with the DB.
func (svc Service) GetGrammar(ctx context.Context, who dao.User, id string) (dao.Grammar, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Grammar{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	g, err := svc.DB.Grammars().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not get grammar", err)
	}
	if !canSee(who, g) {
		return dao.Grammar{}, serr.ErrNotFound
	}

	return g, nil
}

// CreateGrammar checks src, converts the grammar it describes to Chomsky
// normal form, and stores both forms owned by who. Guests may not create
// grammars. A grammar whose language is empty is stored; every parse against
// it is rejected.
//
// The returned error, if non-nil, will match serr.ErrPermissions if who may not
// create grammars, serr.ErrBadArgument if the rules or lexer are invalid, or
// serr.ErrDB if there was an unexpected problem with the DB. When the rules are
// invalid it also matches the cykerrors value describing the problem.
func (svc Service) CreateGrammar(ctx context.Context, who dao.User, src GrammarSource) (dao.Grammar, error) {
	if who.Role < dao.Member {
		return dao.Grammar{}, serr.New("guests may not create grammars", serr.ErrPermissions)
	}

	name := strings.TrimSpace(src.Name)
	if name == "" {
		return dao.Grammar{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}
	if len(src.Rules) < 1 {
		return dao.Grammar{}, serr.New("at least one rule must be given", serr.ErrBadArgument)
	}

	bundle := gfile.Bundle{Start: src.Start, Rules: src.Rules, LexerDef: src.Lexer}
	source, err := bundle.Grammar()
	if err != nil {
		return dao.Grammar{}, serr.New("rules are not valid", err, serr.ErrBadArgument)
	}
	if err := src.Lexer.Validate(); err != nil {
		return dao.Grammar{}, serr.New("lexer is not valid", err, serr.ErrBadArgument)
	}

	cnf, err := grammar.Convert(source)
	if err != nil {
		return dao.Grammar{}, serr.New("grammar cannot be converted", err, serr.ErrBadArgument)
	}

	created, err := svc.DB.Grammars().Create(ctx, dao.Grammar{
		OwnerID: who.ID,
		Name:    name,
		Public:  src.Public,
		Start:   source.StartSymbol(),
		Rules:   src.Rules,
		Lexer:   src.Lexer,
		CNF:     cnf,
	})
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Grammar{}, serr.ErrAlreadyExists
		}
		return dao.Grammar{}, serr.WrapDB("could not create grammar", err)
	}

	return created, nil
}

// DeleteGrammar deletes the grammar with the given ID. Only its owner or an
// admin may delete it. It returns the deleted grammar.
//
// The returned error, if non-nil, will match serr.ErrNotFound if no grammar
// with that ID is visible to who, serr.ErrPermissions if who can see it but may
// not delete it, serr.ErrBadArgument if the ID is not valid, or serr.ErrDB if
// there was an unexpected problem with the DB.
func (svc Service) DeleteGrammar(ctx context.Context, who dao.User, id string) (dao.Grammar, error) {
	g, err := svc.GetGrammar(ctx, who, id)
	if err != nil {
		return dao.Grammar{}, err
	}
	if !ownsOrAdmin(who, g.OwnerID) {
		return dao.Grammar{}, serr.New("only the owner of a grammar may delete it", serr.ErrPermissions)
	}

	g, err = svc.DB.Grammars().Delete(ctx, g.ID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not delete grammar", err)
	}

	return g, nil
}

// ParseText tokenizes text with the lexer of the grammar with the given ID and
// recognizes it against the converted grammar.
//
// Input that is not in the language is not an error. The returned error, if
// non-nil, will match serr.ErrBadArgument if the text cannot be tokenized or
// has more tokens than allowed, along with the matching cykerrors value. It
// will match serr.ErrNotFound if there is no such grammar visible to who.
func (svc Service) ParseText(ctx context.Context, who dao.User, id string, text string) (Parse, error) {
	g, p, err := svc.parserFor(ctx, who, id)
	if err != nil {
		return Parse{}, err
	}

	lx, mode, err := g.Lexer.Build()
	if err != nil {
		return Parse{}, serr.New("stored lexer is not valid", err)
	}

	res, err := p.ParseTokens(lx.Lex(text), mode)
	if err != nil {
		return Parse{}, parseError(err)
	}
	return Parse{Result: res, Grammar: g}, nil
}

// ParseTerminals recognizes an already-tokenized sequence of terminals against
// the converted grammar with the given ID. Errors are as for ParseText.
func (svc Service) ParseTerminals(ctx context.Context, who dao.User, id string, terminals []string) (Parse, error) {
	g, p, err := svc.parserFor(ctx, who, id)
	if err != nil {
		return Parse{}, err
	}

	res, err := p.Parse(terminals)
	if err != nil {
		return Parse{}, parseError(err)
	}
	return Parse{Result: res, Grammar: g}, nil
}

func (svc Service) parserFor(ctx context.Context, who dao.User, id string) (dao.Grammar, *cyk.Parser, error) {
	g, err := svc.GetGrammar(ctx, who, id)
	if err != nil {
		return dao.Grammar{}, nil, err
	}

	maxToks := svc.MaxTokens
	if maxToks < 0 {
		maxToks = 0
	}
	p, err := cyk.NewWithOptions(g.CNF, cyk.Options{MaxTokens: maxToks})
	if err != nil {
		return dao.Grammar{}, nil, serr.New("stored grammar is not in normal form", err)
	}
	return g, p, nil
}

func parseError(err error) error {
	switch {
	case errors.Is(err, cykerrors.ErrInputTooLong):
		return serr.New("input is too long", err, serr.ErrBadArgument)
	case errors.Is(err, cykerrors.ErrMalformedInput):
		return serr.New("input could not be tokenized", err, serr.ErrBadArgument)
	default:
		return serr.New("could not parse input", err)
	}
}
