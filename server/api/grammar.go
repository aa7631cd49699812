package api

import (
	"net/http"

	"github.com/dekarrin/cykparse/server/cyksvc"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/result"
)

// HTTPGetAllGrammars returns a HandlerFunc that lists the grammars the client
// can see: every grammar for an admin, and the public ones plus its own for
// everyone else.
//
// The request context must hold the user of the client, which may be the
// guest user.
func (api API) HTTPGetAllGrammars() http.HandlerFunc {
	return api.handler(api.epGetAllGrammars)
}

func (api API) epGetAllGrammars(req *http.Request, who dao.User) result.Result {
	gs, err := api.Backend.ListGrammars(req.Context(), who)
	if err != nil {
		return failure(who, "list grammars", err)
	}

	return result.OK(grammarModels(gs), "user %s got %d grammars", describe(who), len(gs))
}

// HTTPCreateGrammar returns a HandlerFunc that converts a grammar and stores it
// owned by the client.
//
// The request context must hold the logged-in user.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return api.handler(api.epCreateGrammar)
}

func (api API) epCreateGrammar(req *http.Request, who dao.User) result.Result {
	var m GrammarModel
	if err := readJSON(req, &m); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	g, err := api.Backend.CreateGrammar(req.Context(), who, cyksvc.GrammarSource{
		Name:   m.Name,
		Start:  m.Start,
		Rules:  m.Rules,
		Lexer:  m.Lexer,
		Public: m.Public,
	})
	if err != nil {
		return failure(who, "create grammar "+quote(m.Name), err)
	}

	return result.Created(grammarModel(g), "user %s created grammar %s (%s)", describe(who), quote(g.Name), g.ID)
}

// HTTPGetGrammar returns a HandlerFunc that gets a stored grammar along with
// its converted rules. Private grammars are only found by their owner and
// admins.
//
// The request context must hold the user of the client, which may be the
// guest user.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return api.handler(api.epGetGrammar)
}

func (api API) epGetGrammar(req *http.Request, who dao.User) result.Result {
	id := pathID(req)

	g, err := api.Backend.GetGrammar(req.Context(), who, id.String())
	if err != nil {
		return failure(who, "get grammar "+id.String(), err)
	}

	return result.OK(grammarModel(g), "user %s got grammar %s", describe(who), quote(g.Name))
}

// HTTPDeleteGrammar returns a HandlerFunc that deletes a stored grammar. Only
// its owner or an admin may delete it.
//
// The request context must hold the logged-in user.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return api.handler(api.epDeleteGrammar)
}

func (api API) epDeleteGrammar(req *http.Request, who dao.User) result.Result {
	id := pathID(req)

	g, err := api.Backend.DeleteGrammar(req.Context(), who, id.String())
	if err != nil {
		return failure(who, "delete grammar "+id.String(), err)
	}

	return result.NoContent("user %s deleted grammar %s", describe(who), quote(g.Name))
}

func quote(s string) string {
	return `"` + s + `"`
}
