package api

import (
	"net/http"

	"github.com/dekarrin/cykparse/server/cyksvc"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/result"
)

// HTTPCreateParse returns a HandlerFunc that checks input against a stored
// grammar and responds with whether it was accepted and, if so, its parse
// tree. Nothing is stored.
//
// The request context must hold the user of the client, which may be the
// guest user.
func (api API) HTTPCreateParse() http.HandlerFunc {
	return api.handler(api.epCreateParse)
}

func (api API) epCreateParse(req *http.Request, who dao.User) result.Result {
	id := pathID(req).String()

	var pr ParseRequest
	if err := readJSON(req, &pr); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	var res cyksvc.Parse
	var err error
	if pr.Tokens != nil {
		res, err = api.Backend.ParseTerminals(req.Context(), who, id, pr.Tokens)
	} else {
		res, err = api.Backend.ParseText(req.Context(), who, id, pr.Input)
	}
	if err != nil {
		return failure(who, "parse on grammar "+id, err)
	}

	resp := ParseResponse{Accepted: res.Accepted}
	verdict := "rejected"
	if res.Accepted {
		verdict = "accepted"
		tree := *res.Tree
		if !pr.Raw {
			tree = res.Tree.Collapse(res.Grammar.CNF)
		}
		resp.Tree = tree.String()
		resp.Nodes = treeModel(&tree)
	}
	if pr.Table {
		resp.Table = tableModel(res.Table)
	}

	return result.OK(resp, "user %s parse on grammar %s: %s", describe(who), id, verdict)
}
