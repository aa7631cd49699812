package api

import (
	"net/http"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/result"
)

// HTTPCreateAccount returns a HandlerFunc that makes a new account. Only
// admins may make accounts; a new account is a member unless the request
// gives another role.
//
// The request context must hold the logged-in user.
func (api API) HTTPCreateAccount() http.HandlerFunc {
	return api.handler(api.epCreateAccount)
}

func (api API) epCreateAccount(req *http.Request, who dao.User) result.Result {
	var acct AccountModel
	if err := readJSON(req, &acct); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	role := dao.Member
	if acct.Role != "" {
		var err error
		if role, err = dao.ParseRole(acct.Role); err != nil {
			return result.BadRequest("role: "+err.Error(), "role %q: %s", acct.Role, err.Error())
		}
	}

	user, err := api.Backend.CreateAccount(req.Context(), who, acct.Username, acct.Password, role)
	if err != nil {
		return failure(who, "create account '"+acct.Username+"'", err)
	}

	return result.Created(accountModel(user), "user %s created account %s (%s)", describe(who), describe(user), user.ID)
}

// HTTPDeleteAccount returns a HandlerFunc that deletes the account in the URI
// and every grammar it owns. Admins may delete anyone; everyone else only
// themselves.
//
// The request context must hold the logged-in user.
func (api API) HTTPDeleteAccount() http.HandlerFunc {
	return api.handler(api.epDeleteAccount)
}

func (api API) epDeleteAccount(req *http.Request, who dao.User) result.Result {
	id := pathID(req)

	user, err := api.Backend.DeleteAccount(req.Context(), who, id)
	if err != nil {
		return failure(who, "delete account "+id.String(), err)
	}

	return result.NoContent("user %s deleted account %s and its grammars", describe(who), describe(user))
}

// HTTPGetAccountGrammars returns a HandlerFunc that lists the grammars owned by
// the account in the URI. The owner and admins see all of them; everyone else
// sees the public ones.
//
// The request context must hold the user of the client, which may be the
// guest user.
func (api API) HTTPGetAccountGrammars() http.HandlerFunc {
	return api.handler(api.epGetAccountGrammars)
}

func (api API) epGetAccountGrammars(req *http.Request, who dao.User) result.Result {
	owner := pathID(req)

	gs, err := api.Backend.ListGrammarsOf(req.Context(), who, owner)
	if err != nil {
		return failure(who, "list grammars of "+owner.String(), err)
	}

	return result.OK(grammarModels(gs), "user %s got %d grammars of %s", describe(who), len(gs), owner)
}
