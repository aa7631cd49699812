package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/result"
	"github.com/dekarrin/cykparse/server/serr"
	"github.com/dekarrin/cykparse/server/token"
)

// HTTPCreateLogin returns a HandlerFunc that checks a username and password
// and responds with a new token for that account.
func (api API) HTTPCreateLogin() http.HandlerFunc {
	return api.handler(api.epCreateLogin)
}

func (api API) epCreateLogin(req *http.Request, _ dao.User) result.Result {
	var creds LoginRequest
	if err := readJSON(req, &creds); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if creds.Username == "" || creds.Password == "" {
		return result.BadRequest("username and password are both required", "login without username or password")
	}

	user, err := api.Backend.Login(req.Context(), creds.Username, creds.Password)
	if err != nil {
		return loginFailure(creds.Username, err)
	}

	return api.issueToken(user, "logged in")
}

// HTTPCreateToken returns a HandlerFunc that gives a fresh token to a client
// that already holds a valid one.
//
// The request context must hold the logged-in user.
func (api API) HTTPCreateToken() http.HandlerFunc {
	return api.handler(api.epCreateToken)
}

func (api API) epCreateToken(_ *http.Request, who dao.User) result.Result {
	return api.issueToken(who, "refreshed token")
}

// HTTPDeleteLogin returns a HandlerFunc that logs out the account in the URI,
// which voids every token issued to it so far. Admins may log out anyone;
// everyone else only themselves.
//
// The request context must hold the logged-in user.
func (api API) HTTPDeleteLogin() http.HandlerFunc {
	return api.handler(api.epDeleteLogin)
}

func (api API) epDeleteLogin(req *http.Request, who dao.User) result.Result {
	id := pathID(req)

	user, err := api.Backend.Logout(req.Context(), who, id)
	if err != nil {
		return failure(who, "logout of "+id.String(), err)
	}

	return result.NoContent("user %s logged out %s", describe(who), describe(user))
}

func (api API) issueToken(user dao.User, what string) result.Result {
	tok, err := token.Generate(api.Secret, user)
	if err != nil {
		return result.InternalServerError("could not generate JWT for %s: %s", describe(user), err.Error())
	}

	return result.Created(LoginResponse{Token: tok, UserID: user.ID.String()}, "user %s %s", describe(user), what)
}

func loginFailure(username string, err error) result.Result {
	if errors.Is(err, serr.ErrBadCredentials) {
		return result.Unauthorized(serr.ErrBadCredentials.Error(), "login as '%s': %s", username, err.Error())
	}
	return result.InternalServerError("login as '%s': %s", username, err.Error())
}
