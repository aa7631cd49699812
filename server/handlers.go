package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/cykparse/server/api"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/middle"
	"github.com/dekarrin/cykparse/server/result"
	"github.com/go-chi/chi/v5"
)

var paramTypePats = map[string]string{
	"uuid": "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}",
}

// p is a quick parameter in a URI, made very small to ease readability in route
// listings. nameType is "name" or "name:type", where type is a key of
// paramTypePats or else a regex.
func p(nameType string) string {
	name, typ, typed := strings.Cut(nameType, ":")
	if !typed {
		return "{" + name + "}"
	}
	if pat, ok := paramTypePats[typ]; ok {
		typ = pat
	}
	return "{" + name + ":" + typ + "}"
}

// guest is the user of clients that are not logged in on routes where login is
// optional. It owns nothing and sees only public grammars.
var guest = dao.User{Username: "guest", Role: dao.Guest}

func newRouter(a api.API) chi.Router {
	r := chi.NewRouter()
	r.Mount(api.PathPrefix, newAPIRouter(a))
	return r
}

func newAPIRouter(a api.API) chi.Router {
	users := a.Backend.DB.Users()
	reqAuth := middle.RequireAuth(users, a.Secret, a.UnauthDelay, dao.User{})
	optAuth := middle.OptionalAuth(users, a.Secret, a.UnauthDelay, guest)
	id := "/" + p("id:uuid")

	r := chi.NewRouter()

	r.Route("/login", func(r chi.Router) {
		r.Post("/", a.HTTPCreateLogin())
		r.With(reqAuth).Delete(id, a.HTTPDeleteLogin())
	})

	r.With(reqAuth).Post("/tokens", a.HTTPCreateToken())

	r.Route("/users", func(r chi.Router) {
		r.With(reqAuth).Post("/", a.HTTPCreateAccount())
		r.With(reqAuth).Delete(id, a.HTTPDeleteAccount())
		r.With(optAuth).Get(id+"/grammars", a.HTTPGetAccountGrammars())
	})

	r.Route("/grammars", func(r chi.Router) {
		r.With(optAuth).Get("/", a.HTTPGetAllGrammars())
		r.With(reqAuth).Post("/", a.HTTPCreateGrammar())

		r.Route(id, func(r chi.Router) {
			r.With(optAuth).Get("/", a.HTTPGetGrammar())
			r.With(reqAuth).Delete("/", a.HTTPDeleteGrammar())
			r.With(optAuth).Post("/parses", a.HTTPCreateParse())
		})
	})

	r.With(optAuth).Get("/info", a.HTTPGetInfo())
	r.HandleFunc("/info/", RedirectNoTrailingSlash)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		result.NotFound().WriteResponse(w, req)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(a.UnauthDelay)
		result.MethodNotAllowed(req).WriteResponse(w, req)
	})

	return r
}

// RedirectNoTrailingSlash is an http.HandlerFunc that redirects to the same URL as the
// request but with no trailing slash.
func RedirectNoTrailingSlash(w http.ResponseWriter, req *http.Request) {
	redirPath := strings.TrimRight(req.URL.Path, "/")
	result.Redirection(redirPath).WriteResponse(w, req)
}
