// Package api provides HTTP API endpoints for the CYK parse server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dekarrin/cykparse/internal/cykerrors"
	"github.com/dekarrin/cykparse/server/cyksvc"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/middle"
	"github.com/dekarrin/cykparse/server/result"
	"github.com/dekarrin/cykparse/server/serr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// PathPrefix is the prefix of all paths in the API. Routers should mount
	// a sub-router that routes all requests to the API at this path.
	PathPrefix = "/api/v1"
)

// API holds parameters for endpoints needed to run and a service layer that
// will perform most of the actual logic. To use API, create one and then
// assign the result of its HTTP* methods as handlers to a router or some other
// kind of server mux.
//
// This is exclusively an API for serving external requests. For direct
// programmatic access into the backend of a CYK parse server via Go code, see
// [cyksvc.Service].
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions. Access rules on grammars and accounts are enforced by it.
	Backend cyksvc.Service

	// UnauthDelay is the amount of time that a request will pause before
	// responding with an HTTP-403, HTTP-401, or HTTP-500 to deprioritize such
	// requests from processing and I/O.
	UnauthDelay time.Duration

	// Secret is the secret used to sign JWT tokens.
	Secret []byte
}

// endpoint handles one request on behalf of who, the user the auth middleware
// put in the request context. Requests on routes without auth middleware get
// the zero User.
type endpoint func(req *http.Request, who dao.User) result.Result

// handler turns ep into an http.HandlerFunc that logs its result, delays
// failed-auth responses, and answers any panic in ep with an HTTP-500.
func (api API) handler(ep endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r := api.run(ep, req)

		if err := r.PrepareMarshaledResponse(); err != nil {
			r = result.Err(http.StatusInternalServerError, "An internal server error occurred", "could not marshal JSON response: %s", err.Error())
		}

		logResult(req, r)

		switch r.Status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError:
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w, req)
	}
}

// run calls ep, giving an HTTP-500 result instead if ep panics or never fills
// in its result.
func (api API) run(ep endpoint, req *http.Request) (r result.Result) {
	defer func() {
		if p := recover(); p != nil {
			r = result.TextErr(http.StatusInternalServerError, "An internal server error occurred", "panic: %v\nSTACK TRACE: %s", p, string(debug.Stack()))
		}
	}()

	who, _ := req.Context().Value(middle.AuthUser).(dao.User)
	r = ep(req, who)
	if r.Status == 0 {
		r = result.TextErr(http.StatusInternalServerError, "An internal server error occurred", "endpoint result was never populated")
	}
	return r
}

func logResult(req *http.Request, r result.Result) {
	level := "INFO"
	if r.IsErr {
		level = "ERROR"
	}

	// the client's ephemeral port is noise
	remote, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		remote = req.RemoteAddr
	}

	log.Printf("%-5.5s %s %s %s: HTTP-%d %s", level, remote, req.Method, req.URL.Path, r.Status, r.InternalMsg)
}

// readJSON decodes the JSON body of req into v, which must be a pointer.
// Unknown fields are an error. A decoding failure matches
// serr.ErrBodyUnmarshal.
func readJSON(req *http.Request, v interface{}) error {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}
	defer req.Body.Close()

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return serr.New("request body is empty", serr.ErrBodyUnmarshal)
		}
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}
	return nil
}

// pathID gets the "id" URI parameter. Routes only match well-formed UUIDs, so
// a bad one here is a routing bug and panics.
func pathID(req *http.Request) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(req, "id"))
	if err != nil {
		panic(fmt.Sprintf("route gave bad id parameter: %v", err))
	}
	return id
}

// failure gives the result for an error from the service layer. what says
// what the request was trying to do, for the log.
func failure(who dao.User, what string, err error) result.Result {
	switch {
	case errors.Is(err, serr.ErrPermissions):
		return result.Forbidden("user %s (role %s) %s: %s", describe(who), who.Role, what, err.Error())
	case errors.Is(err, serr.ErrNotFound):
		return result.NotFound("user %s %s: %s", describe(who), what, err.Error())
	case errors.Is(err, serr.ErrAlreadyExists):
		return result.Conflict(err.Error(), "user %s %s: %s", describe(who), what, err.Error())
	case errors.Is(err, serr.ErrBadArgument):
		return result.BadRequest(cykerrors.Human(err), "user %s %s: %s", describe(who), what, err.Error())
	default:
		return result.InternalServerError("user %s %s: %s", describe(who), what, err.Error())
	}
}

// describe names who in log messages.
func describe(who dao.User) string {
	if who.ID == uuid.Nil {
		return "'guest'"
	}
	return "'" + who.Username + "'"
}
