// Package result contains results that are used to write out API responses.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// internalFormat splits optional internal message args into a format string
// and its arguments, using def as the format when none is given.
func internalFormat(def string, internalMsg []interface{}) (string, []interface{}) {
	if len(internalMsg) < 1 {
		return def, nil
	}
	return internalMsg[0].(string), internalMsg[1:]
}

// OK returns a Result containing an HTTP-200 along with a more detailed
// message (if desired; if none is provided it defaults to a generic one) that
// is not displayed to the user.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("OK", internalMsg)
	return Response(http.StatusOK, respObj, msgFmt, args...)
}

// NoContent returns a Result containing an HTTP-204 along with a more detailed
// message that is not displayed to the user.
func NoContent(internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("no content", internalMsg)
	return Response(http.StatusNoContent, nil, msgFmt, args...)
}

// Created returns a Result containing an HTTP-201 along with a more detailed
// message that is not displayed to the user.
func Created(respObj interface{}, internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("created", internalMsg)
	return Response(http.StatusCreated, respObj, msgFmt, args...)
}

// Conflict returns a Result containing an HTTP-409.
func Conflict(userMsg string, internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("conflict", internalMsg)
	return Err(http.StatusConflict, userMsg, msgFmt, args...)
}

// BadRequest returns a Result containing an HTTP-400.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("bad request", internalMsg)
	return Err(http.StatusBadRequest, userMsg, msgFmt, args...)
}

// MethodNotAllowed returns a Result containing an HTTP-405.
func MethodNotAllowed(req *http.Request, internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("method not allowed", internalMsg)
	userMsg := fmt.Sprintf("Method %s is not allowed for %s", req.Method, req.URL.Path)
	return Err(http.StatusMethodNotAllowed, userMsg, msgFmt, args...)
}

// NotFound returns a Result containing an HTTP-404.
func NotFound(internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("not found", internalMsg)
	return Err(http.StatusNotFound, "The requested resource was not found", msgFmt, args...)
}

// Forbidden returns a Result containing an HTTP-403.
func Forbidden(internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("forbidden", internalMsg)
	return Err(http.StatusForbidden, "You don't have permission to do that", msgFmt, args...)
}

// Unauthorized returns a Result containing an HTTP-401 along with the proper
// WWW-Authenticate header. If userMsg is empty, a generic one is used.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("unauthorized", internalMsg)
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}

	return Err(http.StatusUnauthorized, userMsg, msgFmt, args...).
		WithHeader("WWW-Authenticate", `Bearer realm="CYK parse server", charset="utf-8"`)
}

// InternalServerError returns a Result containing an HTTP-500 along with a
// more detailed message that is not displayed to the user. If internalMsg is
// provided the first argument must be a format string for the rest.
func InternalServerError(internalMsg ...interface{}) Result {
	msgFmt, args := internalFormat("internal server error", internalMsg)
	return Err(http.StatusInternalServerError, "An internal server error occurred", msgFmt, args...)
}

// Response returns a successful JSON Result. If status is
// http.StatusNoContent, respObj will not be read and may be nil. Otherwise,
// respObj MUST NOT be nil.
func Response(status int, respObj interface{}, internalMsg string, v ...interface{}) Result {
	return Result{
		IsJSON:      true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        respObj,
	}
}

// Err returns an error JSON Result that shows userMsg to the client.
func Err(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		IsJSON:      true,
		IsErr:       true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp: ErrorResponse{
			Error:  userMsg,
			Status: status,
		},
	}
}

// Redirection returns a Result that permanently redirects to uri.
func Redirection(uri string) Result {
	return Result{
		Status:      http.StatusPermanentRedirect,
		InternalMsg: fmt.Sprintf("redirect -> %s", uri),
		redir:       uri,
	}
}

// TextErr is like Err but it avoids JSON encoding of any kind and writes the
// output as plain text.
func TextErr(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		IsErr:       true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        userMsg,
	}
}

// Result is the outcome of an endpoint, ready to be written to a client.
type Result struct {
	Status      int
	IsErr       bool
	IsJSON      bool
	InternalMsg string

	resp  interface{}
	redir string
	hdrs  [][2]string

	// set by calling PrepareMarshaledResponse.
	respJSONBytes []byte
}

// WithHeader returns a copy of r that also sets the given header.
func (r Result) WithHeader(name, val string) Result {
	erCopy := r
	erCopy.hdrs = make([][2]string, len(r.hdrs), len(r.hdrs)+1)
	copy(erCopy.hdrs, r.hdrs)
	erCopy.hdrs = append(erCopy.hdrs, [2]string{name, val})
	return erCopy
}

// PrepareMarshaledResponse sets the respJSONBytes to the marshaled version of
// the response if required. If required, and there is a problem marshaling, an
// error is returned. If not required, nil error is always returned.
func (r *Result) PrepareMarshaledResponse() error {
	if r.respJSONBytes != nil {
		return nil
	}

	if r.IsJSON && r.Status != http.StatusNoContent && r.redir == "" {
		var err error
		r.respJSONBytes, err = json.Marshal(r.resp)
		if err != nil {
			return err
		}
	}

	return nil
}

// WriteResponse writes r to w. It panics if r was never populated or cannot
// be marshaled.
func (r Result) WriteResponse(w http.ResponseWriter, req *http.Request) {
	if r.Status == 0 {
		panic("result not populated")
	}

	err := r.PrepareMarshaledResponse()
	if err != nil {
		panic(fmt.Sprintf("could not marshal response: %s", err.Error()))
	}

	var respBytes []byte

	if r.IsJSON {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if r.redir == "" {
			respBytes = r.respJSONBytes
		}
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if r.Status != http.StatusNoContent && r.redir == "" {
			respBytes = []byte(fmt.Sprintf("%v", r.resp))
		}
	}

	if r.redir != "" {
		http.Redirect(w, req, r.redir, r.Status)
		return
	}

	for i := range r.hdrs {
		w.Header().Set(r.hdrs[i][0], r.hdrs[i][1])
	}

	w.WriteHeader(r.Status)

	if r.Status != http.StatusNoContent {
		w.Write(respBytes)
	}
}
