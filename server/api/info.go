package api

import (
	"net/http"

	"github.com/dekarrin/cykparse/internal/version"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/dekarrin/cykparse/server/result"
)

// HTTPGetInfo returns a HandlerFunc that retrieves version information on the
// API and server.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return api.handler(api.epGetInfo)
}

func (api API) epGetInfo(_ *http.Request, who dao.User) result.Result {
	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.CYKParse = version.Current

	return result.OK(resp, "user %s got API info", describe(who))
}
