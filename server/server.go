// Package server provides an HTTP REST server that stores grammars and checks
// input against them with a CYK parser.
package server

// Routes, all under api.PathPrefix. "auth" means a valid bearer token is
// needed; elsewhere a client without one acts as a guest.
//
//	POST   /login                 log in and get a token
//	DELETE /login/{id}            log out an account, voiding its tokens (auth)
//	POST   /tokens                get a fresh token (auth)
//	POST   /users                 make an account (auth, admin)
//	DELETE /users/{id}            delete an account and its grammars (auth)
//	GET    /users/{id}/grammars   grammars an account owns
//	POST   /grammars              convert and store a grammar (auth, member)
//	GET    /grammars              grammars visible to the client
//	GET    /grammars/{id}         a grammar and its converted rules
//	DELETE /grammars/{id}         delete a grammar (auth, owner or admin)
//	POST   /grammars/{id}/parses  check input against a grammar
//	GET    /info                  version info on the server and parser

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/dekarrin/cykparse/server/api"
	"github.com/dekarrin/cykparse/server/cyksvc"
	"github.com/dekarrin/cykparse/server/dao"
	"github.com/go-chi/chi/v5"
)

// CYKServer is an HTTP REST server that stores grammars and parses input
// against them. The zero-value of a CYKServer should not be used directly;
// call New() to get one ready for use.
type CYKServer struct {
	router chi.Router
	api    api.API
	db     dao.Store
}

// New creates a new CYKServer from the given config. Unset values in cfg are
// given their defaults.
func New(cfg Config) (CYKServer, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return CYKServer{}, fmt.Errorf("config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return CYKServer{}, err
	}

	maxToks := cfg.MaxTokens
	if maxToks < 0 {
		maxToks = 0
	}

	cs := CYKServer{
		db: db,
		api: api.API{
			Backend: cyksvc.Service{
				DB:        db,
				MaxTokens: maxToks,
				HashCost:  cfg.PasswordCost,
			},
			UnauthDelay: cfg.UnauthDelay(),
			Secret:      cfg.TokenSecret,
		},
	}
	cs.router = newRouter(cs.api)

	return cs, nil
}

// Handler returns the handler that serves all requests to the server.
func (cs CYKServer) Handler() http.Handler {
	return cs.router
}

// Service returns the service that backs the server's API.
func (cs CYKServer) Service() cyksvc.Service {
	return cs.api.Backend
}

// EnsureAdmin creates an admin account with the given credentials if there is
// not already one with that username. It returns whether one was created.
func (cs CYKServer) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	return cs.api.Backend.EnsureAdmin(ctx, username, password)
}

// Close releases the persistence layer of the server.
func (cs CYKServer) Close() error {
	return cs.db.Close()
}

// ServeForever begins listening on the given address and port for HTTP REST
// client requests. If address is kept as "", it will default to "localhost". If
// port is less than 1, it will default to 8080.
func (cs CYKServer) ServeForever(address string, port int) {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Printf("INFO  Listening on %s", listenAddress)
	log.Fatalf("FATAL %v", http.ListenAndServe(listenAddress, cs.router))
}
