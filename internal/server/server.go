// Package server wires the HTTP surface: health, room directory, session
// lookup and the websocket endpoints.
package server

import (
	"net/http"
	"time"

	"github.com/shiblyc-four/party-games/internal/config"
	"github.com/shiblyc-four/party-games/internal/registry"
	"github.com/shiblyc-four/party-games/internal/store"
	"github.com/shiblyc-four/party-games/internal/transport"
)

type Server struct {
	cfg      config.Config
	registry *registry.Registry
	store    store.Store
	ws       *transport.Handler
}

func New(cfg config.Config, reg *registry.Registry, st store.Store) *Server {
	return &Server{
		cfg:      cfg,
		registry: reg,
		store:    st,
		ws:       transport.NewHandler(reg, st, cfg.AllowedOrigins),
	}
}

// HTTPServer builds the http.Server with the full route table attached.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websockets hold the connection open
		IdleTimeout:  60 * time.Second,
	}
}
