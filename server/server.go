// Package server provides the embeddable HTTP server that exposes a koto
// script store and execution engine over a REST API, backed by a
// configurable persistence layer (server/dao/inmem or server/dao/sqlite).
package server

import (
	"net/http"

	"github.com/dekarrin/koto/internal/koto/cache"
	"github.com/dekarrin/koto/server/api"
	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/middle"
	"github.com/dekarrin/koto/server/svc"
	"github.com/go-chi/chi/v5"
)

// Server is a ready-to-run koto script server: a chi router wired to an API
// backed by a persistence Store, plus the Store itself so callers can Close
// it on shutdown.
type Server struct {
	Router chi.Router
	DB     dao.Store
}

// New builds a Server from cfg, connecting to its configured DB and mounting
// the API under [api.PathPrefix].
//
// astCacheDir, if non-empty, is the directory backing the server's
// content-addressed AST cache (internal/koto/cache); an empty string leaves
// script parsing uncached.
func New(cfg Config, astCacheDir string) (*Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return nil, err
	}

	var astCache *cache.Store
	if astCacheDir != "" {
		astCache, err = cache.Open(astCacheDir)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	backend := svc.Service{DB: db, ASTCache: astCache}

	a := api.API{
		Backend:     backend,
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      cfg.TokenSecret,
	}

	r := chi.NewRouter()
	r.Use(middle.DontPanic())
	r.Route(api.PathPrefix, func(r chi.Router) {
		r.Post("/login", a.HTTPCreateLogin())
		r.Post("/register", a.HTTPCreateRegistration())

		r.Group(func(r chi.Router) {
			r.Use(middle.OptionalAuth(db.Users(), a.Secret, a.UnauthDelay, dao.User{}))
			r.Get("/info", a.HTTPGetInfo())
		})

		r.Group(func(r chi.Router) {
			r.Use(middle.RequireAuth(db.Users(), a.Secret, a.UnauthDelay, dao.User{}))

			r.Delete("/login", a.HTTPDeleteLogin())

			r.Route("/scripts", func(r chi.Router) {
				r.Post("/", a.HTTPCreateScript())
				r.Get("/", a.HTTPGetAllScripts())
				r.Post("/run", a.HTTPRunAdHoc())

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", a.HTTPGetScript())
					r.Put("/", a.HTTPUpdateScript())
					r.Delete("/", a.HTTPDeleteScript())
					r.Post("/run", a.HTTPRunScript())
				})
			})
		})
	})

	return &Server{Router: r, DB: db}, nil
}

// ListenAndServe starts the server on addr. It blocks until the server
// stops or an error occurs.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Router)
}

// Close releases the Server's persistence layer.
func (s *Server) Close() error {
	return s.DB.Close()
}
