package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/camden-git/familytree/config"
	"github.com/camden-git/familytree/repository"
	"github.com/camden-git/familytree/services"
)

// Dependencies are the collaborators the HTTP layer is built from. Portraits and
// WebSocket may be nil, which leaves their routes out.
type Dependencies struct {
	Cfg       config.Config
	Tree      *services.FamilyTree
	Repo      repository.FamilyRepositoryInterface
	Portraits PortraitQueue
	WebSocket http.HandlerFunc
	Logger    *zap.Logger
}

// NewRouter wires middleware and every /api route
func NewRouter(deps Dependencies) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	familyHandler := &FamilyHandler{Tree: deps.Tree, Repo: deps.Repo, Logger: logger}

	var portraitAssets http.HandlerFunc
	if deps.Cfg.MediaStoragePath != "" && deps.Cfg.PortraitsSubDir != "" {
		var err error
		portraitAssets, err = AssetServer(deps.Cfg.MediaStoragePath, deps.Cfg.PortraitsSubDir, logger)
		if err != nil {
			return nil, err
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/people", func(r chi.Router) {
				r.Get("/", familyHandler.ListPeople)
				r.With(familyHandler.SerializeWrites).Post("/", familyHandler.CreatePerson)
				r.Route("/{person_id}", func(r chi.Router) {
					r.Get("/", familyHandler.GetPerson)
					r.With(familyHandler.SerializeWrites).Post("/children", familyHandler.AddChild)
					r.Get("/ancestors", familyHandler.Ancestors)
					r.Get("/descendants", familyHandler.Descendants)
					r.Get("/siblings", familyHandler.Siblings)
					r.Get("/generation", familyHandler.Generation)
					if deps.Portraits != nil {
						portraitHandler := &PortraitHandler{
							Tree:      deps.Tree,
							Queue:     deps.Portraits,
							UploadDir: filepath.Join(deps.Cfg.MediaStoragePath, "uploads"),
							Logger:    logger,
						}
						r.Put("/portrait", portraitHandler.UploadPortrait)
					}
				})
			})

			r.Route("/marriages", func(r chi.Router) {
				r.Get("/", familyHandler.ListMarriages)
				r.With(familyHandler.SerializeWrites).Post("/", familyHandler.CreateMarriage)
			})

			r.Get("/relations", familyHandler.ClassifyRelation)
			r.Get("/generations", familyHandler.Generations)
			r.Get("/statistics", familyHandler.Statistics)
			r.Get("/validation", familyHandler.Validation)
			r.Get("/export", familyHandler.Export)

			if portraitAssets != nil {
				r.Get(fmt.Sprintf("/%s/*", deps.Cfg.PortraitsSubDir), portraitAssets)
			}
		})

		// long-lived, so outside the request timeout
		if deps.WebSocket != nil {
			r.Get("/ws", deps.WebSocket)
		}
	})

	return r, nil
}
