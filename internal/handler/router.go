package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	mw "tempiaops/internal/middleware"
)

type Dependencies struct {
	Verifier       mw.SessionVerifier
	RateLimiter    *mw.RateLimiter
	AllowedOrigins []string
	RequestTimeout time.Duration

	Health       *HealthHandler
	Auth         *AuthHandler
	Buildings    *BuildingHandler
	Flows        *FlowHandler
	Fdv          *FdvHandler
	Procedures   *DocumentHandler
	Instructions *DocumentHandler
	KPIs         *KPIHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   dep.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if dep.RateLimiter != nil {
		r.Use(dep.RateLimiter.Handler)
	}
	if dep.RequestTimeout > 0 {
		r.Use(chimid.Timeout(dep.RequestTimeout))
	}

	r.Get("/healthz", dep.Health.Liveness)
	r.Get("/readyz", dep.Health.Readiness)

	r.Route("/v1", func(api chi.Router) {
		api.Post("/auth/login", dep.Auth.Login)

		api.Group(func(protected chi.Router) {
			protected.Use(mw.Authenticate(dep.Verifier))

			protected.Post("/auth/logout", dep.Auth.Logout)
			protected.Get("/auth/me", dep.Auth.Me)

			protected.Route("/buildings", func(br chi.Router) {
				br.Get("/", dep.Buildings.List)
				br.Post("/", dep.Buildings.Create)

				br.Route("/{number}", func(nr chi.Router) {
					nr.Get("/", dep.Buildings.Get)
					nr.Get("/flows", dep.Flows.ListByBuilding)
					nr.Post("/flows", dep.Flows.Create)
					nr.Get("/fdv", dep.Fdv.List)
					nr.Post("/fdv", dep.Fdv.Upload)
				})
			})

			protected.Route("/flows/{id}", func(fr chi.Router) {
				fr.Get("/", dep.Flows.Get)
				fr.Delete("/", dep.Flows.Delete)
				fr.Put("/graph", dep.Flows.SaveGraph)
				fr.Patch("/graph", dep.Flows.EditGraph)
				fr.Get("/nodes/{nodeID}/open", dep.Flows.OpenNode)
			})

			protected.Route("/fdv/{id}", func(fr chi.Router) {
				fr.Get("/url", dep.Fdv.SignedURL)
				fr.Get("/preview", dep.Fdv.Preview)
				fr.Delete("/", dep.Fdv.Delete)
			})

			mountDocuments(protected, "/procedures", dep.Procedures)
			mountDocuments(protected, "/instructions", dep.Instructions)

			protected.Route("/kpi/definitions", func(kr chi.Router) {
				kr.Get("/", dep.KPIs.ListDefinitions)
				kr.Post("/", dep.KPIs.CreateDefinition)
				kr.Get("/{id}/entries", dep.KPIs.ListEntries)
				kr.Post("/{id}/entries", dep.KPIs.AddEntry)
				kr.Get("/{id}/export", dep.KPIs.Export)
			})
		})
	})

	return r
}

func mountDocuments(r chi.Router, path string, h *DocumentHandler) {
	r.Route(path, func(dr chi.Router) {
		dr.Get("/", h.List)
		dr.Post("/", h.Create)
		dr.Get("/{id}", h.Get)
		dr.Put("/{id}", h.Update)
		dr.Delete("/{id}", h.Delete)
	})
}
