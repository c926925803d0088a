package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jmorgal/bankfeed/internal/http/catalogapi"
	"github.com/jmorgal/bankfeed/internal/http/statements"
)

func New(
	catalogV1 *catalogapi.Handler,
	statementsV1 *statements.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/templates", catalogV1.Routes)
		r.Route("/statements", statementsV1.Routes)
	})

	return router
}
