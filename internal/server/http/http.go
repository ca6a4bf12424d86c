package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	public       *http.Server
	publicRouter *chi.Mux

	handler *Handler
}

func New(handler *Handler, addr string) *Server {
	s := &Server{
		publicRouter: chi.NewRouter(),

		handler: handler,
	}
	s.registerPublicRoutes(withRequestID)

	s.public = &http.Server{
		Addr:    addr,
		Handler: s.publicRouter,
		// the sync endpoint waits for the conversions API, which has no client side timeout
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) ServePublic() error {
	return s.public.ListenAndServe()
}

func (s *Server) ShutdownPublic(ctx context.Context) error {
	if err := s.public.Shutdown(ctx); err != nil {
		return s.public.Close()
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.publicRouter
}

func (s *Server) registerPublicRoutes(middlewares ...func(http.Handler) http.Handler) {
	s.publicRouter.Use(middlewares...)
	s.publicRouter.Get("/_/ready", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	s.publicRouter.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.publicRouter.Route("/v1", func(r chi.Router) {
		r.Post("/conversions", s.handler.Track)
		r.Post("/conversions/send", s.handler.Send)
	})
}
