package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/claims-authz-harness/internal/infra"
	"github.com/xela07ax/claims-authz-harness/internal/infra/auth"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    infra.ServerConfig

	schema   *graphql.Schema
	builder  auth.ContextBuilder
	gatherer prometheus.Gatherer
}

// NewServer собирает HTTP слой: GraphQL endpoint, GraphiQL, health и метрики.
func NewServer(
	cfg infra.ServerConfig,
	logger *zap.Logger,
	schema *graphql.Schema,
	builder auth.ContextBuilder,
	gatherer prometheus.Gatherer,
) *Server {
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger.Named("http"),
		cfg:      cfg,
		schema:   schema,
		builder:  builder,
		gatherer: gatherer,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(AccessLog(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	if s.cfg.GraphiQL {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(graphiqlPage)
		})
	}

	// --- 3. GraphQL: UserContext строится до исполнения запроса ---
	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.cfg.RateLimit, s.cfg.RateBurst))
		r.Use(auth.NewMiddleware(s.builder, s.logger))

		r.Handle("/graphql", &relay.Handler{Schema: s.schema})
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
