package spanhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/introspect"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
)

// DefaultPageLimit is the page size of listings when the request sets none.
const DefaultPageLimit = 50

// Server routes requests through negotiation to the handlers of the conversion
// service.
type Server struct {
	engine    *encoding.SpanEngine
	registry  *introspect.Registry
	logger    *zap.Logger
	pageLimit int
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *zap.Logger) Option {
	return func(server *Server) {
		if logger != nil {
			server.logger = logger
		}
	}
}

// WithDefaultPageLimit sets the page size of listings. 0 disables paging by default.
func WithDefaultPageLimit(limit int) Option {
	return func(server *Server) {
		if limit >= 0 {
			server.pageLimit = limit
		}
	}
}

// NewServer creates a server encoding with engine and describing the types of
// registry. A nil registry uses introspect.Default().
func NewServer(
	engine *encoding.SpanEngine, registry *introspect.Registry, opts ...Option,
) *Server {
	if registry == nil {
		registry = introspect.Default()
	}

	server := &Server{
		engine:    engine,
		registry:  registry,
		logger:    zap.NewNop(),
		pageLimit: DefaultPageLimit,
	}
	for _, opt := range opts {
		opt(server)
	}
	server.logger = server.logger.Named("spanhttp")
	server.router = server.routes()
	return server
}

func (server *Server) routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(server.accessLog)
	router.Use(server.recoverer)
	router.Use(server.negotiate)

	router.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		server.WriteError(writer, request, spanerrors.NotFoundError.New(
			"no route for "+request.URL.Path, nil, nil,
		))
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
		server.WriteError(writer, request, spanerrors.InvalidMethodError.New(
			request.Method+" not allowed on "+request.URL.Path, nil, nil,
		))
	})

	router.Post("/convert", server.handleConvert)
	router.Get("/codecs", server.handleCodecs)
	router.Route("/types", func(types chi.Router) {
		types.Get("/", server.handleTypes)
		types.Get("/{name}", server.handleType)
	})

	return router
}

// Router exposes the chi router so callers can mount additional routes.
func (server *Server) Router() chi.Router {
	return server.router
}

// Engine returns the content engine of the server.
func (server *Server) Engine() *encoding.SpanEngine {
	return server.engine
}

func (server *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	server.router.ServeHTTP(writer, request)
}
