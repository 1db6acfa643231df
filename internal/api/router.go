package api

import (
	"net/http"
	"strings"

	"agro_go/internal/assistant"
	"agro_go/internal/live"
	"agro_go/internal/storage"
	"agro_go/internal/stream"
	"agro_go/pkg/logger"
)

// Router gerencia as rotas da API
type Router struct {
	handler     *Handler
	mux         *http.ServeMux
	basePath    string
	middlewares []Middleware
}

// NewRouter cria um novo router para a API
func NewRouter(liveState *live.State, sink storage.Sink, orchestrator *stream.Orchestrator, agent *assistant.Assistant, basePath string) *Router {
	handler := NewHandler(liveState, sink, orchestrator, agent)

	// Normalizar base path
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if basePath != "" && strings.HasSuffix(basePath, "/") {
		basePath = basePath[:len(basePath)-1]
	}

	middlewares := []Middleware{
		LoggingMiddleware,
		RecoveryMiddleware,
		CorsMiddleware,
	}

	return &Router{
		handler:     handler,
		mux:         http.NewServeMux(),
		basePath:    basePath,
		middlewares: middlewares,
	}
}

// Setup configura todas as rotas
func (r *Router) Setup() {
	// Rota para obter o estado ao vivo do pipeline
	r.mux.Handle(r.path("/state"), r.applyMiddleware(http.HandlerFunc(r.handler.GetState)))

	// Rota para obter estatísticas do pipeline
	r.mux.Handle(r.path("/pipeline/stats"), r.applyMiddleware(http.HandlerFunc(r.handler.GetPipelineStats)))

	// Rota do assistente agronômico
	r.mux.Handle(r.path("/chat"), r.applyMiddleware(http.HandlerFunc(r.handler.Chat)))

	logger.Infof("API configurada com base path: %s", r.basePath)
}

// Handler retorna o handler HTTP final com todos os middlewares aplicados
func (r *Router) Handler() http.Handler {
	return r.applyMiddleware(r.mux)
}

// AddMiddleware adiciona um novo middleware
func (r *Router) AddMiddleware(middleware Middleware) {
	r.middlewares = append(r.middlewares, middleware)
}

// path retorna o caminho completo para uma rota
func (r *Router) path(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.basePath + route
}

// applyMiddleware aplica todos os middlewares ao handler
func (r *Router) applyMiddleware(handler http.Handler) http.Handler {
	if len(r.middlewares) == 0 {
		return handler
	}

	return Chain(r.middlewares...)(handler)
}

// ServeHTTP implementa a interface http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := r.Handler()
	handler.ServeHTTP(w, req)
}
