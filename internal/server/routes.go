package server

import (
	"encoding/json"
	"net/http"
	"time"

	"agro_go/internal/api"
	"agro_go/internal/stream"
	"agro_go/internal/websocket"
	"agro_go/pkg/logger"
)

// setupRoutes configura todas as rotas do servidor
func (s *Server) setupRoutes() {
	// Criar handlers
	wsHandler := websocket.NewHandler(s.wsHub)

	apiRouter := api.NewRouter(s.liveState, s.sink, s.orchestrator, s.assistant, "/api")
	apiRouter.Setup()

	// Endpoint de saúde
	s.router.HandleFunc("/api/health", s.healthHandler)
	s.router.HandleFunc("/health", s.healthHandler)

	// Endpoint de informações do servidor
	s.router.HandleFunc("/info", s.infoHandler)

	// Endpoints de descoberta
	s.router.HandleFunc("/api/discover", s.discoverHandler)
	s.router.HandleFunc("/api/server-info", s.serverInfoHandler)

	// WebSocket
	s.router.Handle("/ws", wsHandler)
	s.router.HandleFunc("/ws/health", wsHandler.GetHealthHandler())

	// API REST
	s.router.Handle("/api/state", apiRouter)
	s.router.Handle("/api/pipeline/stats", apiRouter)
	s.router.Handle("/api/chat", apiRouter)

	// Static assets (opcional)
	fs := http.FileServer(http.Dir(s.config.Server.StaticDir))
	s.router.Handle("/", fs)

	// Middleware para logging e CORS
	s.wrapWithMiddleware()
}

// healthHandler responde com o status de saúde do servidor
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Verificar status dos serviços
	pipelineStatus := "ok"
	if s.orchestrator == nil || s.orchestrator.State() != stream.StateRunning {
		pipelineStatus = "offline"
	}

	storageStatus := "ok"
	if s.config.Storage.Backend == "none" || s.config.Storage.Backend == "" {
		storageStatus = "disabled"
	}

	discoveryStatus := "ok"
	if s.discoveryService != nil && !s.discoveryService.IsRunning() {
		discoveryStatus = "offline"
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"services": map[string]string{
			"pipeline":  pipelineStatus,
			"storage":   storageStatus,
			"websocket": "ok",
			"discovery": discoveryStatus,
		},
	}

	// Se o pipeline estiver offline, alterar status geral
	if pipelineStatus == "offline" {
		response["status"] = "degraded"
	}

	json.NewEncoder(w).Encode(response)
}

// infoHandler retorna informações básicas sobre o servidor
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	uptime := time.Since(info.StartTime).Round(time.Second)

	response := map[string]interface{}{
		"name":        "AgroGuardian Monitor",
		"version":     info.Version,
		"ip":          info.IP,
		"port":        info.Port,
		"websocket":   info.WebSocketURL,
		"api":         info.APIURL,
		"startTime":   info.StartTime,
		"uptime":      uptime.String(),
		"connections": info.Connections,
	}

	json.NewEncoder(w).Encode(response)
}

// serverInfoHandler retorna informações completas sobre o servidor
func (s *Server) serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	discoveryInfo := map[string]interface{}{
		"enabled":      s.discoveryService != nil,
		"running":      s.discoveryService != nil && s.discoveryService.IsRunning(),
		"instanceName": s.discoveryService.GetInstanceName(),
		"serviceType":  "agroguardian-monitor",
	}

	uptime := time.Since(info.StartTime).Round(time.Second)

	response := map[string]interface{}{
		"server": map[string]interface{}{
			"name":        "AgroGuardian Monitor",
			"version":     info.Version,
			"ip":          info.IP,
			"port":        info.Port,
			"websocket":   info.WebSocketURL,
			"api":         info.APIURL,
			"startTime":   info.StartTime,
			"uptime":      uptime.String(),
			"connections": info.Connections,
		},
		"discovery": discoveryInfo,
		"services": map[string]interface{}{
			"pipeline": map[string]interface{}{
				"state":  string(s.orchestrator.State()),
				"source": s.config.Stream.Source,
			},
			"storage": map[string]interface{}{
				"backend": s.config.Storage.Backend,
			},
		},
	}

	json.NewEncoder(w).Encode(response)
}

// discoverHandler fornece informações para descoberta manual
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	response := map[string]interface{}{
		"name":        "AgroGuardian Monitor",
		"ip":          info.IP,
		"port":        info.Port,
		"wsUrl":       info.WebSocketURL,
		"apiUrl":      info.APIURL,
		"version":     info.Version,
		"wsEndpoint":  "/ws",
		"apiEndpoint": "/api",
	}

	json.NewEncoder(w).Encode(response)
}

// wrapWithMiddleware adiciona middleware às rotas
func (s *Server) wrapWithMiddleware() {
	originalHandler := s.router

	s.router = http.NewServeMux()

	s.router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Adicionar cabeçalhos CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Logging da requisição
		logger.Infof("%s %s %s", r.Method, r.URL.Path, r.RemoteAddr)

		originalHandler.ServeHTTP(w, r)

		duration := time.Since(start)
		logger.Debugf("Requisição %s %s completada em %v", r.Method, r.URL.Path, duration)
	})
}
