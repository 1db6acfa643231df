package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"agro_go/internal/assistant"
	"agro_go/internal/config"
	"agro_go/internal/discovery"
	"agro_go/internal/features"
	"agro_go/internal/live"
	"agro_go/internal/reports"
	"agro_go/internal/risk"
	"agro_go/internal/storage"
	"agro_go/internal/stream"
	"agro_go/internal/websocket"
	"agro_go/pkg/logger"
)

// Server encapsula o servidor HTTP com todos os componentes do pipeline
type Server struct {
	config           *config.Config
	httpServer       *http.Server
	router           *http.ServeMux
	orchestrator     *stream.Orchestrator
	sink             storage.Sink
	liveState        *live.State
	assistant        *assistant.Assistant
	wsHub            *websocket.Hub
	discoveryService *discovery.DiscoveryService
	serverInfo       ServerInfo
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
}

// NewServer cria uma nova instância do servidor
func NewServer(cfg *config.Config) (*Server, error) {
	server := &Server{
		config: cfg,
		router: http.NewServeMux(),
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   "1.0.0",
			Port:      cfg.Server.Port,
		},
	}

	// Determinar IP do servidor
	ip, err := server.getLocalIP()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter IP local: %w", err)
	}
	server.serverInfo.IP = ip

	// Configurar URLs
	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", ip, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", ip, cfg.Server.Port)

	// Inicializar componentes
	if err := server.initComponents(); err != nil {
		return nil, err
	}

	// Configurar rotas
	server.setupRoutes()

	// Configurar servidor HTTP
	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa todos os componentes do servidor
func (s *Server) initComponents() error {
	// Inicializar hub WebSocket
	s.wsHub = websocket.NewHub()
	go s.wsHub.Run()

	// Inicializar persistência
	sink, err := newSink(s.config.Storage)
	if err != nil {
		return fmt.Errorf("erro ao inicializar persistência: %w", err)
	}
	s.sink = sink

	// Inicializar relatórios de risco alto
	reportWriter, err := reports.NewWriter(s.config.Reports.Dir)
	if err != nil {
		return fmt.Errorf("erro ao inicializar relatórios: %w", err)
	}

	// Inicializar estado ao vivo
	s.liveState = live.NewState(reportWriter)
	s.liveState.SetBroadcaster(s.wsHub)
	s.wsHub.SetStateProvider(s.liveState)

	// Inicializar pipeline
	source, err := newSource(s.config.Stream)
	if err != nil {
		return err
	}

	engine := features.NewEngine(s.config.Engine.WindowSize)
	scorer := risk.NewScorer()

	s.orchestrator = stream.NewOrchestrator(source, engine, scorer, s.sink, s.config.Stream.Source)
	s.orchestrator.AddHandler(s.liveState.Record)

	// Inicializar assistente agronômico
	s.assistant = assistant.New(s.config.Assistant.KnowledgeDir)

	// Inicializar serviço de descoberta
	s.discoveryService = discovery.NewDiscoveryService(s.config.Server.Port)

	return nil
}

// newSink cria o backend de persistência configurado
func newSink(cfg config.StorageConfig) (storage.Sink, error) {
	switch cfg.Backend {
	case "redis":
		return storage.NewRedisSink(cfg.Redis)
	case "sqlite":
		return storage.NewSQLiteSink(cfg.SQLite.Path)
	case "none", "":
		return storage.NewNoopSink(), nil
	default:
		return nil, fmt.Errorf("backend de persistência desconhecido: %s", cfg.Backend)
	}
}

// newSource cria a fonte de eventos configurada
func newSource(cfg config.StreamConfig) (stream.Source, error) {
	switch cfg.Source {
	case "mqtt":
		return stream.NewMQTTSource(cfg.MQTT), nil
	case "http":
		return stream.NewHTTPSource(cfg.HTTP), nil
	case "file":
		return stream.NewFileSource(cfg.File), nil
	case "plc":
		return stream.NewPLCSource(cfg.PLC), nil
	default:
		return nil, fmt.Errorf("fonte de eventos desconhecida: %s", cfg.Source)
	}
}

// Start inicia o servidor e todos os serviços
func (s *Server) Start() error {
	// Iniciar serviço de descoberta
	if err := s.discoveryService.Start(); err != nil {
		logger.Warnf("Erro ao iniciar serviço de descoberta: %v", err)
		// Não abortar operação se falhar
	}

	// Iniciar o pipeline de ingestão. Falha não é fatal: os endpoints de
	// consulta continuam servindo o estado já acumulado
	if err := s.orchestrator.Start(); err != nil {
		logger.Error("Erro ao iniciar pipeline de ingestão", err)
	}

	// Mostrar informações do servidor
	s.logServerInfo()

	// Iniciar servidor HTTP
	logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
	}

	return nil
}

// Shutdown encerra graciosamente o servidor e todos os serviços
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	// Encerrar o servidor HTTP
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
	}

	// Encerrar serviço de descoberta
	if s.discoveryService != nil {
		s.discoveryService.Stop()
	}

	// Encerrar o pipeline
	if s.orchestrator != nil {
		if err := s.orchestrator.Stop(); err != nil {
			logger.Errorf("Erro ao encerrar pipeline: %v", err)
		}
	}

	if s.wsHub != nil {
		s.wsHub.Shutdown()
	}

	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			logger.Errorf("Erro ao encerrar persistência: %v", err)
		}
	}

	logger.Info("Shutdown completo")
	return nil
}

// getLocalIP obtém o endereço IP local
func (s *Server) getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "localhost", nil
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("           AgroGuardian Monitor Server         ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("Fonte de ingestão: %s", s.config.Stream.Source)
	logger.Infof("Persistência: %s", s.config.Storage.Backend)
	logger.Infof("mDNS: %s.%s.%s",
		s.discoveryService.GetInstanceName(),
		discovery.ServiceType,
		discovery.ServiceDomain)
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
