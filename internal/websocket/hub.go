package websocket

import (
	"context"
	"sync"
	"time"

	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// StateProvider expõe a visão ao vivo do pipeline para novos clientes
type StateProvider interface {
	Latest() *models.Telemetry
	RecentAlerts(n int) []models.AlertRecord
	Snapshot() models.StateSnapshot
}

// Número de alertas recentes enviados a um cliente recém-conectado
const initialAlertCount = 5

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	// Estado ao vivo para novos clientes e comandos get_state
	state     StateProvider
	stateLock sync.RWMutex

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		commands:   make(chan models.ClientCommand, 100),
		ctx:        ctx,
		cancel:     cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetStateProvider registra o provedor do estado ao vivo
func (h *Hub) SetStateProvider(state StateProvider) {
	h.stateLock.Lock()
	h.state = state
	h.stateLock.Unlock()
}

func (h *Hub) stateProvider() StateProvider {
	h.stateLock.RLock()
	defer h.stateLock.RUnlock()
	return h.state
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	logger.Info("Iniciando WebSocket Hub")

	// Ticker para estatísticas periódicas
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker para manter conexões ativas
	pingTicker := time.NewTicker(5 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			// Dados iniciais entram na fila antes do cliente participar
			// dos broadcasts, garantindo a ordem welcome -> estado -> ao vivo
			h.sendInitialDataToClient(client)

			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()

				logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clientCount := len(h.clients)

			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			if clientCount == 0 {
				h.mu.RUnlock()
				continue
			}

			// Clientes com buffer cheio são marcados para desconexão
			deadClients := make([]*Client, 0, 4)

			for client := range h.clients {
				if !client.trySend(message) {
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			// Remoção feita aqui mesmo: o loop do hub é o único receptor
			// de unregister e não pode enviar para si próprio
			if len(deadClients) > 0 {
				h.mu.Lock()
				for _, client := range deadClients {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						client.closeSend()

						logger.Infof("Cliente WebSocket removido por buffer cheio. ID: %s. Total: %d", client.id, len(h.clients))
					}
				}
				h.mu.Unlock()
			}

		case cmd := <-h.commands:
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}

			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()

			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()

			logger.Infof("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				clientCount, mps, total)

		case <-pingTicker.C:
			h.sendPingToAllClients()
		}
	}
}

// BroadcastTelemetry envia uma telemetria do pipeline para todos os clientes
func (h *Hub) BroadcastTelemetry(t models.Telemetry) {
	message := NewTelemetryMessage(t)

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de telemetria", err)
	}
}

// BroadcastAlert envia um alerta de risco alto para todos os clientes
func (h *Hub) BroadcastAlert(a models.AlertRecord) {
	message := NewAlertMessage(a)

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de alerta", err)
	}
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	switch cmd.Command {
	case "get_state":
		h.sendCurrentState(cmd.ClientID)
	case "ping":
		h.sendPong(cmd.ClientID, cmd.Params)
	default:
		logger.Warnf("Comando desconhecido: %s", cmd.Command)
	}
}

// sendCurrentState envia o snapshot do estado ao vivo para um cliente específico
func (h *Hub) sendCurrentState(clientID string) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	state := h.stateProvider()
	if state == nil {
		return
	}

	message := NewStateMessage(state.Snapshot())
	if jsonMsg, err := SerializeMessage(message); err == nil {
		client.trySend(jsonMsg)
	}
}

// sendPong envia resposta de pong para um cliente específico
func (h *Hub) sendPong(clientID string, params interface{}) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	// Extrair timestamp do ping
	var pingTime int64
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if timeVal, ok := paramsMap["time"].(float64); ok {
			pingTime = int64(timeVal)
		}
	}

	pong := models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      models.MessageTypePong,
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: time.Now().UnixNano() / int64(time.Millisecond),
	}

	if jsonMsg, err := SerializeMessage(pong); err == nil {
		client.trySend(jsonMsg)
	}
}

// sendInitialDataToClient envia a última telemetria e os alertas recentes
// para um cliente recém-conectado
func (h *Hub) sendInitialDataToClient(client *Client) {
	welcome := models.WebSocketMessage{
		Type:      "welcome",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":  "Conectado ao servidor AgroGuardian",
			"clientId": client.id,
		},
	}

	if jsonMsg, err := SerializeMessage(welcome); err == nil {
		client.trySend(jsonMsg)
	}

	state := h.stateProvider()
	if state == nil {
		return
	}

	if latest := state.Latest(); latest != nil {
		if jsonMsg, err := SerializeMessage(NewTelemetryMessage(*latest)); err == nil {
			client.trySend(jsonMsg)
		}
	}

	for _, alert := range state.RecentAlerts(initialAlertCount) {
		if jsonMsg, err := SerializeMessage(NewAlertMessage(alert)); err == nil {
			client.trySend(jsonMsg)
		}
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	// Aguardar um pequeno tempo para processamento finalizar
	time.Sleep(100 * time.Millisecond)
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	ping := models.PingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "ping",
			Timestamp: time.Now(),
		},
		Time: time.Now().UnixNano() / int64(time.Millisecond),
	}

	if jsonMsg, err := SerializeMessage(ping); err == nil {
		h.mu.RLock()
		if len(h.clients) > 0 {
			// Chamado pelo próprio loop do hub; nunca pode bloquear aqui
			select {
			case h.broadcast <- jsonMsg:
			default:
			}
		}
		h.mu.RUnlock()
	}
}
