package models

import "time"

// Tipos de mensagens WebSocket enviadas pelo servidor
const (
	MessageTypeTelemetry = "telemetry"
	MessageTypeAlert     = "alert"
	MessageTypeState     = "state"
	MessageTypeStats     = "stats"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"
)

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`            // Tipo da mensagem: "telemetry", "alert", "state", etc.
	Timestamp time.Time   `json:"timestamp"`       // Timestamp da mensagem
	Data      interface{} `json:"data,omitempty"`  // Dados adicionais específicos do tipo
	Error     string      `json:"error,omitempty"` // Mensagem de erro, se houver
}

// TelemetryMessage é uma mensagem específica para telemetria do pipeline
type TelemetryMessage struct {
	WebSocketMessage
	Payload Telemetry `json:"payload"`
}

// AlertMessage é uma mensagem específica para alertas de risco alto
type AlertMessage struct {
	WebSocketMessage
	Payload AlertRecord `json:"payload"`
}

// StateMessage é uma mensagem específica para o snapshot do estado ao vivo
type StateMessage struct {
	WebSocketMessage
	Payload StateSnapshot `json:"payload"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string      `json:"type"`             // Tipo de comando: "get_state", "ping", etc.
	Params interface{} `json:"params,omitempty"` // Parâmetros adicionais
	ID     string      `json:"id,omitempty"`     // ID opcional para correlacionar solicitações/respostas
}

// ClientCommand representa um comando enviado pelo cliente
type ClientCommand struct {
	Command  string      `json:"command"`
	Params   interface{} `json:"params,omitempty"`
	ClientID string      `json:"-"` // Usado internamente, não enviado no JSON
}

// PingMessage representa um ping enviado pelo cliente
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"` // Timestamp em milissegundos
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`       // Timestamp original do ping
	ServerTime int64 `json:"serverTime"` // Timestamp do servidor em milissegundos
}
