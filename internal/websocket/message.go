package websocket

import (
	"encoding/json"
	"time"

	"agro_go/internal/models"
)

// NewTelemetryMessage monta a mensagem WebSocket de uma telemetria do pipeline
func NewTelemetryMessage(t models.Telemetry) models.TelemetryMessage {
	return models.TelemetryMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      models.MessageTypeTelemetry,
			Timestamp: time.Now(),
		},
		Payload: t,
	}
}

// NewAlertMessage monta a mensagem WebSocket de um alerta de risco alto
func NewAlertMessage(a models.AlertRecord) models.AlertMessage {
	return models.AlertMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      models.MessageTypeAlert,
			Timestamp: time.Now(),
		},
		Payload: a,
	}
}

// NewStateMessage monta a mensagem WebSocket de um snapshot do estado ao vivo
func NewStateMessage(s models.StateSnapshot) models.StateMessage {
	return models.StateMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      models.MessageTypeState,
			Timestamp: time.Now(),
		},
		Payload: s,
	}
}

// SerializeMessage serializa uma estrutura para JSON
func SerializeMessage(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
