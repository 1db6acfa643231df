package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro_go/internal/models"
)

// fakeState fornece um estado ao vivo fixo para os testes do hub
type fakeState struct {
	latest *models.Telemetry
	alerts []models.AlertRecord
}

func (s *fakeState) Latest() *models.Telemetry {
	return s.latest
}

func (s *fakeState) RecentAlerts(n int) []models.AlertRecord {
	if n > len(s.alerts) {
		n = len(s.alerts)
	}
	return s.alerts[len(s.alerts)-n:]
}

func (s *fakeState) Snapshot() models.StateSnapshot {
	return models.StateSnapshot{Latest: s.latest, Alerts: s.alerts}
}

func newTestClient(id string) *Client {
	return &Client{
		id:          id,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

func receiveMessage(t *testing.T, client *Client) models.WebSocketMessage {
	t.Helper()
	select {
	case raw := <-client.send:
		var msg models.WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("tempo esgotado aguardando mensagem do hub")
		return models.WebSocketMessage{}
	}
}

func TestHubSendsInitialDataOnRegister(t *testing.T) {
	hub := NewHub()

	latest := &models.Telemetry{}
	latest.CropType = "tomato"
	latest.RiskLevel = models.RiskHigh
	hub.SetStateProvider(&fakeState{
		latest: latest,
		alerts: []models.AlertRecord{{Message: "🚨 HIGH RISK: tomato - Early blight (Alternaria) risk"}},
	})

	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient("cliente-1")
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Sequência inicial: boas-vindas, última telemetria e alertas recentes
	welcome := receiveMessage(t, client)
	assert.Equal(t, "welcome", welcome.Type)

	telemetry := receiveMessage(t, client)
	assert.Equal(t, models.MessageTypeTelemetry, telemetry.Type)

	alert := receiveMessage(t, client)
	assert.Equal(t, models.MessageTypeAlert, alert.Type)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	first := newTestClient("cliente-1")
	second := newTestClient("cliente-2")
	hub.register <- first
	hub.register <- second

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Descartar as mensagens de boas-vindas
	receiveMessage(t, first)
	receiveMessage(t, second)

	telemetry := models.Telemetry{}
	telemetry.CropType = "rice"
	hub.BroadcastTelemetry(telemetry)

	for _, client := range []*Client{first, second} {
		msg := receiveMessage(t, client)
		assert.Equal(t, models.MessageTypeTelemetry, msg.Type)
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient("cliente-1")
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubGetStateCommand(t *testing.T) {
	hub := NewHub()
	hub.SetStateProvider(&fakeState{})

	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient("cliente-1")
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	receiveMessage(t, client) // boas-vindas

	hub.commands <- models.ClientCommand{Command: "get_state", ClientID: "cliente-1"}

	msg := receiveMessage(t, client)
	assert.Equal(t, models.MessageTypeState, msg.Type)
}

func TestHubEvictsClientWithFullBuffer(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	stuck := newTestClient("cliente-travado")
	hub.register <- stuck

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Cliente sem writePump: encher o buffer de envio até a capacidade
	for stuck.trySend([]byte(`{"type":"telemetry"}`)) {
	}

	telemetry := models.Telemetry{}
	telemetry.CropType = "tomato"
	hub.BroadcastTelemetry(telemetry)

	// O hub deve continuar aceitando registros após remover o cliente
	// com buffer cheio
	fresh := newTestClient("cliente-novo")
	select {
	case hub.register <- fresh:
	case <-time.After(2 * time.Second):
		t.Fatal("hub parou de aceitar registros após broadcast com buffer cheio")
	}

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1 && hub.getClientByID("cliente-novo") != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Nil(t, hub.getClientByID("cliente-travado"))
}

func TestClientSendAfterCloseIsSafe(t *testing.T) {
	client := newTestClient("cliente-1")

	require.True(t, client.trySend([]byte(`{"type":"ping"}`)))

	client.closeSend()

	// Envio e fechamento repetidos não devem causar pânico
	assert.False(t, client.trySend([]byte(`{"type":"ping"}`)))
	client.closeSend()
}

func TestInitialDataPrecedesBroadcast(t *testing.T) {
	hub := NewHub()

	latest := &models.Telemetry{}
	latest.CropType = "tomato"
	hub.SetStateProvider(&fakeState{latest: latest})

	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient("cliente-1")
	hub.register <- client

	// Broadcast emitido logo após o registro não pode furar a fila dos
	// dados iniciais
	live := models.Telemetry{}
	live.CropType = "rice"
	hub.BroadcastTelemetry(live)

	welcome := receiveMessage(t, client)
	require.Equal(t, "welcome", welcome.Type)

	var initial models.TelemetryMessage
	require.NoError(t, json.Unmarshal(<-client.send, &initial))
	assert.Equal(t, "tomato", initial.Payload.CropType)

	var broadcast models.TelemetryMessage
	require.NoError(t, json.Unmarshal(<-client.send, &broadcast))
	assert.Equal(t, "rice", broadcast.Payload.CropType)
}

func TestSerializeMessageRoundTrip(t *testing.T) {
	alert := models.AlertRecord{
		Message:   "🚨 HIGH RISK: tomato - Early blight (Alternaria) risk",
		RiskLevel: models.RiskHigh,
		RiskScore: 92,
	}

	raw, err := SerializeMessage(NewAlertMessage(alert))
	require.NoError(t, err)

	var decoded models.AlertMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, models.MessageTypeAlert, decoded.Type)
	assert.Equal(t, 92, decoded.Payload.RiskScore)
}
