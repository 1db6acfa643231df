package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro_go/internal/assistant"
	"agro_go/internal/live"
	"agro_go/internal/models"
	"agro_go/internal/storage"
)

func newTestHandler(t *testing.T) (*Handler, *live.State) {
	t.Helper()
	liveState := live.NewState(nil)
	agent := assistant.New(t.TempDir())
	return NewHandler(liveState, storage.NewNoopSink(), nil, agent), liveState
}

func recordTelemetry(liveState *live.State, score int) {
	telemetry := models.Telemetry{}
	telemetry.CropType = "tomato"
	telemetry.RiskScore = score
	telemetry.RiskLevel = models.RiskMedium
	liveState.Record(telemetry)
}

func TestGetState(t *testing.T) {
	handler, liveState := newTestHandler(t)
	recordTelemetry(liveState, 50)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	recorder := httptest.NewRecorder()
	handler.GetState(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var snap models.StateSnapshot
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snap))
	require.NotNil(t, snap.Latest)
	assert.Equal(t, 50, snap.Latest.RiskScore)
	assert.Len(t, snap.History, 1)
}

func TestGetStateMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/state", nil)
	recorder := httptest.NewRecorder()
	handler.GetState(recorder, req)

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestGetPipelineStats(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/pipeline/stats", nil)
	recorder := httptest.NewRecorder()
	handler.GetPipelineStats(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &stats))
	assert.Equal(t, float64(0), stats["sensor_readings"])
	assert.Equal(t, "inactive", stats["pipeline_status"])
}

func TestChat(t *testing.T) {
	handler, liveState := newTestHandler(t)
	recordTelemetry(liveState, 60)

	body := strings.NewReader(`{"question":"como está o risco?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	recorder := httptest.NewRecorder()
	handler.Chat(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response assistant.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Contains(t, response.Answer, "For your tomato")
	assert.Contains(t, response.Answer, "score: 60/100")
	assert.Equal(t, "rule-based", response.Method)
}

func TestChatValidation(t *testing.T) {
	handler, _ := newTestHandler(t)

	t.Run("corpo inválido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{{{"))
		recorder := httptest.NewRecorder()
		handler.Chat(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("pergunta vazia", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":""}`))
		recorder := httptest.NewRecorder()
		handler.Chat(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("método incorreto", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		recorder := httptest.NewRecorder()
		handler.Chat(recorder, req)
		assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})
}

func TestChatWithoutAssistant(t *testing.T) {
	liveState := live.NewState(nil)
	handler := NewHandler(liveState, storage.NewNoopSink(), nil, nil)

	body := strings.NewReader(`{"question":"qual o risco?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	recorder := httptest.NewRecorder()
	handler.Chat(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response assistant.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "Assistant not initialized yet.", response.Answer)
}
