package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"agro_go/internal/assistant"
	"agro_go/internal/live"
	"agro_go/internal/models"
	"agro_go/internal/storage"
	"agro_go/internal/stream"
	"agro_go/pkg/logger"
)

// Handler contém os handlers HTTP para a API
type Handler struct {
	liveState    *live.State
	sink         storage.Sink
	orchestrator *stream.Orchestrator
	assistant    *assistant.Assistant
}

// NewHandler cria um novo handler de API
func NewHandler(liveState *live.State, sink storage.Sink, orchestrator *stream.Orchestrator, agent *assistant.Assistant) *Handler {
	return &Handler{
		liveState:    liveState,
		sink:         sink,
		orchestrator: orchestrator,
		assistant:    agent,
	}
}

// GetState retorna o snapshot do estado ao vivo do pipeline
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.liveState.Snapshot())
}

// GetPipelineStats retorna os contadores de persistência e o status do pipeline
func (h *Handler) GetPipelineStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	readings, err := h.sink.CountReadings()
	if err != nil {
		logger.Error("Erro ao contar leituras", err)
	}
	features, err := h.sink.CountFeatures()
	if err != nil {
		logger.Error("Erro ao contar features", err)
	}
	risks, err := h.sink.CountRisks()
	if err != nil {
		logger.Error("Erro ao contar avaliações de risco", err)
	}

	status := "inactive"
	if h.orchestrator != nil && h.orchestrator.State() == stream.StateRunning {
		status = "active"
	}

	h.respondWithJSON(w, http.StatusOK, models.PipelineStats{
		SensorReadings:    readings,
		ProcessedFeatures: features,
		RiskAssessments:   risks,
		PipelineStatus:    status,
	})
}

// chatRequest é o corpo da requisição do endpoint de chat
type chatRequest struct {
	Question string `json:"question"`
}

// Chat responde uma pergunta agronômica usando o assistente
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if req.Question == "" {
		h.respondWithError(w, http.StatusBadRequest, "Pergunta não informada")
		return
	}

	if h.assistant == nil {
		h.respondWithJSON(w, http.StatusOK, assistant.Response{
			Answer:  "Assistant not initialized yet.",
			Sources: []string{},
		})
		return
	}

	response := h.assistant.Answer(req.Question, h.liveState.Latest())
	h.respondWithJSON(w, http.StatusOK, response)
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
