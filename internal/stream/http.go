package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"agro_go/internal/config"
	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// HTTPSource consulta periodicamente um endpoint REST que devolve um evento
// ou uma lista de eventos em JSON
type HTTPSource struct {
	config config.HTTPConfig
	client *http.Client

	events    chan models.RawEvent
	closeOnce sync.Once
}

// NewHTTPSource cria uma fonte HTTP de polling a partir da configuração
func NewHTTPSource(cfg config.HTTPConfig) *HTTPSource {
	return &HTTPSource{
		config: cfg,
		events: make(chan models.RawEvent, sourceBufferSize),
	}
}

// Connect prepara o cliente HTTP; o endpoint só é validado na primeira consulta
func (s *HTTPSource) Connect(ctx context.Context) error {
	s.client = &http.Client{Timeout: 15 * time.Second}
	logger.Infof("Fonte HTTP configurada para %s (intervalo %s)", s.config.Endpoint, s.config.PollInterval)
	return nil
}

// ReadEvents inicia o loop de polling e devolve o canal de eventos
func (s *HTTPSource) ReadEvents(ctx context.Context) (<-chan models.RawEvent, error) {
	if s.client == nil {
		return nil, &ConnectionError{Source: "http", Err: fmt.Errorf("fonte não conectada")}
	}

	go s.pollLoop(ctx)
	return s.events, nil
}

// pollLoop consulta o endpoint no intervalo configurado até o contexto encerrar.
// Erros de requisição não são fatais, apenas registrados
func (s *HTTPSource) pollLoop(ctx context.Context) {
	defer s.closeOnce.Do(func() { close(s.events) })

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		s.pollOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *HTTPSource) pollOnce(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.Endpoint, nil)
	if err != nil {
		logger.Errorf("Erro ao montar requisição HTTP: %v", err)
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warnf("Erro ao consultar endpoint HTTP: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warnf("Endpoint HTTP retornou status %d", resp.StatusCode)
		io.Copy(io.Discard, resp.Body)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warnf("Erro ao ler resposta HTTP: %v", err)
		return
	}

	// A resposta pode ser um evento único ou uma lista de eventos
	var batch []models.RawEvent
	if err := json.Unmarshal(body, &batch); err != nil {
		var single models.RawEvent
		if err := json.Unmarshal(body, &single); err != nil {
			logger.Warnf("Resposta HTTP descartada (JSON inválido): %v", err)
			return
		}
		batch = []models.RawEvent{single}
	}

	for _, event := range batch {
		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		}
	}
}

// Err reporta a causa do fechamento do canal de eventos. O polling trata
// erros de requisição como transitórios, então o término é sempre limpo
func (s *HTTPSource) Err() error {
	return nil
}

// Close encerra a fonte. O canal de eventos é fechado pelo loop de polling
// quando o contexto é cancelado
func (s *HTTPSource) Close() error {
	logger.Info("Fonte HTTP encerrada")
	return nil
}
