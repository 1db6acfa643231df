package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"agro_go/internal/config"
	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// FileSource lê eventos de um arquivo com um JSON por linha. Útil para
// testes e desenvolvimento local
type FileSource struct {
	config config.FileConfig
	file   *os.File

	events chan models.RawEvent

	mutex   sync.Mutex
	lastErr error
}

// NewFileSource cria uma fonte de arquivo a partir da configuração
func NewFileSource(cfg config.FileConfig) *FileSource {
	return &FileSource{
		config: cfg,
		events: make(chan models.RawEvent, sourceBufferSize),
	}
}

// Connect abre o arquivo de eventos
func (s *FileSource) Connect(ctx context.Context) error {
	file, err := os.Open(s.config.Path)
	if err != nil {
		return &ConnectionError{Source: "file", Err: fmt.Errorf("erro ao abrir arquivo: %w", err)}
	}
	s.file = file
	logger.Infof("Arquivo de eventos aberto: %s", s.config.Path)
	return nil
}

// ReadEvents inicia a leitura do arquivo e devolve o canal de eventos.
// O canal é fechado ao fim do arquivo
func (s *FileSource) ReadEvents(ctx context.Context) (<-chan models.RawEvent, error) {
	if s.file == nil {
		return nil, &ConnectionError{Source: "file", Err: fmt.Errorf("fonte não conectada")}
	}

	go s.readLoop(ctx)
	return s.events, nil
}

func (s *FileSource) readLoop(ctx context.Context) {
	defer close(s.events)

	scanner := bufio.NewScanner(s.file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event models.RawEvent
		if err := json.Unmarshal(line, &event); err != nil {
			logger.Warnf("Linha descartada (JSON inválido): %v", err)
			continue
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.mutex.Lock()
		s.lastErr = &ConnectionError{Source: "file", Err: err}
		s.mutex.Unlock()
		logger.Errorf("Erro ao ler arquivo de eventos: %v", err)
		return
	}
	logger.Info("Fim do arquivo de eventos")
}

// Err reporta a causa do fechamento do canal de eventos
func (s *FileSource) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastErr
}

// Close fecha o arquivo
func (s *FileSource) Close() error {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("erro ao fechar arquivo: %w", err)
		}
	}
	return nil
}
