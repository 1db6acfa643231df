package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robinson/gos7"

	"agro_go/internal/config"
	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// Layout do bloco de dados da estufa: nove REALs consecutivos na ordem
// temperature, humidity, rain_forecast, soil_moisture, wind_speed,
// leaf_wetness, soil_temperature, soil_ph, solar_radiation
const (
	plcChannelCount = 9
	plcBlockSize    = plcChannelCount * 4
)

// PLCSource lê os sensores de uma estufa diretamente de um bloco de dados
// de um PLC S7, em intervalo fixo
type PLCSource struct {
	config  config.PLCConfig
	client  gos7.Client
	handler *gos7.TCPClientHandler

	events chan models.RawEvent

	mutex   sync.Mutex
	lastErr error
}

// NewPLCSource cria uma fonte S7 a partir da configuração
func NewPLCSource(cfg config.PLCConfig) *PLCSource {
	return &PLCSource{
		config: cfg,
		events: make(chan models.RawEvent, sourceBufferSize),
	}
}

// Connect estabelece conexão com o PLC
func (s *PLCSource) Connect(ctx context.Context) error {
	handler := gos7.NewTCPClientHandler(s.config.Host, s.config.Rack, s.config.Slot)
	handler.Timeout = s.config.ReadTimeout
	handler.IdleTimeout = 70 * time.Second

	if err := handler.Connect(); err != nil {
		return &ConnectionError{Source: "plc", Err: fmt.Errorf("erro ao conectar ao PLC: %w", err)}
	}

	s.handler = handler
	s.client = gos7.NewClient(handler)
	logger.Infof("Conectado ao PLC em %s (Rack: %d, Slot: %d)",
		s.config.Host, s.config.Rack, s.config.Slot)
	return nil
}

// ReadEvents inicia o loop de leitura periódica e devolve o canal de eventos
func (s *PLCSource) ReadEvents(ctx context.Context) (<-chan models.RawEvent, error) {
	if s.client == nil {
		return nil, &ConnectionError{Source: "plc", Err: fmt.Errorf("fonte não conectada")}
	}

	go s.readLoop(ctx)
	return s.events, nil
}

// readLoop lê o bloco de dados no intervalo configurado. Erro de leitura é
// fatal: o PLC local não deve falhar em operação normal
func (s *PLCSource) readLoop(ctx context.Context) {
	defer close(s.events)

	ticker := time.NewTicker(s.config.ReadInterval)
	defer ticker.Stop()

	for {
		event, err := s.readBlock()
		if err != nil {
			s.mutex.Lock()
			s.lastErr = &ConnectionError{Source: "plc", Err: err}
			s.mutex.Unlock()
			logger.Error("Erro ao ler bloco de dados do PLC", err)
			return
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// readBlock lê os nove canais do bloco de dados e monta o evento bruto
func (s *PLCSource) readBlock() (models.RawEvent, error) {
	buffer := make([]byte, plcBlockSize)
	if err := s.client.AGReadDB(s.config.DBNumber, s.config.StartOffset, plcBlockSize, buffer); err != nil {
		return nil, fmt.Errorf("erro ao ler DB%d: %w", s.config.DBNumber, err)
	}

	values := make([]float64, plcChannelCount)
	for i := 0; i < plcChannelCount; i++ {
		bits := binary.BigEndian.Uint32(buffer[i*4 : i*4+4])
		values[i] = float64(math.Float32frombits(bits))
	}

	return models.RawEvent{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"crop_type":        s.config.CropType,
		"temperature":      values[0],
		"humidity":         values[1],
		"rain_forecast":    values[2],
		"soil_moisture":    values[3],
		"wind_speed":       values[4],
		"leaf_wetness":     values[5],
		"soil_temperature": values[6],
		"soil_ph":          values[7],
		"solar_radiation":  values[8],
	}, nil
}

// Err reporta a causa do fechamento do canal de eventos
func (s *PLCSource) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastErr
}

// Close fecha a conexão com o PLC
func (s *PLCSource) Close() error {
	if s.handler != nil {
		if err := s.handler.Close(); err != nil {
			return fmt.Errorf("erro ao desconectar do PLC: %w", err)
		}
		logger.Info("Desconectado do PLC")
	}
	return nil
}
