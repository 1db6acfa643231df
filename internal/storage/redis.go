package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"agro_go/internal/config"
	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// Tamanho máximo dos índices de histórico no Redis
const redisIndexLimit = 1000

// RedisSink persiste o pipeline no Redis: cada registro vira uma chave JSON
// indexada em um sorted set por timestamp, com contadores incrementais
type RedisSink struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex
}

// NewRedisSink cria um sink Redis e testa a conexão. Falha de conexão não é
// fatal: o sink entra em modo offline e descarta as escritas
func NewRedisSink(cfg config.RedisConfig) (*RedisSink, error) {
	ctx, cancel := context.WithCancel(context.Background())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	sink := &RedisSink{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		prefix: cfg.Prefix,
		config: cfg,
	}

	if err := sink.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		sink.connected = false
		return sink, nil
	}

	sink.connected = true
	return sink, nil
}

// TestConnection testa a conexão com o Redis
func (s *RedisSink) TestConnection() error {
	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.mutex.Lock()
	s.connected = true
	s.mutex.Unlock()
	return nil
}

// IsConnected verifica se o sink está conectado
func (s *RedisSink) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected
}

// StoreReading persiste uma leitura bruta e retorna a referência gerada
func (s *RedisSink) StoreReading(event models.SensorEvent) (string, error) {
	if !s.IsConnected() {
		return "", nil
	}

	ref := uuid.New().String()
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("erro ao serializar leitura: %w", err)
	}

	if err := s.writeRecord("reading", "readings", ref, data, event.Timestamp); err != nil {
		return "", err
	}
	return ref, nil
}

// StoreFeature persiste um snapshot de features vinculado à leitura de origem
func (s *RedisSink) StoreFeature(snap models.FeatureSnapshot, readingRef string) (string, error) {
	if !s.IsConnected() {
		return "", nil
	}

	ref := uuid.New().String()
	record := struct {
		models.FeatureSnapshot
		ReadingRef string `json:"reading_ref,omitempty"`
	}{snap, readingRef}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("erro ao serializar features: %w", err)
	}

	if err := s.writeRecord("feature", "features", ref, data, snap.Timestamp); err != nil {
		return "", err
	}
	return ref, nil
}

// StoreRisk persiste uma avaliação de risco vinculada ao snapshot de origem
func (s *RedisSink) StoreRisk(assessment models.RiskAssessment, cropType, featureRef string) error {
	if !s.IsConnected() {
		return nil
	}

	ref := uuid.New().String()
	record := struct {
		models.RiskAssessment
		CropType   string `json:"crop_type"`
		FeatureRef string `json:"feature_ref,omitempty"`
	}{assessment, cropType, featureRef}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("erro ao serializar avaliação de risco: %w", err)
	}

	return s.writeRecord("risk", "risks", ref, data, time.Now())
}

// writeRecord grava um registro JSON, indexa por timestamp e incrementa o
// contador da camada em uma única pipeline
func (s *RedisSink) writeRecord(kind, index, ref string, data []byte, ts time.Time) error {
	pipe := s.client.Pipeline()
	timestamp := ts.UnixNano() / int64(time.Millisecond)

	recordKey := fmt.Sprintf("%s:%s:%s", s.prefix, kind, ref)
	pipe.Set(s.ctx, recordKey, string(data), 0)

	indexKey := fmt.Sprintf("%s:%s:index", s.prefix, index)
	pipe.ZAdd(s.ctx, indexKey, &redis.Z{
		Score:  float64(timestamp),
		Member: ref,
	})

	// Limita o tamanho do índice (mantém últimos 1000 registros)
	pipe.ZRemRangeByRank(s.ctx, indexKey, 0, int64(-1*(redisIndexLimit+1)))

	counterKey := fmt.Sprintf("%s:count:%s", s.prefix, index)
	pipe.Incr(s.ctx, counterKey)

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever %s no Redis: %w", kind, err)
	}
	return nil
}

// CountReadings retorna o total de leituras persistidas
func (s *RedisSink) CountReadings() (int64, error) {
	return s.readCounter("readings")
}

// CountFeatures retorna o total de snapshots de features persistidos
func (s *RedisSink) CountFeatures() (int64, error) {
	return s.readCounter("features")
}

// CountRisks retorna o total de avaliações de risco persistidas
func (s *RedisSink) CountRisks() (int64, error) {
	return s.readCounter("risks")
}

func (s *RedisSink) readCounter(index string) (int64, error) {
	if !s.IsConnected() {
		return 0, nil
	}

	cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:count:%s", s.prefix, index))
	if cmd.Err() == redis.Nil {
		return 0, nil
	}
	if cmd.Err() != nil {
		return 0, fmt.Errorf("erro ao obter contador %s: %w", index, cmd.Err())
	}
	return cmd.Int64()
}

// Close encerra graciosamente a conexão com o Redis
func (s *RedisSink) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cancel()
	s.connected = false

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			return fmt.Errorf("erro ao fechar conexão com Redis: %w", err)
		}
		logger.Info("Conexão com o Redis fechada")
	}
	return nil
}
