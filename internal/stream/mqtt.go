package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"agro_go/internal/config"
	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// MQTTSource consome eventos de sensores publicados em um tópico MQTT
type MQTTSource struct {
	config config.MQTTConfig
	client mqtt.Client

	// mutex protege o fechamento do canal contra publicações em andamento
	mutex   sync.RWMutex
	closed  bool
	events  chan models.RawEvent
	lastErr error
}

// NewMQTTSource cria uma fonte MQTT a partir da configuração
func NewMQTTSource(cfg config.MQTTConfig) *MQTTSource {
	return &MQTTSource{
		config: cfg,
		events: make(chan models.RawEvent, sourceBufferSize),
	}
}

// Connect conecta ao broker MQTT
func (s *MQTTSource) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.config.Broker).
		SetClientID(s.config.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Errorf("Conexão MQTT perdida: %v", err)
			s.fail(&ConnectionError{Source: "mqtt", Err: err})
		})

	if s.config.Username != "" {
		opts.SetUsername(s.config.Username)
		opts.SetPassword(s.config.Password)
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return &ConnectionError{Source: "mqtt", Err: fmt.Errorf("timeout ao conectar ao broker %s", s.config.Broker)}
	}
	if err := token.Error(); err != nil {
		return &ConnectionError{Source: "mqtt", Err: err}
	}

	logger.Infof("Conectado ao broker MQTT %s", s.config.Broker)
	return nil
}

// ReadEvents assina o tópico configurado e devolve o canal de eventos
func (s *MQTTSource) ReadEvents(ctx context.Context) (<-chan models.RawEvent, error) {
	if s.client == nil || !s.client.IsConnected() {
		return nil, &ConnectionError{Source: "mqtt", Err: fmt.Errorf("cliente não conectado")}
	}

	token := s.client.Subscribe(s.config.Topic, s.config.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		var event models.RawEvent
		if err := json.Unmarshal(msg.Payload(), &event); err != nil {
			logger.Warnf("Mensagem MQTT descartada (JSON inválido): %v", err)
			return
		}
		s.mutex.RLock()
		defer s.mutex.RUnlock()
		if s.closed {
			return
		}
		select {
		case s.events <- event:
		case <-ctx.Done():
		}
	})
	if !token.WaitTimeout(10 * time.Second) {
		return nil, &ConnectionError{Source: "mqtt", Err: fmt.Errorf("timeout ao assinar tópico %s", s.config.Topic)}
	}
	if err := token.Error(); err != nil {
		return nil, &ConnectionError{Source: "mqtt", Err: err}
	}

	logger.Infof("Assinado o tópico MQTT %s", s.config.Topic)
	return s.events, nil
}

// Err reporta a causa do fechamento do canal de eventos
func (s *MQTTSource) Err() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastErr
}

// fail registra o erro e fecha o canal de eventos
func (s *MQTTSource) fail(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.lastErr == nil {
		s.lastErr = err
	}
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Close encerra a assinatura e desconecta do broker
func (s *MQTTSource) Close() error {
	if s.client != nil && s.client.IsConnected() {
		s.client.Unsubscribe(s.config.Topic)
		s.client.Disconnect(250)
		logger.Info("Desconectado do broker MQTT")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}
