package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"agro_go/internal/features"
	"agro_go/internal/models"
	"agro_go/internal/risk"
	"agro_go/internal/storage"
	"agro_go/pkg/logger"
)

// Estados do ciclo de vida do orquestrador
type OrchestratorState string

const (
	StateIdle       OrchestratorState = "idle"
	StateConnecting OrchestratorState = "connecting"
	StateRunning    OrchestratorState = "running"
	StateStopping   OrchestratorState = "stopping"
	StateStopped    OrchestratorState = "stopped"
	StateFailed     OrchestratorState = "failed"
)

// AssessmentHandler recebe cada telemetria completa produzida pelo pipeline
type AssessmentHandler func(t models.Telemetry)

// Orchestrator conecta a fonte de eventos ao motor de features, ao avaliador
// de risco e à persistência, e entrega cada telemetria aos handlers
type Orchestrator struct {
	source Source
	engine *features.Engine
	scorer *risk.Scorer
	sink   storage.Sink
	mode   string

	handlers []AssessmentHandler

	mutex  sync.RWMutex
	state  OrchestratorState
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewOrchestrator cria um orquestrador em estado idle
func NewOrchestrator(source Source, engine *features.Engine, scorer *risk.Scorer, sink storage.Sink, mode string) *Orchestrator {
	return &Orchestrator{
		source: source,
		engine: engine,
		scorer: scorer,
		sink:   sink,
		mode:   mode,
		state:  StateIdle,
	}
}

// AddHandler registra um handler chamado para cada telemetria produzida.
// Deve ser chamado antes de Start
func (o *Orchestrator) AddHandler(handler AssessmentHandler) {
	o.handlers = append(o.handlers, handler)
}

// State retorna o estado atual do orquestrador
func (o *Orchestrator) State() OrchestratorState {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.state
}

// Mode retorna o modo de ingestão configurado
func (o *Orchestrator) Mode() string {
	return o.mode
}

func (o *Orchestrator) setState(state OrchestratorState) {
	o.mutex.Lock()
	o.state = state
	o.mutex.Unlock()
}

// Start conecta a fonte e inicia o loop de processamento
func (o *Orchestrator) Start() error {
	o.mutex.Lock()
	if o.state != StateIdle && o.state != StateStopped && o.state != StateFailed {
		state := o.state
		o.mutex.Unlock()
		return fmt.Errorf("orquestrador não pode iniciar no estado %s", state)
	}
	o.state = StateConnecting
	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.done = make(chan struct{})
	o.mutex.Unlock()

	if err := o.source.Connect(o.ctx); err != nil {
		o.setState(StateFailed)
		close(o.done)
		return fmt.Errorf("erro ao conectar fonte de eventos: %w", err)
	}

	events, err := o.source.ReadEvents(o.ctx)
	if err != nil {
		o.setState(StateFailed)
		close(o.done)
		return fmt.Errorf("erro ao iniciar leitura de eventos: %w", err)
	}

	o.setState(StateRunning)
	logger.Infof("Pipeline iniciado (modo de ingestão: %s)", o.mode)

	go o.run(events)
	return nil
}

// run consome o canal de eventos até o contexto encerrar ou a fonte fechar
func (o *Orchestrator) run(events <-chan models.RawEvent) {
	defer close(o.done)

	for {
		select {
		case <-o.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				if err := o.source.Err(); err != nil {
					logger.Error("Fonte de eventos encerrada com erro", err)
					o.setState(StateFailed)
				} else {
					logger.Info("Fonte de eventos encerrada")
					o.setState(StateStopped)
				}
				return
			}
			o.processEvent(event)
		}
	}
}

// processEvent executa um evento pelo pipeline completo. Eventos malformados
// e falhas de persistência não interrompem o processamento
func (o *Orchestrator) processEvent(event models.RawEvent) {
	snap, err := o.engine.Process(event)
	if err != nil {
		var malformed *features.MalformedEventError
		if errors.As(err, &malformed) {
			logger.Warnf("Evento descartado: %v", err)
			return
		}
		logger.Error("Erro ao processar evento", err)
		return
	}

	assessment := o.scorer.Score(snap)

	readingRef, err := o.sink.StoreReading(snap.SensorEvent)
	if err != nil {
		logger.Error("Erro ao persistir leitura", err)
	}
	featureRef, err := o.sink.StoreFeature(snap, readingRef)
	if err != nil {
		logger.Error("Erro ao persistir features", err)
	}
	if err := o.sink.StoreRisk(assessment, snap.CropType, featureRef); err != nil {
		logger.Error("Erro ao persistir avaliação de risco", err)
	}

	telemetry := models.Telemetry{
		FeatureSnapshot: snap,
		RiskAssessment:  assessment,
		IngestionMode:   o.mode,
	}

	for _, handler := range o.handlers {
		o.callHandler(handler, telemetry)
	}
}

// callHandler isola pânicos de handlers para não derrubar o pipeline
func (o *Orchestrator) callHandler(handler AssessmentHandler, t models.Telemetry) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Pânico em handler de telemetria: %v", r)
		}
	}()
	handler(t)
}

// Stop encerra o pipeline e aguarda o loop de processamento terminar
func (o *Orchestrator) Stop() error {
	o.mutex.Lock()
	if o.state != StateRunning && o.state != StateConnecting {
		o.mutex.Unlock()
		return nil
	}
	o.state = StateStopping
	cancel := o.cancel
	done := o.done
	o.mutex.Unlock()

	cancel()
	if err := o.source.Close(); err != nil {
		logger.Error("Erro ao fechar fonte de eventos", err)
	}
	<-done

	// A fonte pode ter encerrado com erro durante a parada
	if o.State() != StateFailed {
		o.setState(StateStopped)
	}
	logger.Info("Pipeline encerrado")
	return nil
}
