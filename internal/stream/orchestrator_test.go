package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro_go/internal/features"
	"agro_go/internal/models"
	"agro_go/internal/risk"
	"agro_go/internal/storage"
)

// fakeSource é uma fonte controlável pelos testes
type fakeSource struct {
	events     chan models.RawEvent
	err        error
	connectErr error
	closed     bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan models.RawEvent, 16)}
}

func (s *fakeSource) Connect(ctx context.Context) error {
	return s.connectErr
}

func (s *fakeSource) ReadEvents(ctx context.Context) (<-chan models.RawEvent, error) {
	return s.events, nil
}

func (s *fakeSource) Err() error {
	return s.err
}

func (s *fakeSource) Close() error {
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// fakeSink registra as gravações para verificação
type fakeSink struct {
	mu       sync.Mutex
	readings []models.SensorEvent
	features []models.FeatureSnapshot
	risks    []models.RiskAssessment
}

func (s *fakeSink) StoreReading(event models.SensorEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, event)
	return "r1", nil
}

func (s *fakeSink) StoreFeature(snap models.FeatureSnapshot, readingRef string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = append(s.features, snap)
	return "f1", nil
}

func (s *fakeSink) StoreRisk(assessment models.RiskAssessment, cropType, featureRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.risks = append(s.risks, assessment)
	return nil
}

func (s *fakeSink) CountReadings() (int64, error) { return int64(len(s.readings)), nil }
func (s *fakeSink) CountFeatures() (int64, error) { return int64(len(s.features)), nil }
func (s *fakeSink) CountRisks() (int64, error)    { return int64(len(s.risks)), nil }
func (s *fakeSink) Close() error                  { return nil }

var _ Source = (*fakeSource)(nil)
var _ storage.Sink = (*fakeSink)(nil)

func rawEvent(crop string) models.RawEvent {
	return models.RawEvent{
		"timestamp":        "2026-05-10T08:30:00Z",
		"crop_type":        crop,
		"temperature":      24.0,
		"humidity":         65.0,
		"rain_forecast":    0.3,
		"soil_moisture":    55.0,
		"wind_speed":       3.0,
		"leaf_wetness":     40.0,
		"soil_temperature": 21.0,
		"soil_ph":          6.5,
		"solar_radiation":  500.0,
	}
}

func newTestOrchestrator(source Source, sink storage.Sink) *Orchestrator {
	return NewOrchestrator(source, features.NewEngine(15), risk.NewScorer(), sink, "file")
}

func TestOrchestratorProcessesEvents(t *testing.T) {
	source := newFakeSource()
	sink := &fakeSink{}
	orchestrator := newTestOrchestrator(source, sink)

	var mu sync.Mutex
	var received []models.Telemetry
	orchestrator.AddHandler(func(telemetry models.Telemetry) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, telemetry)
	})

	require.NoError(t, orchestrator.Start())
	assert.Equal(t, StateRunning, orchestrator.State())

	source.events <- rawEvent("tomato")
	source.events <- rawEvent("rice")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "tomato", received[0].CropType)
	assert.Equal(t, "rice", received[1].CropType)
	assert.Equal(t, "file", received[0].IngestionMode)
	assert.NotEmpty(t, received[0].RiskLevel)
	mu.Unlock()

	sink.mu.Lock()
	assert.Len(t, sink.readings, 2)
	assert.Len(t, sink.features, 2)
	assert.Len(t, sink.risks, 2)
	sink.mu.Unlock()

	require.NoError(t, orchestrator.Stop())
	assert.Equal(t, StateStopped, orchestrator.State())
}

func TestOrchestratorSkipsMalformedEvents(t *testing.T) {
	source := newFakeSource()
	sink := &fakeSink{}
	orchestrator := newTestOrchestrator(source, sink)

	var mu sync.Mutex
	count := 0
	orchestrator.AddHandler(func(models.Telemetry) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	require.NoError(t, orchestrator.Start())

	bad := rawEvent("tomato")
	delete(bad, "humidity")
	source.events <- bad
	source.events <- rawEvent("tomato")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	assert.Len(t, sink.readings, 1)
	sink.mu.Unlock()

	require.NoError(t, orchestrator.Stop())
}

func TestOrchestratorSourceFailure(t *testing.T) {
	source := newFakeSource()
	orchestrator := newTestOrchestrator(source, &fakeSink{})

	require.NoError(t, orchestrator.Start())

	// Fonte encerra com erro: o pipeline transita para failed
	source.err = errors.New("conexão perdida")
	close(source.events)
	source.closed = true

	require.Eventually(t, func() bool {
		return orchestrator.State() == StateFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOrchestratorCleanSourceTermination(t *testing.T) {
	source := newFakeSource()
	orchestrator := newTestOrchestrator(source, &fakeSink{})

	require.NoError(t, orchestrator.Start())

	close(source.events)
	source.closed = true

	require.Eventually(t, func() bool {
		return orchestrator.State() == StateStopped
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOrchestratorConnectFailure(t *testing.T) {
	source := newFakeSource()
	source.connectErr = errors.New("broker indisponível")
	orchestrator := newTestOrchestrator(source, &fakeSink{})

	err := orchestrator.Start()
	require.Error(t, err)
	assert.Equal(t, StateFailed, orchestrator.State())

	// Um novo Start é permitido após a falha
	source.connectErr = nil
	require.NoError(t, orchestrator.Start())
	require.NoError(t, orchestrator.Stop())
}

func TestOrchestratorStartWhileRunning(t *testing.T) {
	source := newFakeSource()
	orchestrator := newTestOrchestrator(source, &fakeSink{})

	require.NoError(t, orchestrator.Start())
	require.Error(t, orchestrator.Start())
	require.NoError(t, orchestrator.Stop())
}

func TestOrchestratorHandlerPanicContained(t *testing.T) {
	source := newFakeSource()
	orchestrator := newTestOrchestrator(source, &fakeSink{})

	var mu sync.Mutex
	count := 0
	orchestrator.AddHandler(func(models.Telemetry) {
		panic("handler defeituoso")
	})
	orchestrator.AddHandler(func(models.Telemetry) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	require.NoError(t, orchestrator.Start())

	source.events <- rawEvent("tomato")
	source.events <- rawEvent("tomato")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, orchestrator.Stop())
}
