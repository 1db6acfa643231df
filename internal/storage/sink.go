package storage

import "agro_go/internal/models"

// Sink persiste as três camadas do pipeline: leituras brutas, features
// processadas e avaliações de risco. As referências retornadas encadeiam
// os registros entre camadas
type Sink interface {
	StoreReading(event models.SensorEvent) (string, error)
	StoreFeature(snap models.FeatureSnapshot, readingRef string) (string, error)
	StoreRisk(assessment models.RiskAssessment, cropType, featureRef string) error
	CountReadings() (int64, error)
	CountFeatures() (int64, error)
	CountRisks() (int64, error)
	Close() error
}

// noopSink descarta tudo; usado quando a persistência está desabilitada
type noopSink struct{}

// NewNoopSink cria um sink que não persiste nada
func NewNoopSink() Sink {
	return noopSink{}
}

func (noopSink) StoreReading(models.SensorEvent) (string, error) { return "", nil }

func (noopSink) StoreFeature(models.FeatureSnapshot, string) (string, error) { return "", nil }

func (noopSink) StoreRisk(models.RiskAssessment, string, string) error { return nil }

func (noopSink) CountReadings() (int64, error) { return 0, nil }

func (noopSink) CountFeatures() (int64, error) { return 0, nil }

func (noopSink) CountRisks() (int64, error) { return 0, nil }

func (noopSink) Close() error { return nil }
