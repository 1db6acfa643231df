package live

import (
	"fmt"
	"sync"

	"agro_go/internal/models"
	"agro_go/pkg/logger"
)

// Limites do estado ao vivo
const (
	historyLimit    = 400
	alertsLimit     = 100
	snapshotHistory = 60
	snapshotAlerts  = 20
)

// Broadcaster distribui telemetria e alertas aos assinantes conectados
type Broadcaster interface {
	BroadcastTelemetry(t models.Telemetry)
	BroadcastAlert(a models.AlertRecord)
}

// ReportWriter persiste relatórios de risco alto fora do caminho crítico de leitura
type ReportWriter interface {
	WriteHighRisk(t models.Telemetry) (string, error)
}

// State mantém a visão ao vivo do pipeline: última telemetria, histórico
// recente e alertas emitidos, com limites fixos de retenção
type State struct {
	mu          sync.RWMutex
	latest      *models.Telemetry
	history     []models.Telemetry
	alerts      []models.AlertRecord
	reports     ReportWriter
	broadcaster Broadcaster
}

// NewState cria um estado ao vivo vazio; writer pode ser nil para desativar relatórios
func NewState(reports ReportWriter) *State {
	return &State{
		history: make([]models.Telemetry, 0, historyLimit),
		alerts:  make([]models.AlertRecord, 0, alertsLimit),
		reports: reports,
	}
}

// SetBroadcaster registra o distribuidor de mensagens aos assinantes
func (s *State) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	s.broadcaster = b
	s.mu.Unlock()
}

// Record incorpora uma nova telemetria ao estado ao vivo. Em transição para
// risco alto grava o relatório, registra o alerta e notifica os assinantes
func (s *State) Record(t models.Telemetry) {
	var alert *models.AlertRecord
	if t.AlertTriggered {
		alert = s.buildAlert(t)
	}

	s.mu.Lock()
	copied := t
	s.latest = &copied

	s.history = append(s.history, t)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}

	if alert != nil {
		s.alerts = append(s.alerts, *alert)
		if len(s.alerts) > alertsLimit {
			s.alerts = s.alerts[len(s.alerts)-alertsLimit:]
		}
	}
	broadcaster := s.broadcaster
	s.mu.Unlock()

	if broadcaster != nil {
		broadcaster.BroadcastTelemetry(t)
		if alert != nil {
			broadcaster.BroadcastAlert(*alert)
		}
	}
}

// buildAlert monta o registro de alerta e grava o relatório em disco
func (s *State) buildAlert(t models.Telemetry) *models.AlertRecord {
	crop := t.CropType
	if crop == "" {
		crop = "unknown"
	}

	reportFile := ""
	if s.reports != nil {
		name, err := s.reports.WriteHighRisk(t)
		if err != nil {
			logger.Error("Erro ao gravar relatório de risco alto", err)
		} else {
			reportFile = name
			logger.Infof("Relatório de risco alto gravado: %s", name)
		}
	}

	return &models.AlertRecord{
		Timestamp:          t.Timestamp,
		Message:            fmt.Sprintf("🚨 HIGH RISK: %s - %s", crop, t.PredictedDisease),
		RiskLevel:          t.RiskLevel,
		RiskScore:          t.RiskScore,
		PredictedDisease:   t.PredictedDisease,
		DiseaseConfidence:  t.DiseaseConfidence,
		OutbreakETAHours:   t.OutbreakETAHours,
		OutbreakWindow:     t.OutbreakWindow,
		ForecastTrajectory: t.ForecastTrajectory,
		ReportFile:         reportFile,
	}
}

// Latest retorna a telemetria mais recente, ou nil se nada foi processado
func (s *State) Latest() *models.Telemetry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil
	}
	copied := *s.latest
	return &copied
}

// RecentAlerts retorna uma cópia dos últimos n alertas
func (s *State) RecentAlerts(n int) []models.AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.alerts) {
		n = len(s.alerts)
	}
	out := make([]models.AlertRecord, n)
	copy(out, s.alerts[len(s.alerts)-n:])
	return out
}

// Snapshot retorna uma cópia isolada do estado atual, limitada às janelas
// de histórico e alertas da visão de consulta
func (s *State) Snapshot() models.StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.StateSnapshot{}
	if s.latest != nil {
		copied := *s.latest
		snap.Latest = &copied
	}

	histStart := 0
	if len(s.history) > snapshotHistory {
		histStart = len(s.history) - snapshotHistory
	}
	snap.History = make([]models.Telemetry, len(s.history)-histStart)
	copy(snap.History, s.history[histStart:])

	alertStart := 0
	if len(s.alerts) > snapshotAlerts {
		alertStart = len(s.alerts) - snapshotAlerts
	}
	snap.Alerts = make([]models.AlertRecord, len(s.alerts)-alertStart)
	copy(snap.Alerts, s.alerts[alertStart:])

	return snap
}
