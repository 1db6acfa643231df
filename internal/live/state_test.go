package live

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro_go/internal/models"
)

// fakeBroadcaster registra as mensagens distribuídas para verificação
type fakeBroadcaster struct {
	mu        sync.Mutex
	telemetry []models.Telemetry
	alerts    []models.AlertRecord
}

func (b *fakeBroadcaster) BroadcastTelemetry(t models.Telemetry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.telemetry = append(b.telemetry, t)
}

func (b *fakeBroadcaster) BroadcastAlert(a models.AlertRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, a)
}

// fakeReportWriter simula a gravação de relatórios sem tocar no disco
type fakeReportWriter struct {
	written int
	fail    bool
}

func (w *fakeReportWriter) WriteHighRisk(t models.Telemetry) (string, error) {
	if w.fail {
		return "", errors.New("disco cheio")
	}
	w.written++
	return fmt.Sprintf("high_risk_%d.json", w.written), nil
}

func telemetryWithScore(score int, alert bool) models.Telemetry {
	t := models.Telemetry{}
	t.Timestamp = time.Now().UTC()
	t.CropType = "tomato"
	t.RiskScore = score
	t.RiskLevel = models.RiskHigh
	t.PredictedDisease = "Early blight (Alternaria) risk"
	t.AlertTriggered = alert
	t.IngestionMode = "file"
	return t
}

func TestRecordUpdatesLatest(t *testing.T) {
	state := NewState(nil)

	require.Nil(t, state.Latest())

	state.Record(telemetryWithScore(42, false))

	latest := state.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, 42, latest.RiskScore)

	// A cópia devolvida não afeta o estado interno
	latest.RiskScore = 99
	assert.Equal(t, 42, state.Latest().RiskScore)
}

func TestHistoryBounded(t *testing.T) {
	state := NewState(nil)

	for i := 0; i < historyLimit+50; i++ {
		state.Record(telemetryWithScore(i, false))
	}

	snap := state.Snapshot()
	require.Len(t, snap.History, snapshotHistory)

	// O histórico retém as entradas mais recentes em ordem de chegada
	last := snap.History[len(snap.History)-1]
	assert.Equal(t, historyLimit+49, last.RiskScore)
}

func TestAlertOnlyWhenTriggered(t *testing.T) {
	state := NewState(&fakeReportWriter{})

	state.Record(telemetryWithScore(80, false))
	assert.Empty(t, state.RecentAlerts(10))

	state.Record(telemetryWithScore(85, true))
	alerts := state.RecentAlerts(10)
	require.Len(t, alerts, 1)

	assert.Equal(t, "🚨 HIGH RISK: tomato - Early blight (Alternaria) risk", alerts[0].Message)
	assert.Equal(t, "high_risk_1.json", alerts[0].ReportFile)
	assert.Equal(t, 85, alerts[0].RiskScore)
}

func TestAlertCropFallback(t *testing.T) {
	state := NewState(nil)

	telemetry := telemetryWithScore(85, true)
	telemetry.CropType = ""
	state.Record(telemetry)

	alerts := state.RecentAlerts(1)
	require.Len(t, alerts, 1)
	assert.Equal(t, "🚨 HIGH RISK: unknown - Early blight (Alternaria) risk", alerts[0].Message)
}

func TestAlertsBounded(t *testing.T) {
	state := NewState(nil)

	for i := 0; i < alertsLimit+30; i++ {
		telemetry := telemetryWithScore(i, true)
		state.Record(telemetry)
	}

	alerts := state.RecentAlerts(alertsLimit + 30)
	assert.Len(t, alerts, alertsLimit)

	snap := state.Snapshot()
	assert.Len(t, snap.Alerts, snapshotAlerts)
	assert.Equal(t, alertsLimit+29, snap.Alerts[len(snap.Alerts)-1].RiskScore)
}

func TestReportFailureDoesNotBlockAlert(t *testing.T) {
	state := NewState(&fakeReportWriter{fail: true})

	state.Record(telemetryWithScore(90, true))

	alerts := state.RecentAlerts(1)
	require.Len(t, alerts, 1)
	assert.Empty(t, alerts[0].ReportFile)
}

func TestBroadcastOnRecord(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	state := NewState(nil)
	state.SetBroadcaster(broadcaster)

	state.Record(telemetryWithScore(30, false))
	state.Record(telemetryWithScore(85, true))

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	assert.Len(t, broadcaster.telemetry, 2)
	require.Len(t, broadcaster.alerts, 1)
	assert.Equal(t, 85, broadcaster.alerts[0].RiskScore)
}

func TestSnapshotIsolation(t *testing.T) {
	state := NewState(nil)
	state.Record(telemetryWithScore(10, false))
	state.Record(telemetryWithScore(20, true))

	snap := state.Snapshot()
	require.NotNil(t, snap.Latest)
	require.Len(t, snap.History, 2)
	require.Len(t, snap.Alerts, 1)

	// Mutações no snapshot não vazam para o estado
	snap.History[0].RiskScore = 999
	snap.Alerts[0].RiskScore = 999
	snap.Latest.RiskScore = 999

	fresh := state.Snapshot()
	assert.Equal(t, 10, fresh.History[0].RiskScore)
	assert.Equal(t, 20, fresh.Alerts[0].RiskScore)
	assert.Equal(t, 20, fresh.Latest.RiskScore)
}
