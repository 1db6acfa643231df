package reports

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agro_go/internal/models"
)

func TestWriteHighRisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "relatorios")
	writer, err := NewWriter(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, writer.Dir())

	telemetry := models.Telemetry{}
	telemetry.Timestamp = time.Date(2026, 5, 10, 8, 30, 0, 123456000, time.UTC)
	telemetry.CropType = "tomato"
	telemetry.RiskScore = 92
	telemetry.RiskLevel = models.RiskHigh
	telemetry.PredictedDisease = "Early blight (Alternaria) risk"

	filename, err := writer.WriteHighRisk(telemetry)
	require.NoError(t, err)

	// O nome do arquivo deriva do timestamp saneado
	assert.Equal(t, "high_risk_2026-05-10T08-30-00_123456_plus_00-00.json", filename)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "tomato", decoded["crop_type"])
	assert.Equal(t, float64(92), decoded["risk_score"])
	assert.Equal(t, models.RiskHigh, decoded["risk_level"])
}

func TestNewWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	_, err := NewWriter(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
