package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"agro_go/internal/models"
	"agro_go/pkg/utils"
)

// Writer grava relatórios de risco alto em arquivos JSON no diretório configurado
type Writer struct {
	dir string
}

// NewWriter cria o diretório de relatórios se necessário
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("erro ao criar diretório de relatórios: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir retorna o diretório de destino dos relatórios
func (w *Writer) Dir() string {
	return w.dir
}

// WriteHighRisk grava a telemetria completa de um evento de risco alto e
// retorna o nome do arquivo gerado
func (w *Writer) WriteHighRisk(t models.Telemetry) (string, error) {
	stamp := utils.SanitizeTimestamp(t.Timestamp.UTC().Format("2006-01-02T15:04:05.000000-07:00"))
	filename := fmt.Sprintf("high_risk_%s.json", stamp)

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("erro ao serializar relatório: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("erro ao gravar relatório: %w", err)
	}
	return filename, nil
}
