package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDuration formata uma duração para exibição amigável
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour

	m := d / time.Minute
	d -= m * time.Minute

	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDateTime formata um time.Time para exibição
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// SanitizeTimestamp converte um timestamp ISO-8601 em um fragmento seguro
// para nomes de arquivo (dois-pontos, sinais de mais e pontos são substituídos)
func SanitizeTimestamp(timestamp string) string {
	replacer := strings.NewReplacer(
		":", "-",
		"+", "_plus_",
		".", "_",
	)
	return replacer.Replace(timestamp)
}

// ParseTimestamp interpreta um timestamp em diferentes formatos
func ParseTimestamp(timestamp string) (time.Time, error) {
	// Tentar interpretar como timestamp Unix (segundos ou milissegundos)
	if sec, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		if sec > 1000000000000 {
			return time.Unix(0, sec*int64(time.Millisecond)), nil
		}
		return time.Unix(sec, 0), nil
	}

	// Tentar formatos comuns
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02T15:04:05.999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, timestamp); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("formato de timestamp não reconhecido: %s", timestamp)
}
