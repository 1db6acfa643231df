package stream

import (
	"context"
	"fmt"

	"agro_go/internal/models"
)

// ConnectionError indica falha na conexão ou na leitura de uma fonte de stream
type ConnectionError struct {
	Source string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("erro na fonte %s: %v", e.Source, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Source é uma fonte de eventos de sensores. ReadEvents devolve um canal que
// é fechado quando a fonte termina; Err reporta a causa do fechamento, nil
// significa término limpo
type Source interface {
	Connect(ctx context.Context) error
	ReadEvents(ctx context.Context) (<-chan models.RawEvent, error)
	Err() error
	Close() error
}

// Tamanho do buffer dos canais de eventos das fontes
const sourceBufferSize = 100
