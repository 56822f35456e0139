package schedules

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("schedule not found")
	// ErrConflict: el progreso cambió entre la lectura y la escritura.
	ErrConflict = errors.New("schedule was modified concurrently")
)

type Repository interface {
	Create(ctx context.Context, s Schedule) error
	GetByID(ctx context.Context, id string) (Schedule, error)
	ListByUsername(ctx context.Context, username string) ([]Schedule, error)

	// UpdateProgress escribe next sólo si el valor guardado sigue siendo expected.
	UpdateProgress(ctx context.Context, id string, expected, next float64, at time.Time) error

	Delete(ctx context.Context, id string) error
	DeleteByUsername(ctx context.Context, username string) (int, error)
}
