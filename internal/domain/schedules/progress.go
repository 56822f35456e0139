package schedules

import (
	"math"
	"time"
)

const (
	// CompletionTarget: a partir de acá el avance se redondea a 100.
	CompletionTarget = 98.0
	MaxProgress      = 100.0
)

// ProgressKind identifica el motivo por el que no se pudo avanzar un schedule.
type ProgressKind string

const (
	KindOutOfWindow      ProgressKind = "OutOfWindow"
	KindAlreadyComplete  ProgressKind = "AlreadyComplete"
	KindInvalidWindow    ProgressKind = "InvalidWindow"
	KindProgressOverflow ProgressKind = "ProgressOverflow"
)

// ProgressError es el error del motor de progreso.
type ProgressError struct {
	Kind    ProgressKind
	Message string
}

func (e *ProgressError) Error() string { return e.Message }

// Is compara por Kind, así errors.Is funciona también con copias.
func (e *ProgressError) Is(target error) bool {
	t, ok := target.(*ProgressError)
	return ok && t.Kind == e.Kind
}

var (
	ErrOutOfWindow      = &ProgressError{Kind: KindOutOfWindow, Message: "schedule not yet started or already ended"}
	ErrAlreadyComplete  = &ProgressError{Kind: KindAlreadyComplete, Message: "progress already at 100%"}
	ErrInvalidWindow    = &ProgressError{Kind: KindInvalidWindow, Message: "schedule window is too short to track progress"}
	ErrProgressOverflow = &ProgressError{Kind: KindProgressOverflow, Message: "progress already at or beyond 100%"}
)

// AdvanceProgress calcula el nuevo progreso de s en el instante now.
// Es una función pura: persistir el resultado le toca al caller.
//
// La ventana facturable tiene un día menos que el rango de calendario, y el
// incremento se mide desde startDate (no desde la última actualización).
func AdvanceProgress(s Schedule, now time.Time) (float64, error) {
	if now.Before(s.StartDate) || now.After(s.EndDate) {
		return 0, ErrOutOfWindow
	}
	if s.Progress >= MaxProgress {
		return 0, ErrAlreadyComplete
	}

	totalDays := days(s.EndDate.Sub(s.StartDate)) - 1
	if totalDays <= 0 {
		return 0, ErrInvalidWindow
	}

	elapsedDays := days(now.Sub(s.StartDate))
	candidate := s.Progress + elapsedDays/totalDays*100

	next := round2(candidate)
	if candidate >= CompletionTarget {
		next = MaxProgress
	}

	if next > MaxProgress {
		return 0, ErrProgressOverflow
	}
	return next, nil
}

func days(d time.Duration) float64 {
	return float64(d) / float64(24*time.Hour)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
