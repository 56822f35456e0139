package prediction

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("prediction model not configured")
	ErrUpstream      = errors.New("prediction model upstream error")
)

// Image es la imagen subida por el usuario; nunca se persiste.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Result struct {
	Label      string
	Confidence float64
}

// Predictor reenvía una imagen a un modelo externo y devuelve su predicción.
type Predictor interface {
	Predict(ctx context.Context, img Image) (Result, error)
}

// Unavailable responde siempre ErrNotConfigured (PREDICTOR=none).
type Unavailable struct{}

func (Unavailable) Predict(context.Context, Image) (Result, error) {
	return Result{}, ErrNotConfigured
}
