package scans

import "time"

// Scan es el resultado de una predicción sobre una imagen subida.
// La imagen en sí no se guarda.
type Scan struct {
	ID       string
	Username string

	Label      string
	Confidence float64
	PillID     string // vacío si la etiqueta no coincide con el catálogo

	FileName    string
	ContentType string
	Size        int64

	CreatedAt time.Time
}
