package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrPreconditionFailed = errors.New("document precondition failed")
	ErrAlreadyExists      = errors.New("document already exists")
)

// Document es un registro de una colección. Data siempre está normalizado
// a tipos JSON (string, float64, bool, nil, []any, map[string]any).
type Document struct {
	ID   string
	Data map[string]any
}

// Filter es una igualdad sobre un campo de primer nivel.
type Filter struct {
	Field string
	Value any
}

// Precondition condiciona un Update: el campo debe valer Equals al momento de escribir.
type Precondition struct {
	Field  string
	Equals any
}

// Store es el document store: colecciones direccionables por id con filtros de igualdad.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	// Find devuelve todos los documentos que cumplen todos los filtros (todos si no hay filtros).
	Find(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Create inserta el documento solo si el id no existe en la colección;
	// si existe devuelve ErrAlreadyExists sin tocarlo. Es atómico por id.
	Create(ctx context.Context, collection, id string, data map[string]any) error
	// Set crea o reemplaza el documento completo.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update mezcla fields sobre el documento existente.
	Update(ctx context.Context, collection, id string, fields map[string]any, conds ...Precondition) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// Normalize pasa un map por JSON para que todos los backends comparen los mismos tipos.
func Normalize(data map[string]any) (map[string]any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return out, nil
}

// Equal compara dos valores por su forma JSON (0 y 0.0 son iguales).
func Equal(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Matches indica si data cumple todos los filtros.
func Matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !Equal(v, f.Value) {
			return false
		}
	}
	return true
}

// Satisfies indica si data cumple todas las precondiciones.
func Satisfies(data map[string]any, conds []Precondition) bool {
	for _, c := range conds {
		if !Equal(data[c.Field], c.Equals) {
			return false
		}
	}
	return true
}

// Merge aplica fields sobre una copia de data.
func Merge(data, fields map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(fields))
	for k, v := range data {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Encode convierte un struct con tags json a un documento.
func Encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	return out, nil
}

// Decode llena v (puntero a struct con tags json) desde un documento.
func Decode(doc Document, v any) error {
	b, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("docstore: decode %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("docstore: decode %s: %w", doc.ID, err)
	}
	return nil
}
