package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope es la forma común de todas las respuestas:
// {status, message, data?, error?}.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON es el único punto que escribe respuestas.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Success(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// Fail responde un error. detail es opcional (se usa para 500 con la causa resumida).
func Fail(w http.ResponseWriter, status int, message string, detail ...string) {
	env := Envelope{
		Status:  status,
		Message: message,
	}
	if len(detail) > 0 {
		env.Error = detail[0]
	}
	writeJSON(w, status, env)
}
