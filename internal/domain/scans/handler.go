package scans

import (
	"errors"
	"io"
	"net/http"
	"time"

	"pill-tracker/internal/domain/pills"
	"pill-tracker/internal/domain/users"
	"pill-tracker/internal/middleware"
	"pill-tracker/internal/platform/logger"
	"pill-tracker/internal/platform/respond"
	"pill-tracker/internal/ports/prediction"

	"github.com/go-chi/chi/v5"
)

const imageField = "image"

// multipartOverhead cubre boundaries y headers del form además del archivo.
const multipartOverhead = 64 << 10

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(map[string]any{"module": "scans"})

	r.Route("/scans/{username}", func(sr chi.Router) {
		sr.Post("/", uploadScanHandler(svc, log))
		sr.Get("/", listScansHandler(svc, log))
	})
}

// scanResponse representa un scan guardado.
type scanResponse struct {
	ScanID      string    `json:"scanId"`
	Username    string    `json:"username"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	PillID      string    `json:"pillId,omitempty"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

type uploadScanResponse struct {
	Scan scanResponse `json:"scan"`
	Pill *pills.Pill  `json:"pill,omitempty"`
}

// uploadScanHandler godoc
// @Summary Escanear pill
// @Description Recibe una imagen (multipart, campo `image`; jpeg, png o webp), la envía al modelo de predicción y guarda el resultado. Si la etiqueta coincide con el catálogo se devuelve la pill.
// @Tags scans
// @Accept multipart/form-data
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username"
// @Param image formData file true "Imagen de la pill"
// @Success 201 {object} respond.Envelope{data=uploadScanResponse}
// @Failure 400 {object} respond.Envelope "falta la imagen"
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found"
// @Failure 413 {object} respond.Envelope "imagen demasiado grande"
// @Failure 415 {object} respond.Envelope "tipo no soportado"
// @Failure 502 {object} respond.Envelope "error del modelo"
// @Failure 503 {object} respond.Envelope "modelo no configurado"
// @Router /scans/{username} [post]
func uploadScanHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		username := chi.URLParam(r, "username")

		// Dueño primero: un tercero no llega a leer el cuerpo.
		if err := svc.Authorize(r.Context(), uid, username); err != nil {
			writeError(w, log, err, "An error occurred while scanning pill")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxBytes()+multipartOverhead)
		if err := r.ParseMultipartForm(svc.MaxBytes()); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				respond.Fail(w, http.StatusRequestEntityTooLarge, "Image is too large")
				return
			}
			respond.Fail(w, http.StatusBadRequest, "Request must be multipart/form-data with an image field")
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile(imageField)
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, "Please upload an image")
			return
		}
		defer file.Close()

		if header.Size > svc.MaxBytes() {
			respond.Fail(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, svc.MaxBytes()+1))
		if err != nil {
			respond.Fail(w, http.StatusBadRequest, "Could not read image")
			return
		}

		res, err := svc.Scan(r.Context(), uid, username, prediction.Image{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			writeError(w, log, err, "An error occurred while scanning pill")
			return
		}

		respond.Success(w, http.StatusCreated, "Scan completed successfully", uploadScanResponse{
			Scan: toScanResponse(res.Scan),
			Pill: res.Pill,
		})
	}
}

// listScansHandler godoc
// @Summary Historial de scans
// @Description Devuelve los scans del usuario, más nuevos primero.
// @Tags scans
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username"
// @Success 200 {object} respond.Envelope{data=[]scanResponse}
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found"
// @Router /scans/{username} [get]
func listScansHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := svc.History(r.Context(), uid, chi.URLParam(r, "username"))
		if err != nil {
			writeError(w, log, err, "An error occurred while getting scan history")
			return
		}

		out := make([]scanResponse, 0, len(items))
		for _, sc := range items {
			out = append(out, toScanResponse(sc))
		}
		respond.Success(w, http.StatusOK, "Scan history retrieved successfully", out)
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error, internalMsg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTooLarge):
		respond.Fail(w, http.StatusRequestEntityTooLarge, "Image is too large")
	case errors.Is(err, ErrUnsupportedType):
		respond.Fail(w, http.StatusUnsupportedMediaType, "Only jpeg, png or webp images are supported")
	case errors.Is(err, users.ErrNotFound):
		respond.Fail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, users.ErrForbidden):
		respond.Fail(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, prediction.ErrNotConfigured):
		respond.Fail(w, http.StatusServiceUnavailable, "Pill scanning is not available")
	case errors.Is(err, prediction.ErrUpstream):
		log.Warn("prediction upstream", map[string]any{"error": err})
		respond.Fail(w, http.StatusBadGateway, "Prediction model failed, try again later")
	default:
		log.Error(internalMsg, map[string]any{"error": err})
		respond.Fail(w, http.StatusInternalServerError, internalMsg, err.Error())
	}
}

func toScanResponse(sc Scan) scanResponse {
	return scanResponse{
		ScanID:      sc.ID,
		Username:    sc.Username,
		Label:       sc.Label,
		Confidence:  sc.Confidence,
		PillID:      sc.PillID,
		FileName:    sc.FileName,
		ContentType: sc.ContentType,
		Size:        sc.Size,
		CreatedAt:   sc.CreatedAt,
	}
}
