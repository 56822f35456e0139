package schedules

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pill-tracker/internal/domain/users"
	"pill-tracker/internal/middleware"
	"pill-tracker/internal/platform/logger"
	"pill-tracker/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(map[string]any{"module": "schedules"})

	r.Route("/schedule/{username}", func(sr chi.Router) {
		sr.Post("/", createScheduleHandler(svc, log))
		sr.Get("/", listSchedulesHandler(svc, log))
		sr.Put("/{scheduleID}", advanceProgressHandler(svc, log))
		sr.Delete("/{scheduleID}", deleteScheduleHandler(svc, log))
	})
}

// createScheduleRequest es el cuerpo para registrar un schedule.
type createScheduleRequest struct {
	Title     string `json:"title"`
	Receptor  string `json:"receptor"`
	PillName  string `json:"pillName"`
	Dosage    string `json:"dosage"`
	StartTime string `json:"startTime"`                      // HH:MM
	StartDate string `json:"startDate" example:"2024-06-01"` // YYYY-MM-DD o RFC3339
	EndDate   string `json:"endDate" example:"2024-06-11"`   // YYYY-MM-DD o RFC3339
	Note      string `json:"note"`
}

// scheduleResponse representa un schedule devuelto por la API.
type scheduleResponse struct {
	ScheduleID string    `json:"scheduleId"`
	Username   string    `json:"username"`
	Title      string    `json:"title"`
	Receptor   string    `json:"receptor"`
	PillName   string    `json:"pillName"`
	Dosage     string    `json:"dosage"`
	StartTime  string    `json:"startTime"`
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate"`
	Note       string    `json:"note"`
	Progress   float64   `json:"progress"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// createScheduleHandler godoc
// @Summary Crear schedule
// @Description Registra un schedule de medicación para el usuario de la ruta con progreso 0. El usuario autenticado debe ser el dueño del username.
// @Tags schedules
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username del dueño"
// @Param payload body createScheduleRequest true "Datos del schedule"
// @Success 201 {object} respond.Envelope{data=scheduleResponse}
// @Failure 400 {object} respond.Envelope "invalid json / fechas inválidas"
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found"
// @Router /schedule/{username} [post]
func createScheduleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req createScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Fail(w, http.StatusBadRequest, "invalid json")
			return
		}

		sc, err := svc.Create(r.Context(), uid, chi.URLParam(r, "username"), CreateInput{
			Title:     req.Title,
			Receptor:  req.Receptor,
			PillName:  req.PillName,
			Dosage:    req.Dosage,
			StartTime: req.StartTime,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Note:      req.Note,
		})
		if err != nil {
			writeError(w, log, err, "An error occurred while adding schedule")
			return
		}

		respond.Success(w, http.StatusCreated, "Success add schedule", toScheduleResponse(sc))
	}
}

// listSchedulesHandler godoc
// @Summary Listar schedules
// @Description Lista los schedules del usuario de la ruta, ordenados por fecha de inicio.
// @Tags schedules
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username del dueño"
// @Success 200 {object} respond.Envelope{data=[]scheduleResponse}
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found"
// @Router /schedule/{username} [get]
func listSchedulesHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := svc.List(r.Context(), uid, chi.URLParam(r, "username"))
		if err != nil {
			writeError(w, log, err, "An error occurred while getting schedules")
			return
		}

		out := make([]scheduleResponse, 0, len(items))
		for _, sc := range items {
			out = append(out, toScheduleResponse(sc))
		}
		respond.Success(w, http.StatusOK, "Success get schedules", out)
	}
}

// advanceProgressHandler godoc
// @Summary Actualizar progreso
// @Description Recalcula el progreso del schedule según el tiempo transcurrido en su ventana. Al llegar a 98% se completa en 100%. El progreso nunca decrece.
// @Tags schedules
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username del dueño"
// @Param scheduleID path string true "ID del schedule"
// @Success 200 {object} respond.Envelope{data=scheduleResponse}
// @Failure 400 {object} respond.Envelope "fuera de ventana / ya completo / ventana inválida"
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found / Schedule not found"
// @Failure 409 {object} respond.Envelope "modificado concurrentemente"
// @Router /schedule/{username}/{scheduleID} [put]
func advanceProgressHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		sc, err := svc.AdvanceProgress(r.Context(), uid, chi.URLParam(r, "username"), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeError(w, log, err, "An error occurred while updating progress")
			return
		}

		respond.Success(w, http.StatusOK, "Progress updated successfully", toScheduleResponse(sc))
	}
}

// deleteScheduleHandler godoc
// @Summary Borrar schedule
// @Description Borra un schedule del usuario de la ruta.
// @Tags schedules
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username del dueño"
// @Param scheduleID path string true "ID del schedule"
// @Success 200 {object} respond.Envelope
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found / Schedule not found"
// @Router /schedule/{username}/{scheduleID} [delete]
func deleteScheduleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		err := svc.Delete(r.Context(), uid, chi.URLParam(r, "username"), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeError(w, log, err, "Error deleting schedule")
			return
		}

		respond.Success(w, http.StatusOK, "Schedule deleted successfully", nil)
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error, internalMsg string) {
	var perr *ProgressError
	switch {
	case errors.As(err, &perr):
		respond.Fail(w, http.StatusBadRequest, perr.Message)
	case errors.Is(err, ErrInvalidInput):
		respond.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, users.ErrNotFound):
		respond.Fail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, users.ErrForbidden):
		respond.Fail(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, ErrNotFound):
		respond.Fail(w, http.StatusNotFound, "Schedule not found")
	case errors.Is(err, ErrForbidden):
		respond.Fail(w, http.StatusForbidden, "You are not allowed to modify this schedule")
	case errors.Is(err, ErrConflict):
		respond.Fail(w, http.StatusConflict, "Schedule was updated concurrently, retry")
	default:
		log.Error(internalMsg, map[string]any{"error": err})
		respond.Fail(w, http.StatusInternalServerError, internalMsg, err.Error())
	}
}

func toScheduleResponse(sc Schedule) scheduleResponse {
	return scheduleResponse{
		ScheduleID: sc.ID,
		Username:   sc.Username,
		Title:      sc.Title,
		Receptor:   sc.Receptor,
		PillName:   sc.PillName,
		Dosage:     sc.Dosage,
		StartTime:  sc.StartTime,
		StartDate:  sc.StartDateString(),
		EndDate:    sc.EndDateString(),
		Note:       sc.Note,
		Progress:   sc.Progress,
		CreatedAt:  sc.CreatedAt,
		UpdatedAt:  sc.UpdatedAt,
	}
}
