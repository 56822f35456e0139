package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pill-tracker/internal/middleware"
	"pill-tracker/internal/platform/logger"
	"pill-tracker/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(map[string]any{"module": "users"})

	r.Post("/users/profile", provisionProfileHandler(svc, log))
	r.Get("/{username}/profile", getProfileHandler(svc, log))
	r.Put("/{username}/profile", updateProfileHandler(svc, log))
	r.Delete("/users/{username}/profile", deleteProfileHandler(svc, log))
}

// provisionProfileRequest crea el perfil del usuario autenticado.
type provisionProfileRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Gender   string `json:"gender" enums:"male,female"`
}

// updateProfileRequest: campos vacíos o ausentes no se modifican.
type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender" enums:"male,female"`
	Email    string `json:"email"`
}

// userResponse representa el perfil devuelto por la API.
type userResponse struct {
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	FullName      string    `json:"fullName"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	Gender        Gender    `json:"gender,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// provisionProfileHandler godoc
// @Summary Crear perfil
// @Description Crea el perfil del usuario autenticado (uid del token). El username es único.
// @Tags users
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body provisionProfileRequest true "Datos del perfil"
// @Success 201 {object} respond.Envelope{data=userResponse}
// @Failure 400 {object} respond.Envelope "invalid json / validación"
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 409 {object} respond.Envelope "username tomado / perfil existente"
// @Router /users/profile [post]
func provisionProfileHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.UserID == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req provisionProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Fail(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, err := svc.Provision(r.Context(), claims.UserID, claims.Email, ProvisionInput{
			Username: req.Username,
			FullName: req.FullName,
			Phone:    req.Phone,
			Address:  req.Address,
			Gender:   req.Gender,
		})
		if err != nil {
			writeError(w, log, err, "An error occurred while creating user profile")
			return
		}

		respond.Success(w, http.StatusCreated, "Profile created successfully", toUserResponse(u))
	}
}

// getProfileHandler godoc
// @Summary Obtener perfil
// @Description Devuelve el perfil del username si pertenece al usuario autenticado.
// @Tags users
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username"
// @Success 200 {object} respond.Envelope{data=userResponse}
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found"
// @Router /{username}/profile [get]
func getProfileHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		u, err := svc.Get(r.Context(), uid, chi.URLParam(r, "username"))
		if err != nil {
			writeError(w, log, err, "An error occurred while getting user profile")
			return
		}

		respond.Success(w, http.StatusOK, "Profile retrieved successfully", toUserResponse(u))
	}
}

// updateProfileHandler godoc
// @Summary Actualizar perfil
// @Description Update parcial de fullName, address, phone y gender. Un email distinto se envía al identity provider y queda pendiente de verificación.
// @Tags users
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username"
// @Param payload body updateProfileRequest true "Campos a modificar"
// @Success 200 {object} respond.Envelope{data=userResponse}
// @Failure 400 {object} respond.Envelope "invalid json / validación"
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found"
// @Router /{username}/profile [put]
func updateProfileHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Fail(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, res, err := svc.UpdateProfile(r.Context(), uid, chi.URLParam(r, "username"), UpdateInput{
			FullName: req.FullName,
			Address:  req.Address,
			Phone:    req.Phone,
			Gender:   req.Gender,
			Email:    req.Email,
		})
		if err != nil {
			writeError(w, log, err, "An error occurred while updating user profile")
			return
		}

		msg := "Profile updated successfully"
		switch {
		case !res.Changed:
			msg = "Profile unchanged, no data to update"
		case res.EmailChanged:
			msg = "Profile updated successfully, check your email to verify"
		}
		respond.Success(w, http.StatusOK, msg, toUserResponse(u))
	}
}

// deleteProfileHandler godoc
// @Summary Borrar cuenta
// @Description Borra el perfil junto con sus schedules e historial de scans.
// @Tags users
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param username path string true "Username"
// @Success 200 {object} respond.Envelope
// @Failure 401 {object} respond.Envelope "unauthorized"
// @Failure 403 {object} respond.Envelope "Not allowed"
// @Failure 404 {object} respond.Envelope "User not found"
// @Router /users/{username}/profile [delete]
func deleteProfileHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r)
		if uid == "" {
			respond.Fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := svc.Delete(r.Context(), uid, chi.URLParam(r, "username")); err != nil {
			writeError(w, log, err, "An error occurred while deleting user")
			return
		}

		respond.Success(w, http.StatusOK, "User and associated data deleted successfully", nil)
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error, internalMsg string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.Fail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrForbidden):
		respond.Fail(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrAlreadyProvisioned):
		respond.Fail(w, http.StatusConflict, err.Error())
	default:
		log.Error(internalMsg, map[string]any{"error": err})
		respond.Fail(w, http.StatusInternalServerError, internalMsg, err.Error())
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		UserID:        u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Address:       u.Address,
		Gender:        u.Gender,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
