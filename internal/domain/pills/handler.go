package pills

import (
	"errors"
	"net/http"

	"pill-tracker/internal/platform/logger"
	"pill-tracker/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

// Rutas públicas: el catálogo no requiere auth.
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(map[string]any{"module": "pills"})

	r.Get("/home", homeHandler(svc, log))
	r.Get("/search", searchHandler(svc, log))
	r.Get("/category", categoriesHandler(svc, log))
	r.Get("/pills/{pillID}", getPillHandler(svc, log))
}

type homeResponse struct {
	Pills      []Pill         `json:"pills"`
	Categories []categoryName `json:"categories"`
}

type categoryName struct {
	Name string `json:"name"`
}

// homeHandler godoc
// @Summary Dashboard
// @Description Devuelve una selección al azar de pills y los nombres de las categorías.
// @Tags pills
// @Produce json
// @Success 200 {object} respond.Envelope{data=homeResponse}
// @Failure 500 {object} respond.Envelope
// @Router /home [get]
func homeHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Home(r.Context())
		if err != nil {
			log.Error("home data", map[string]any{"error": err})
			respond.Fail(w, http.StatusInternalServerError, "An error occurred while fetching dashboard data", err.Error())
			return
		}

		cats := make([]categoryName, 0, len(data.Categories))
		for _, n := range data.Categories {
			cats = append(cats, categoryName{Name: n})
		}
		pills := data.Pills
		if pills == nil {
			pills = []Pill{}
		}
		respond.Success(w, http.StatusOK, "Dashboard data retrieved successfully", homeResponse{
			Pills:      pills,
			Categories: cats,
		})
	}
}

// searchHandler godoc
// @Summary Buscar pills
// @Description Búsqueda aproximada por nombre (tolera errores de tipeo), opcionalmente filtrada por categoría.
// @Tags pills
// @Produce json
// @Param name query string true "Nombre a buscar"
// @Param category query string false "Nombre exacto de la categoría"
// @Success 200 {object} respond.Envelope{data=[]Pill}
// @Failure 400 {object} respond.Envelope "falta name"
// @Failure 404 {object} respond.Envelope "Pill not found"
// @Router /search [get]
func searchHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.Search(r.Context(), q.Get("name"), q.Get("category"))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				respond.Fail(w, http.StatusBadRequest, "Please enter a word to search for a pill")
			case errors.Is(err, ErrNotFound):
				respond.Fail(w, http.StatusNotFound, "Pill not found")
			default:
				log.Error("search pills", map[string]any{"error": err})
				respond.Fail(w, http.StatusInternalServerError, "An error occurred while searching pill", err.Error())
			}
			return
		}

		respond.Success(w, http.StatusOK, "Pill search successful", items)
	}
}

// categoriesHandler godoc
// @Summary Listar categorías
// @Tags pills
// @Produce json
// @Success 200 {object} respond.Envelope{data=[]Category}
// @Failure 500 {object} respond.Envelope
// @Router /category [get]
func categoriesHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := svc.Categories(r.Context())
		if err != nil {
			log.Error("list categories", map[string]any{"error": err})
			respond.Fail(w, http.StatusInternalServerError, "Failed to get categories", err.Error())
			return
		}
		respond.Success(w, http.StatusOK, "Categories retrieved successfully", cats)
	}
}

// getPillHandler godoc
// @Summary Detalle de pill
// @Tags pills
// @Produce json
// @Param pillID path string true "ID de la pill"
// @Success 200 {object} respond.Envelope{data=Pill}
// @Failure 404 {object} respond.Envelope "Pill not found"
// @Router /pills/{pillID} [get]
func getPillHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Get(r.Context(), chi.URLParam(r, "pillID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respond.Fail(w, http.StatusNotFound, "Pill not found")
				return
			}
			log.Error("get pill", map[string]any{"error": err})
			respond.Fail(w, http.StatusInternalServerError, "Error while getting pill details", err.Error())
			return
		}
		respond.Success(w, http.StatusOK, "Pill details retrieved successfully", p)
	}
}
