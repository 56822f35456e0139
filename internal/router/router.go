package router

import (
	"net/http"
	"time"

	_ "pill-tracker/docs"
	"pill-tracker/internal/adapters/storage/documents"
	mem "pill-tracker/internal/adapters/storage/memory"
	"pill-tracker/internal/domain/pills"
	"pill-tracker/internal/domain/scans"
	"pill-tracker/internal/domain/schedules"
	"pill-tracker/internal/domain/users"
	"pill-tracker/internal/middleware"
	"pill-tracker/internal/platform/logger"
	"pill-tracker/internal/platform/respond"
	"pill-tracker/internal/ports/auth"
	"pill-tracker/internal/ports/docstore"
	"pill-tracker/internal/ports/identity"
	"pill-tracker/internal/ports/prediction"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, in-memory.
	Store docstore.Store

	Identity  identity.Directory   // nil => NopDirectory
	Predictor prediction.Predictor // nil => scans responden 503
	Logger    logger.Logger

	// Now reemplaza el reloj del motor de progreso (tests).
	Now func() time.Time

	AppName       string
	Environment   string
	HomePillCount int
	ScanMaxBytes  int64
}

// App expone el handler y los servicios que usan los jobs de arranque.
type App struct {
	Handler   http.Handler
	Users     *users.Service
	Pills     *pills.Service
	Schedules *schedules.Service
	Scans     *scans.Service
}

func NewRouter(opts Options) http.Handler {
	return Build(opts).Handler
}

func Build(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	store := opts.Store
	if store == nil {
		store = mem.NewStore()
	}
	appName := opts.AppName
	if appName == "" {
		appName = "pill-tracker"
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.Success(w, http.StatusOK, "ok", nil)
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		respond.Success(w, http.StatusOK, "Welcome to "+appName, map[string]any{
			"name":        appName,
			"environment": opts.Environment,
			"docs":        "/swagger/index.html",
		})
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Repos sobre el document store
	usersRepo := documents.NewUsersRepo(store)
	pillsRepo := documents.NewPillsRepo(store)
	schedulesRepo := documents.NewSchedulesRepo(store)
	scansRepo := documents.NewScansRepo(store)

	// Services por módulo
	usersSvc := users.NewService(usersRepo, opts.Identity)
	pillsSvc := pills.NewService(pillsRepo, opts.HomePillCount)
	schedulesSvc := schedules.NewService(schedulesRepo, usersSvc).WithClock(opts.Now)
	scansSvc := scans.NewService(scansRepo, usersSvc, opts.Predictor, pillsSvc, opts.ScanMaxBytes)

	// Borrar la cuenta arrastra schedules y scans.
	usersSvc.AddDataOwner(schedulesSvc)
	usersSvc.AddDataOwner(scansSvc)

	// Rutas por módulo
	pills.RegisterRoutes(r, pillsSvc, log)
	users.RegisterRoutes(r, usersSvc, log)
	schedules.RegisterRoutes(r, schedulesSvc, log)
	scans.RegisterRoutes(r, scansSvc, log)

	return &App{
		Handler:   r,
		Users:     usersSvc,
		Pills:     pillsSvc,
		Schedules: schedulesSvc,
		Scans:     scansSvc,
	}
}
