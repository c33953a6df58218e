package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"PracticeManager/cache"
	"PracticeManager/config"
	"PracticeManager/controllers"
	"PracticeManager/database"
	"PracticeManager/handlers"
	"PracticeManager/middlewares"
	"PracticeManager/repositories"
	"PracticeManager/services"
	"PracticeManager/storage"
	"PracticeManager/utils"
)

// Dependencies are the connections the HTTP server is built on.
type Dependencies struct {
	Config  *config.AppConfig
	Logger  zerolog.Logger
	DB      *gorm.DB
	Cache   *cache.Cache
	Objects storage.Store
	Emails  services.EmailQueue
}

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(deps Dependencies) (http.Handler, error) {
	if deps.Config.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	router.Use(middlewares.LoggingMiddleware(deps.Logger))
	router.Use(middlewares.Recovery())
	router.Use(middlewares.CorsMiddleware(middlewares.DefaultCorsConfig(deps.Config.CORSOrigins)))
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: deps.Config.RateLimitRPS,
		Burst:             deps.Config.RateLimitBurst,
	}))

	tokens, err := utils.NewTokenMaker(deps.Config.GetSymmetricKey())
	if err != nil {
		return nil, err
	}

	// Initialize repositories, services, and handlers
	store := repositories.NewStore(deps.DB)
	sessions := services.NewSessionStore(deps.Cache)
	log := deps.Logger

	authService := services.NewAuthService(store, sessions, tokens, utils.NewResetCodes(deps.Cache), deps.Emails, log)
	registrationService := services.NewRegistrationService(store, deps.Cache, deps.Emails, log)

	practice := controllers.PracticeHandlers{
		Patients:     handlers.NewPatientHandler(services.NewPatientService(store)),
		Files:        handlers.NewFileHandler(services.NewFileService(store, deps.Cache, log)),
		Notes:        handlers.NewNoteHandler(services.NewNoteService(store, deps.Objects, log)),
		Appointments: handlers.NewAppointmentHandler(services.NewAppointmentService(store)),
		Settings:     handlers.NewSettingsHandler(services.NewSettingsService(store, deps.Cache, deps.Objects, log)),
		Users:        handlers.NewUserHandler(services.NewUserService(store, sessions, deps.Emails, log)),
	}

	health := handlers.NewHealthHandler(map[string]handlers.Check{
		"database": func(ctx context.Context) error { return database.Ping(ctx, deps.DB) },
		"redis":    deps.Cache.Ping,
	})

	// Register routes
	authController := controllers.NewAuthController(handlers.NewAuthHandler(authService, registrationService), authService)
	authController.RegisterRoutes(router)
	controllers.SetupPracticeRoutes(router, authService, practice)
	controllers.SetupRootRoute(router, health)

	return router, nil
}
