package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/transport/http/handlers"
	"github.com/arklim/social-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	PasswordReset *usecase.PasswordResetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Metrics  *middleware.HTTPMetrics
	Services ServiceSet
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS([]string{deps.Config.Frontend.URL}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthHandler := handlers.NewHealthHandler()
	r.GET("/healthz", healthHandler.Status)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")

		secureCookies := deps.Config.App.Env == "production"
		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Config.Redis.SessionTTL, secureCookies)
		authHandler.RegisterRoutes(authGroup)

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration)
		registrationHandler.RegisterRoutes(authGroup)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)
		passwordHandler.RegisterRoutes(authGroup)
	}

	return r
}
