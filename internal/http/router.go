package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/observability"
)

const serviceName = "todohub-api"

// Deps is everything the router wires together. Prom and Gatherer are
// optional; without them /metrics is not mounted.
type Deps struct {
	Config          config.Config
	Logger          *slog.Logger
	Auth            handlers.AuthUseCase
	Tasks           handlers.TaskUseCase
	Sessions        middlewares.SessionResolver
	Prom            *observability.Prom
	Gatherer        prometheus.Gatherer
	ReadinessChecks []handlers.ReadinessCheck
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Config.IsProd()))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	sessions := middlewares.NewSessionMiddleware(d.Sessions, d.Config.SessionCookieName, log)
	r.Use(sessions.Load())
	// after Load so user_id can be logged
	r.Use(middlewares.RequestLogger(log))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	// health
	h := handlers.NewHealthHandler(d.ReadinessChecks...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(d.Auth, handlers.CookieConfig{
		Name:   d.Config.SessionCookieName,
		Secure: d.Config.IsProd(),
	}, log)

	authGroup := r.Group("/auth", middlewares.RequireJSON())
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", sessions.RequireSession(), authHandler.Me)

	tasksHandler := handlers.NewTasksHandler(d.Tasks, log)

	tasks := r.Group("/tasks", sessions.RequireSession(), middlewares.RequireJSON())
	tasks.GET("", tasksHandler.ListTasks)
	tasks.POST("", tasksHandler.CreateTask)
	tasks.GET("/:id", tasksHandler.GetTask)
	tasks.PUT("/:id", tasksHandler.UpdateTask)
	tasks.DELETE("/:id", tasksHandler.DeleteTask)

	return r
}
