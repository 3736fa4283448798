package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"timelog/internal/handler"
	"timelog/internal/metrics"
	"timelog/internal/middleware"
	"timelog/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	activityHandler *handler.ActivityHandler,
	sessionHandler *handler.SessionHandler,
	logger *slog.Logger,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := engine.Group("/api")
	api.POST("/auth/token", authHandler.Token)

	activities := api.Group("/activities")
	activities.Use(middleware.Auth(authService))
	activities.GET("", activityHandler.List)
	activities.POST("", activityHandler.Create)
	activities.GET("/:id", activityHandler.Get)
	activities.PUT("/:id", activityHandler.Update)
	activities.DELETE("/:id", activityHandler.Delete)

	sessions := api.Group("/sessions")
	sessions.Use(middleware.Auth(authService))
	sessions.GET("", sessionHandler.List)
	sessions.POST("/manual", sessionHandler.CreateManual)
	sessions.POST("/timer/start", sessionHandler.Start)
	sessions.GET("/timer/current", sessionHandler.Current)
	sessions.POST("/:id/stop", sessionHandler.Stop)
	sessions.POST("/:id/pause", sessionHandler.Pause)
	sessions.POST("/:id/resume", sessionHandler.Resume)
	sessions.POST("/:id/heartbeat", sessionHandler.Heartbeat)
	sessions.POST("/:id/recover", sessionHandler.Recover)
	sessions.DELETE("/:id/timer", sessionHandler.Discard)
	sessions.DELETE("/:id", sessionHandler.Delete)

	return engine
}
