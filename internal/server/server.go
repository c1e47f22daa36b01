package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/smallbiznis/lpt/internal/auth/domain"
	"github.com/smallbiznis/lpt/internal/auth/session"
	chatdomain "github.com/smallbiznis/lpt/internal/chat/domain"
	completiondomain "github.com/smallbiznis/lpt/internal/completion/domain"
	"github.com/smallbiznis/lpt/internal/config"
	"github.com/smallbiznis/lpt/internal/modelregistry"
	"github.com/smallbiznis/lpt/internal/observability"
	obsmiddleware "github.com/smallbiznis/lpt/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/lpt/internal/observability/metrics"
	obstracing "github.com/smallbiznis/lpt/internal/observability/tracing"
	quotadomain "github.com/smallbiznis/lpt/internal/quota/domain"
	"github.com/smallbiznis/lpt/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	authsvc       authdomain.Service
	sessions      *session.Manager
	models        modelregistry.Registry
	completionSvc completiondomain.Service
	quota         quotadomain.Guard
	chatSvc       chatdomain.Service
	submitLimiter *ratelimit.SubmitLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	Models        modelregistry.Registry
	CompletionSvc completiondomain.Service
	Quota         quotadomain.Guard
	ChatSvc       chatdomain.Service
	SubmitLimiter *ratelimit.SubmitLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		authsvc:       p.Authsvc,
		sessions:      p.Sessions,
		models:        p.Models,
		completionSvc: p.CompletionSvc,
		quota:         p.Quota,
		chatSvc:       p.ChatSvc,
		submitLimiter: p.SubmitLimiter,
		obsMetrics:    p.ObsMetrics,
	}
}

func (s *Server) RegisterRoutes() {
	authGroup := s.engine.Group("/auth")
	authGroup.POST("/signup", s.Signup)
	authGroup.POST("/login", s.Login)
	authGroup.POST("/logout", s.AuthRequired(), s.Logout)
	authGroup.GET("/me", s.AuthRequired(), s.Me)

	api := s.engine.Group("/api/v1")
	api.GET("/models", s.ListModels)
	api.POST("/chat/submit", s.AuthRequired(), s.SubmitThrottle(), s.SubmitChat)
	api.GET("/usage/today", s.AuthRequired(), s.TodayUsage)

	chats := api.Group("/chats")
	chats.POST("/save", s.AuthRequired(), s.SaveChat)
	chats.PUT("/publish-from-saved", s.AuthRequired(), s.PublishFromSaved)
	chats.GET("/saved/:slug", s.AuthOptional(), s.GetSavedChat)
	chats.GET("/public", s.ListPublicChats)
}
