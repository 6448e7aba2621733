package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/polyui/catalog-mcp/internal/admission"
	"github.com/polyui/catalog-mcp/internal/auth"
	"github.com/polyui/catalog-mcp/internal/catalog"
	"github.com/polyui/catalog-mcp/internal/circuitbreaker"
	"github.com/polyui/catalog-mcp/internal/config"
	"github.com/polyui/catalog-mcp/internal/handler"
	"github.com/polyui/catalog-mcp/internal/middleware"
	"github.com/polyui/catalog-mcp/internal/notify"
	"github.com/polyui/catalog-mcp/internal/origin"
	"github.com/polyui/catalog-mcp/internal/ratelimit"
	"github.com/polyui/catalog-mcp/internal/repository"
	"github.com/polyui/catalog-mcp/internal/rpc"
	"github.com/polyui/catalog-mcp/internal/service"
	"github.com/polyui/catalog-mcp/internal/session"
	"github.com/polyui/catalog-mcp/internal/storage"
	"github.com/polyui/catalog-mcp/internal/usage"
)

// The health endpoint needs only pings and counters from the stores, so
// the server holds them behind narrow interfaces.
type storePinger interface {
	Ping(ctx context.Context) error
}

type credentialCache interface {
	storePinger
	Stats() storage.CacheStats
}

type sessionCounter interface {
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type Server struct {
	router   *gin.Engine
	config   *config.Config
	redis    credentialCache
	postgres storePinger

	limiter     *ratelimit.Limiter
	sessions    *session.Store
	sessionRepo sessionCounter
	recorder    *usage.Recorder
	admins      *service.AdminService

	mcpHandler    *handler.MCPHandler
	signupHandler *handler.SignupHandler
	adminHandler  *handler.AdminHandler

	httpServer *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) (*Server, error) {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Repositories
	accountRepo := repository.NewAccountRepository(postgres)
	sessionRepo := repository.NewSessionRepository(postgres)
	usageRepo := repository.NewUsageLogRepository(postgres)
	adminRepo := repository.NewAdminUserRepository(postgres)

	// Services
	breaker := circuitbreaker.New(circuitbreaker.Config{})
	accountService := service.NewAccountService(accountRepo, redis, breaker)
	adminService := service.NewAdminService(adminRepo, cfg.Admin.JWTSecret, cfg.Admin.ExpiryHours)
	statsService := service.NewUsageStatsService(usageRepo)

	// Admission pipeline components.
	originValidator := origin.NewValidator(
		cfg.Origin.Allowed,
		cfg.Origin.SubdomainSuffix,
		cfg.Origin.Permissive,
	)
	authenticator := auth.NewAuthenticator(accountService)
	sessions := session.NewStore(sessionRepo, cfg.Session.TTL)
	limiter := ratelimit.New(
		cfg.RateLimit.MinuteLimit, cfg.RateLimit.MinuteWindow,
		cfg.RateLimit.DayLimit, cfg.RateLimit.DayWindow,
	)
	pipeline := admission.NewPipeline(originValidator, authenticator, sessions, limiter)

	// Dispatch
	registry, err := catalog.NewRegistry()
	if err != nil {
		return nil, err
	}
	recorder := usage.NewRecorder(usageRepo, accountService, cfg.Usage.BufferSize)
	dispatcher := rpc.NewDispatcher(registry, recorder)

	s := &Server{
		router:        router,
		config:        cfg,
		redis:         redis,
		postgres:      postgres,
		limiter:       limiter,
		sessions:      sessions,
		sessionRepo:   sessionRepo,
		recorder:      recorder,
		admins:        adminService,
		mcpHandler:    handler.NewMCPHandler(pipeline, dispatcher),
		signupHandler: handler.NewSignupHandler(accountService, notify.NewLogNotifier()),
		adminHandler:  handler.NewAdminHandler(adminService, accountService, statsService, sessions, limiter),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) setupRoutes() {
	// Health bypasses the admission pipeline entirely.
	s.router.GET("/health", s.healthCheck)

	s.router.POST("/mcp", s.mcpHandler.Handle)
	s.router.POST("/signup", s.signupHandler.Signup)

	s.router.POST("/admin/login", s.adminHandler.Login)

	admin := s.router.Group("/admin")
	admin.Use(middleware.RequireAdmin(s.admins))
	{
		admin.GET("/accounts", s.adminHandler.ListAccounts)
		admin.GET("/accounts/:id", s.adminHandler.GetAccount)
		admin.GET("/accounts/:id/logs", s.adminHandler.AccountLogs)
		admin.PATCH("/accounts/:id/status", s.adminHandler.SetAccountStatus)
		admin.DELETE("/accounts/:id", s.adminHandler.DeleteAccount)
		admin.GET("/usage", s.adminHandler.UsageSummary)
		admin.DELETE("/usage", s.adminHandler.CleanupUsage)
		admin.DELETE("/sessions/:id", s.adminHandler.RevokeSession)
		admin.GET("/ratelimit/:id", s.adminHandler.RateLimitUsage)
		admin.DELETE("/ratelimit/:id", s.adminHandler.ResetRateLimit)
		admin.DELETE("/ratelimit", s.adminHandler.ResetAllRateLimits)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	redisHealthy := true
	if err := s.redis.Ping(c.Request.Context()); err != nil {
		redisHealthy = false
		log.Printf("Redis health check failed: %v", err)
	}

	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	status := "healthy"
	if !redisHealthy || !dbHealthy {
		status = "degraded"
	}

	var activeSessions int64
	if dbHealthy {
		n, err := s.sessionRepo.CountActive(c.Request.Context(), time.Now())
		if err != nil {
			log.Printf("Session count failed: %v", err)
		} else {
			activeSessions = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"service":   "catalog-mcp",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(startTime).Seconds(),
		"checks": gin.H{
			"redis":    redisHealthy,
			"database": dbHealthy,
		},
		"counters": gin.H{
			"rate_limiter_size": s.limiter.Size(),
			"active_sessions":   activeSessions,
			"credential_cache":  s.redis.Stats(),
		},
	})
}

// Run launches the background workers and begins serving.
func (s *Server) Run(addr string) error {
	s.limiter.StartSweeper(s.config.RateLimit.SweepInterval)
	s.sessions.StartSweeper(s.config.Session.SweepInterval)
	s.recorder.Start()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting catalog-mcp on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	s.limiter.Stop()
	s.sessions.Stop()
	s.recorder.Close()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

var startTime = time.Now()
