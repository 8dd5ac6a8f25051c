package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/mehmetcc/session-rotation-service/docs"
	"github.com/mehmetcc/session-rotation-service/internal/authentication"
	"github.com/mehmetcc/session-rotation-service/internal/password"
	"github.com/mehmetcc/session-rotation-service/internal/user"
	"github.com/mehmetcc/session-rotation-service/internal/utils"
)

// @title           Session Rotation Service API
// @version         1.0
// @description     Account registration, login, logout and single-use refresh token rotation.
//
// @host      localhost:3000
// @BasePath  /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config
	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// init logger
	logger, err := utils.NewLogger(cfg.Server.Environment)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// init database
	db, err := utils.InitDatabase(cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to connect to the database", zap.Error(err))
	}
	if err := db.AutoMigrate(&user.Account{}, &authentication.RefreshToken{}); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	hasher, err := password.NewHasher(cfg.Security.PasswordHasher)
	if err != nil {
		logger.Fatal("failed to build password hasher", zap.Error(err))
	}

	recordRepo, closeStore, err := newRecordRepository(cfg.Store, db)
	if err != nil {
		logger.Fatal("failed to open refresh token store", zap.Error(err), zap.String("store", cfg.Store.RefreshTokenStore))
	}
	defer closeStore()

	//
	// WIRE UP SERVICES
	//
	userService := user.NewUserService(user.NewUserRepository(db), logger)
	authService, err := authentication.NewAuthenticationService(
		userService,
		recordRepo,
		hasher,
		authentication.TokenSettings{
			AccessSecret:  cfg.Token.AccessTokenSecret,
			AccessTTL:     cfg.Token.AccessTokenTTL,
			RefreshSecret: cfg.Token.RefreshTokenSecret,
			RefreshTTL:    cfg.Token.RefreshTokenTTL,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("failed to build authentication service", zap.Error(err))
	}
	userHandler := user.NewUserHandler(userService, logger)
	accessGate := authentication.AccessMiddleware(userService, cfg.Token.AccessTokenSecret, logger)

	// init Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	//
	// SWAGGER (protected by Basic Auth, not JWT)
	//
	if cfg.Admin.Enabled() {
		swaggerGroup := router.Group("/swagger", gin.BasicAuth(gin.Accounts{
			cfg.Admin.Username: cfg.Admin.Password,
		}))
		swaggerGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/", authentication.RateLimitMiddleware(cfg.Security.RateLimitPerSecond))
	authentication.NewAuthHandler(authGroup, authService, accessGate, logger)

	protected := router.Group("/", accessGate)
	userHandler.RegisterSelf(protected)

	admin := router.Group("/", accessGate, authentication.RoleMiddleware(user.Admin))
	userHandler.RegisterAdmin(admin)

	//
	// START SERVER
	//
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting HTTP server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Environment),
			zap.String("refreshStore", cfg.Store.RefreshTokenStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped gracefully")
	}
}

// newRecordRepository picks the refresh token store. The returned func
// releases whatever connection the store opened.
func newRecordRepository(cfg *utils.StoreConfig, db *gorm.DB) (authentication.RecordRepository, func(), error) {
	if cfg.RefreshTokenStore != utils.StoreRedis {
		return authentication.NewRecordRepository(db), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return authentication.NewRedisRecordRepository(client), func() { _ = client.Close() }, nil
}
