package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dependency-manager/config"
	_ "dependency-manager/docs"
	"dependency-manager/internal/handler"
	"dependency-manager/internal/ratelimit"
	"dependency-manager/internal/repository"
	"dependency-manager/internal/security"
	"dependency-manager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Dependency Manager Auth API
// @version 1.0
// @description REST API аутентификации и управления сессиями

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.Println("файл .env не найден, используются переменные окружения")
	}

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(redisClient)
	notificationRepo := repository.NewNotificationRepository(db)

	jwtService := security.NewJWTService(&cfg.JWT)
	authService := service.NewAuthenticationService(userRepo, tokenRepo, notificationRepo, jwtService, cfg)

	limiterStore := ratelimit.NewRedisStore(redisClient)
	window := cfg.RateLimitWindow()
	generalLimiter := ratelimit.NewLimiter("general", cfg.RateLimit.GeneralMax, window, limiterStore,
		"Too many requests, please try again later")
	authLimiter := ratelimit.NewLimiter("auth", cfg.RateLimit.AuthMax, window, limiterStore,
		"Too many authentication attempts, please try again later")
	userLimiter := ratelimit.NewLimiter("user", cfg.RateLimit.UserMax, window, limiterStore,
		"Too many requests, please try again later")
	notificationLimiter := ratelimit.NewLimiter("notification", cfg.RateLimit.NotificationMax,
		cfg.NotificationWindow(), limiterStore, "Too many notification requests, please try again later")
	authDelay := ratelimit.NewProgressiveDelay(time.Second, 30*time.Second)

	notificationService := service.NewNotificationService(notificationRepo)

	authHandler := handler.NewAuthenticationHandler(authService, authLimiter)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router.Use(generalLimiter.Middleware)
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/api/v1/health", healthHandler.Health)

	authenticated := security.JWTMiddleware(jwtService, tokenRepo, userRepo)

	setupAuthRoutes(router, authHandler, authenticated, authLimiter, userLimiter, authDelay)
	setupNotificationRoutes(router, notificationHandler, authenticated, notificationLimiter)

	runServer(ctx, srv)
}

func setupAuthRoutes(
	r chi.Router,
	h *handler.AuthenticationHandler,
	authenticated func(http.Handler) http.Handler,
	authLimiter *ratelimit.Limiter,
	userLimiter *ratelimit.Limiter,
	authDelay *ratelimit.ProgressiveDelay,
) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		// Публичные операции: строгий лимит и прогрессивная задержка на повторы
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Use(authDelay.Middleware)
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.RefreshToken)
			r.Post("/forgot-password", h.ForgotPassword)
		})

		r.Get("/status", h.Status)

		r.Group(func(r chi.Router) {
			// Лимит на пользователя считается после аутентификации:
			// до нее claims нет в контексте и ключ остался бы анонимным
			r.Use(authenticated)
			r.Use(userLimiter.Middleware)
			r.Post("/logout", h.Logout)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/me", h.Me)
		})
	})
}

func setupNotificationRoutes(
	r chi.Router,
	h *handler.NotificationHandler,
	authenticated func(http.Handler) http.Handler,
	notificationLimiter *ratelimit.Limiter,
) {
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(authenticated)
		r.Use(notificationLimiter.Middleware)
		r.Get("/", h.List)
		r.Post("/{uuid}/read", h.MarkRead)
	})
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}
