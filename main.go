package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance-pulse/bot"
	"attendance-pulse/config"
	"attendance-pulse/internal/handlers"
	"attendance-pulse/internal/repository"
	"attendance-pulse/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Config loaded successfully")

	// Create application context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown signal received, initiating graceful shutdown...")
		cancel()
	}()

	// Initialize application dependencies
	server, userRepo, attendanceSvc := initApplication(cfg)

	// Initialize Telegram Bot
	if cfg.TelegramBotToken != "" {
		if err := bot.Init(cfg.TelegramBotToken, cfg.AuthorizedChatID, userRepo, attendanceSvc); err != nil {
			log.Printf("Warning: Failed to init Telegram Bot: %v", err)
		} else {
			bot.StartPolling()
			log.Println("Telegram Bot Initialized")
		}
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.ServerAddr)
		if err := server.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped gracefully")
}

// initApplication initializes all application dependencies
func initApplication(cfg *config.Config) (*handlers.Server, repository.UserRepository, *services.AttendanceService) {
	// Initialize repositories with PocketBase REST API
	userRepo := repository.NewPocketBaseRESTUserRepository(cfg.PocketBaseURL, cfg.PocketBaseToken)
	attendanceRepo := repository.NewPocketBaseRESTAttendanceRepository(cfg.PocketBaseURL, cfg.PocketBaseToken, cfg.PollInterval)
	notificationRepo := repository.NewPocketBaseRESTNotificationRepository(cfg.PocketBaseURL, cfg.PocketBaseToken, cfg.PollInterval)

	// Create bot notifier wrapper
	botNotifier := bot.NewNotifier()

	// Initialize services
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	attendanceSvc := services.NewAttendanceService(attendanceRepo, botNotifier)
	notificationSvc := services.NewNotificationService(
		userRepo,
		attendanceRepo,
		notificationRepo,
		botNotifier,
		cfg.NotificationWindow,
	)

	// Initialize HTTP server
	server := handlers.NewServer(authSvc, attendanceSvc, notificationSvc, userRepo)

	return server, userRepo, attendanceSvc
}
