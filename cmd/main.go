package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"consult-service/internal/config"
	"consult-service/internal/database/postgres"
	"consult-service/internal/database/redis"
	"consult-service/internal/event"
	"consult-service/internal/handlers"
	"consult-service/internal/repository"
	"consult-service/internal/services"
	"consult-service/internal/storage"
	"consult-service/internal/ws"

	"github.com/gin-gonic/gin"
)

func setupLogging() *os.File {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "/consult-service/log"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Printf("Warning: failed to create log dir %s: %v, logging to stdout only", logDir, err)
		return nil
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("consult-service-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Warning: failed to open log file %s: %v, logging to stdout only", logFile, err)
		return nil
	}

	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	slog.SetDefault(slog.New(slog.NewTextHandler(mw, nil)))
	return file
}

func main() {
	logFile := setupLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	cfg := config.New()

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		// block startup until the database comes up; repositories capture
		// the handle at construction
		log.Printf("Failed to connect to Postgres: %v, retrying", err)
		postgres.RetryConnectOnFailed(10*time.Second, &db, cfg.PostgresCfg)
	}
	log.Println("Connected to Postgres")

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	mediaStorage, err := storage.NewMediaStorage(cfg.MinioCfg)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	var publisher event.Publisher
	var notificationPublisher *event.NotificationPublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Printf("Failed to connect to RabbitMQ: %v, notification events disabled", err)
	} else {
		defer rabbitConn.Close()
		notificationPublisher = event.NewNotificationPublisher(rabbitConn)
		publisher = notificationPublisher
		log.Println("Connected to RabbitMQ")
	}

	hub := ws.NewHub()

	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	jwtService := services.NewJWTService(cfg.JWTCfg)
	otpService := services.NewOTPService(redisClient.GetClient(), cfg.BookingCfg)
	userService := services.NewUserService(userRepo, jwtService, otpService)
	bookingService := services.NewBookingService(bookingRepo, followUpRepo, mediaStorage, publisher, cfg.BookingCfg)
	paymentService := services.NewPaymentService(bookingRepo, services.NewRazorpayGateway(cfg.RazorpayCfg), publisher)
	messageService := services.NewMessageService(messageRepo, subscriptionRepo, mediaStorage, hub, publisher)

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		health := gin.H{"status": "ok", "database": postgres.DBStatus}
		if notificationPublisher != nil {
			health["events"] = notificationPublisher.GetMetrics()
		}
		c.JSON(200, health)
	})

	handlers.NewAuthHandler(userService).RegisterRoutes(router)
	handlers.NewBookingHandler(bookingService, jwtService).RegisterRoutes(router)
	handlers.NewMessageHandler(messageService, jwtService).RegisterRoutes(router)
	handlers.NewPaymentHandler(paymentService, jwtService).RegisterRoutes(router)
	handlers.NewWSHandler(hub, jwtService).RegisterRoutes(router)

	log.Printf("consult-service listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
