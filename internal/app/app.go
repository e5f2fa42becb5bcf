package app

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Gantur-Enbotics/xmas-2025/docs"
	"github.com/Gantur-Enbotics/xmas-2025/internal/config"
	"github.com/Gantur-Enbotics/xmas-2025/internal/handlers"
	"github.com/Gantur-Enbotics/xmas-2025/internal/pdf"
	"github.com/Gantur-Enbotics/xmas-2025/internal/repositories"
	"github.com/Gantur-Enbotics/xmas-2025/internal/routes"
	"github.com/Gantur-Enbotics/xmas-2025/internal/services"
	"github.com/Gantur-Enbotics/xmas-2025/pkg/logger"
)

func Run() {
	cfg := config.LoadConfig()

	if err := logger.Init(cfg.Log.Path); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("db close failed", zap.Error(err))
		}
	}()
	if err := db.Ping(); err != nil {
		logger.Fatal("db ping failed", zap.Error(err))
	}

	// === Repos ===
	letterRepo := repositories.NewLetterRepository(db)

	// === Services ===
	notifyService := buildNotifier(cfg)
	unlockService := services.NewUnlockService(letterRepo, notifyService)
	letterService := services.NewLetterService(letterRepo)
	authService := services.NewAuthService(
		cfg.Admin.Username,
		cfg.Admin.Password,
		cfg.Admin.PasswordHash,
		cfg.Admin.JWTSecret,
		cfg.Admin.TokenTTL(),
	)
	pdfGen := pdf.NewLetterGenerator("assets/fonts/DejaVuSans.ttf")

	// === Handlers ===
	unlockHandler := handlers.NewUnlockHandler(unlockService)
	letterHandler := handlers.NewLetterHandler(letterService)
	adminHandler := handlers.NewAdminHandler(authService, letterService, pdfGen)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, unlockHandler, letterHandler, adminHandler, []byte(cfg.Admin.JWTSecret))

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("server starting", zap.String("addr", listenAddr))
	if err := router.Run(listenAddr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildNotifier wires the optional unlock notification channels. Either
// may be absent; a nil notifier disables both.
func buildNotifier(cfg *config.Config) *services.NotifyService {
	var dialer *gomail.Dialer
	email := cfg.Notify.Email
	if email.SMTPHost != "" && email.AdminEmail != "" {
		dialer = gomail.NewDialer(email.SMTPHost, email.SMTPPort, email.SMTPUser, email.SMTPPassword)
	}

	var bot *tgbotapi.BotAPI
	tg := cfg.Notify.Telegram
	if tg.BotToken != "" {
		b, err := tgbotapi.NewBotAPI(tg.BotToken)
		if err != nil {
			logger.Warn("telegram bot init failed, notifications disabled", zap.Error(err))
		} else {
			bot = b
		}
	}

	if dialer == nil && bot == nil {
		return nil
	}
	return services.NewNotifyService(dialer, email.FromEmail, email.AdminEmail, bot, tg.ChatID)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
