package main

import (
	"fmt"
	"log"
	"os"

	"go-travel-webapp/internal/config"
	"go-travel-webapp/internal/handlers"
	"go-travel-webapp/internal/logger"
	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/repository"
	"go-travel-webapp/internal/routes"
	"go-travel-webapp/internal/security"
	"go-travel-webapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	// Optional .env for local development; ignore when absent.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "travelbook",
		Short: "TravelBook - travel booking web application",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate()
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	structuredLog, err := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:      logger.ParseLevel(cfg.Logging.Level),
		Service:    "travelbook",
		OutputPath: cfg.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Repositories
	attemptRepo := repository.NewAttemptRepository(db)
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	twoFactorRepo := repository.NewTwoFactorRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	guard := security.NewGuard(attemptRepo, &cfg.Security)
	tokens := services.NewTokenService(&cfg.Security)
	email := services.NewEmailService(&cfg.Email)
	qr := services.NewQRCodeService()
	pdf := services.NewPDFService(qr)
	airports := services.NewAirportService(&cfg.API)
	activities := services.NewActivityService(&cfg.API)
	translate := services.NewTranslateService(&cfg.API)

	// Handlers
	h := &routes.Handlers{
		Auth:       handlers.NewAuthHandler(userRepo, twoFactorRepo, guard, tokens, cfg),
		Bruteforce: handlers.NewBruteforceHandler(guard, auditRepo, structuredLog),
		Bookings:   handlers.NewBookingHandler(bookingRepo, pdf, qr, email),
		Profile:    handlers.NewProfileHandler(db, userRepo),
		Contact:    handlers.NewContactHandler(db, email),
		Dashboard:  handlers.NewDashboardHandler(db, bookingRepo),
		Search:     handlers.NewSearchHandler(airports, activities, translate),
		Pages:      handlers.NewPagesHandler(db),
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.LoadHTMLGlob("web/templates/*.html")

	routes.Setup(router, h, structuredLog)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("TravelBook listening on %s (threshold=%d, lockout=%ds)", addr, guard.Threshold(), cfg.Security.LockoutDuration)
	return router.Run(addr)
}

func migrate() error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("Running schema migration...")
	err = db.AutoMigrate(
		&models.User{},
		&models.LoginAttempt{},
		&models.Booking{},
		&models.PaymentMethod{},
		&models.ContactMessage{},
		&models.AuditLog{},
		&models.TwoFactorSecret{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Schema migration complete")
	return nil
}
