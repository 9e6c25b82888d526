package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"commander-league-system/handlers"
	"commander-league-system/models"
	"commander-league-system/services"
	"commander-league-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, avatars are the largest upload
	})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Deck{},
		&models.DeckVersion{},
		&models.Game{},
		&models.GameRegistration{},
		&models.Match{},
		&models.MatchPlayer{},
		&models.AdminAuditLog{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	avatarStore, err := utils.NewR2Storage()
	if err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	authService := services.NewAuthService(db)
	gameService := services.NewGameService(db)
	matchService := services.NewMatchService(db)
	deckService := services.NewDeckService(db)
	userService := services.NewUserService(db)
	profileService := services.NewProfileService(db, avatarStore)
	adminService := services.NewAdminService(db)

	authService.StartTempPasswordSweeper()

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupGameRoutes(app, gameService, matchService)
	handlers.SetupDeckRoutes(app, deckService)
	handlers.SetupUserRoutes(app, userService, profileService)
	handlers.SetupAdminRoutes(app, db, adminService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Temp password sweeper running (hourly)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
