package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reward-economy-system/handlers"
	"reward-economy-system/middleware"
	"reward-economy-system/models"
	"reward-economy-system/services"
	"reward-economy-system/utils"
	"reward-economy-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout: 30 * time.Second,
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey — the claim-once paths depend on it.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.ItemDefinition{},
		&models.InventoryEntry{},
		&models.TaskDefinition{},
		&models.TaskCompletion{},
		&models.AdRewardReceipt{},
		&models.PvpEncounter{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := seedItems(db); err != nil {
		log.Fatal("failed to seed item definitions:", err)
	}

	cfg := services.LoadEconomyConfig()

	ledgerService := services.NewLedgerService(db)
	accountService := services.NewAccountService(db, ledgerService, cfg)
	checkInService := services.NewCheckInService(db, ledgerService, cfg)
	taskService := services.NewTaskService(db, ledgerService)
	adRewardService := services.NewAdRewardService(ledgerService, cfg)
	pvpService := services.NewPvpService(db, ledgerService, cfg)
	adminService := services.NewAdminService(db, ledgerService)
	leaderboardService := services.NewLeaderboardService(db)
	snapshotService := services.NewSnapshotService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogSyncClient := workers.NewCatalogSyncClient(db)
	go workers.PollCatalog(ctx, catalogSyncClient, 60*time.Second)

	snapshotService.StartSnapshotScheduler()

	handlers.SetupEconomyRoutes(
		app,
		accountService,
		checkInService,
		taskService,
		adRewardService,
		pvpService,
		adminService,
		leaderboardService,
	)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Task catalog sync running (every 60s)")
	log.Println("✅ Daily economy snapshot scheduled")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.ShutdownWithTimeout(10 * time.Second)
}

// seedItems ensures the default item definitions exist (idempotent by code).
func seedItems(db *gorm.DB) error {
	for _, item := range models.DefaultItems {
		var existing models.ItemDefinition
		err := db.Where("code = ?", item.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			item.ID = uuid.NewString()
			if err := db.Create(&item).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
