package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"inkwell/internal/config"
	"inkwell/internal/handlers"
	"inkwell/internal/jobs"
	"inkwell/internal/logging"
	"inkwell/internal/middleware"
	"inkwell/internal/services"
	"inkwell/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Inkwell Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s, DataDir: %s, Retention: %dd)", cfg.Port, cfg.DataDir, cfg.RetentionDays)

	// Durable store; the audit log's own key is quiet so flushes don't
	// audit themselves
	store, err := storage.New(cfg.DataDir, services.AuditLogKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}

	clock := clockwork.NewRealClock()

	// Audit log
	auditService := services.NewAuditService(store, clock, cfg.AuditMaxRecords, cfg.AuditRetention())
	if err := auditService.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize audit log: %v", err)
	}
	store.SetAuditSink(auditService)
	log.Println("✅ Audit service initialized")

	// Notification hub
	notificationService := services.NewNotificationService()

	// Tag history
	tagService := services.NewTagService(store, clock)
	if err := tagService.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize tag service: %v", err)
	}

	// Journal registry
	journalService := services.NewJournalService(store, auditService, clock, cfg.Retention(), cfg.UndoWindow)
	journalService.SetNotifier(notificationService)
	journalService.SetTagTracker(tagService)
	if cfg.AIEnabled {
		journalService.SetAnalyzer(services.NewAIService(cfg.GroqAPIURL, cfg.GroqAPIKey))
		log.Println("✅ AI analysis enabled")
	}
	if err := journalService.Initialize(); err != nil {
		log.Fatalf("❌ Failed to load journal entries: %v", err)
	}
	defer journalService.Close()

	// Catch entries that expired while the process was down
	if moved, err := journalService.CheckDeletedEntries(); err != nil {
		log.Printf("⚠️  Startup expiry sweep failed: %v", err)
	} else if moved > 0 {
		log.Printf("🧹 Startup sweep moved %d expired entries to hidden", moved)
	}

	// Data-dir integrity watcher
	watcher, err := storage.NewWatcher(store, auditService)
	if err != nil {
		log.Printf("⚠️  Integrity watcher disabled: %v", err)
	} else {
		watcher.Start()
		defer watcher.Close()
	}

	// Background jobs
	scheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	if err := scheduler.Register(cfg.SweepCron, jobs.NewExpirySweepJob(journalService)); err != nil {
		log.Fatalf("❌ Failed to register expiry sweep: %v", err)
	}
	if err := scheduler.Register(cfg.AuditSweepCron, jobs.NewAuditRetentionJob(auditService)); err != nil {
		log.Fatalf("❌ Failed to register audit retention: %v", err)
	}
	scheduler.Start()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell v1.0",
		BodyLimit:    5 * 1024 * 1024, // entries are text; 5MB is plenty
		UnescapePath: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	prometheus := fiberprometheus.New("inkwell")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))

	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))
	log.Println("🛡️  [RATE-LIMIT] Global API rate limiter enabled")

	// Handlers
	journalHandler := handlers.NewJournalHandler(journalService)
	auditHandler := handlers.NewAuditHandler(auditService)
	tagHandler := handlers.NewTagHandler(tagService)
	healthHandler := handlers.NewHealthHandler(store, journalService, notificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Get("/entries", journalHandler.List)
	api.Post("/entries", journalHandler.Create)
	api.Post("/entries/undo", journalHandler.Undo)
	api.Post("/entries/sweep", journalHandler.Sweep)
	api.Get("/entries/:id", journalHandler.Get)
	api.Put("/entries/:id", journalHandler.Update)
	api.Delete("/entries/:id", journalHandler.SoftDelete)
	api.Post("/entries/:id/restore", journalHandler.Restore)
	api.Post("/entries/:id/hide", journalHandler.Hide)
	api.Delete("/entries/:id/permanent", journalHandler.PermanentlyDelete)

	api.Get("/logs", auditHandler.List)
	api.Get("/logs/export", auditHandler.Export)
	api.Delete("/logs", auditHandler.Clear)

	api.Get("/tags", tagHandler.List)
	api.Get("/tags/suggest", tagHandler.Suggest)

	// WebSocket notifications
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications", middleware.WebSocketRateLimiter(rateLimitConfig), websocket.New(notificationHandler.Handle))

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := scheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("🌐 Server listening on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	log.Println("👋 Server stopped")
}
