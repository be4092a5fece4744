package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/gramv/onboardingsoftware/internal/config"
	"github.com/gramv/onboardingsoftware/internal/db"
	"github.com/gramv/onboardingsoftware/internal/handlers"
	"github.com/gramv/onboardingsoftware/internal/middleware"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/realtime"
	"github.com/gramv/onboardingsoftware/internal/services/mailer"
	"github.com/gramv/onboardingsoftware/internal/services/onboarding"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Employee{},
		&models.OnboardingSession{},
		&models.Document{},
		&models.Schedule{},
		&models.Message{},
		&models.Announcement{},
		&models.JobPosting{},
		&models.JobApplication{},
	); err != nil {
		log.Fatal(err)
	}

	onboardingSvc := onboarding.NewService(
		onboarding.NewGormRepository(gdb),
		mailer.FromEnv(),
		cfg.OnboardBaseURL,
	)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendURL,
	}
	employeeH := handlers.NewEmployeeHandler(gdb)
	onboardingH := handlers.NewOnboardingHandler(gdb, onboardingSvc)
	documentH := handlers.NewDocumentHandler(gdb, cfg.UploadDir, os.Getenv("APP_BASE_URL"))
	scheduleH := handlers.NewScheduleHandler(gdb)
	messageH := handlers.NewMessageHandler(gdb, hub, rdb)
	announcementH := handlers.NewAnnouncementHandler(gdb, hub)
	jobH := handlers.NewJobHandler(gdb, onboardingSvc)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	// public
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)

	// public candidate flow, keyed by token
	api.Get("/onboard/verify/:token", onboardingH.VerifyToken)
	api.Patch("/onboard/:token/progress", onboardingH.UpdateProgress)
	api.Post("/onboard/:token/complete", onboardingH.CompleteByToken)

	// public job board
	api.Get("/jobs", jobH.ListOpen)
	api.Post("/jobs/:id/apply", jobH.Apply)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)

	// employees
	protected.Post("/employees",
		middleware.RequireRoles("hr_admin", "manager"),
		employeeH.Create,
	)
	protected.Get("/employees", employeeH.List)
	protected.Get("/employees/:id", employeeH.Get)
	protected.Patch("/employees/:id", employeeH.Update)
	protected.Delete("/employees/:id",
		middleware.RequireRoles("hr_admin", "manager"),
		employeeH.Delete,
	)

	// onboarding admin surface
	sessions := protected.Group("/onboarding/sessions",
		middleware.RequireRoles("hr_admin", "manager"),
	)
	sessions.Post("/", onboardingH.CreateSession)
	sessions.Get("/", onboardingH.ListSessions)
	sessions.Get("/:id", onboardingH.GetSession)
	sessions.Post("/:id/complete", onboardingH.CompleteSession)
	sessions.Post("/:id/cancel", onboardingH.CancelSession)
	sessions.Post("/:id/extend", onboardingH.ExtendSession)

	protected.Get("/employees/:id/onboarding", onboardingH.GetEmployeeSessions)
	protected.Post("/onboarding/maintenance/expire",
		middleware.RequireRoles("hr_admin"),
		onboardingH.MarkExpired,
	)

	// documents
	protected.Post("/documents", documentH.Upload)
	protected.Get("/employees/:id/documents", documentH.ListByEmployee)
	protected.Post("/documents/:id/sign", documentH.Sign)
	protected.Post("/documents/:id/reject",
		middleware.RequireRoles("hr_admin", "manager"),
		documentH.Reject,
	)

	// schedules
	protected.Post("/schedules",
		middleware.RequireRoles("hr_admin", "manager"),
		scheduleH.Create,
	)
	protected.Get("/employees/:id/schedules", scheduleH.ListByEmployee)
	protected.Patch("/schedules/:id",
		middleware.RequireRoles("hr_admin", "manager"),
		scheduleH.Update,
	)
	protected.Delete("/schedules/:id",
		middleware.RequireRoles("hr_admin", "manager"),
		scheduleH.Delete,
	)

	// messaging
	protected.Post("/messages", messageH.Send)
	protected.Get("/messages/inbox", messageH.Inbox)
	protected.Get("/messages/sent", messageH.Sent)
	protected.Get("/messages/with/:id", messageH.Conversation)
	protected.Patch("/messages/:id/read", messageH.MarkRead)

	// announcements
	protected.Post("/announcements",
		middleware.RequireRoles("hr_admin", "manager"),
		announcementH.Create,
	)
	protected.Get("/announcements", announcementH.ListActive)
	protected.Delete("/announcements/:id",
		middleware.RequireRoles("hr_admin", "manager"),
		announcementH.Deactivate,
	)

	// job postings admin
	protected.Post("/jobs",
		middleware.RequireRoles("hr_admin", "manager"),
		jobH.CreatePosting,
	)
	protected.Post("/jobs/:id/close",
		middleware.RequireRoles("hr_admin", "manager"),
		jobH.ClosePosting,
	)
	protected.Get("/jobs/:id/applications",
		middleware.RequireRoles("hr_admin", "manager"),
		jobH.ListApplications,
	)
	protected.Post("/applications/:id/approve",
		middleware.RequireRoles("hr_admin", "manager"),
		jobH.Approve,
	)
	protected.Post("/applications/:id/reject",
		middleware.RequireRoles("hr_admin", "manager"),
		jobH.Reject,
	)

	// WebSocket endpoint, same cookie auth as the REST surface
	app.Get("/ws/messages",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
		websocket.New(messageH.WebSocketHandler),
	)

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
