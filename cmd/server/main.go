package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/internal/api/handlers"
	job "github.com/maheshrc27/postqueue/internal/jobs"
	"github.com/maheshrc27/postqueue/internal/queue"
	"github.com/maheshrc27/postqueue/internal/repository"
	"github.com/maheshrc27/postqueue/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Staging.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	var (
		db        *sql.DB
		postStore repository.ScheduledPostRepository
	)
	if cfg.PostgresURI != "" {
		db, err = sql.Open("postgres", cfg.PostgresURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer closeDB(db)

		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Database is unreachable: %v", err)
		}
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		postStore = repository.NewScheduledPostRepository(db)
	} else {
		log.Println("Warning: POSTGRES_URI is not set, scheduled posts are kept in memory only")
		postStore = repository.NewMemoryScheduledPostRepository()
	}

	r2Client, err := service.NewR2Client(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to create object storage client: %v", err)
	}
	r2Service := service.NewR2Service(*cfg, r2Client)
	facebookService := service.NewFacebookService(*cfg)
	instagramService := service.NewInstagramService(*cfg, r2Service)
	dispatchService := service.NewDispatchService(postStore, facebookService, instagramService, r2Service)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    cfg.Staging.MaxUploadBytes,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(logger.New())

	post := handlers.NewPostHandler(postStore, dispatchService, cfg.Staging.UploadDir)
	post.Register(app)

	// cron jobs
	cleanupJob := job.NewStagingCleanupJob(postStore, cfg.Staging.UploadDir, cfg.Staging.Retention)
	c := cron.New()
	if err := c.AddFunc(cfg.Staging.SweepSpec, func() { cleanupJob.Sweep() }); err != nil {
		log.Fatalf("Invalid STAGING_SWEEP_SPEC: %v", err)
	}
	c.Start()

	scheduler := queue.NewScheduler(postStore, dispatchService, cfg.Scheduler.CheckInterval)
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.HTTPAddr)

	<-ctx.Done()
	gracefulShutdown(app, c, schedulerDone)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, schedulerDone <-chan struct{}) {
	log.Println("Shutting down server...")

	c.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}

	// The scheduler finishes the post it is dispatching before returning.
	<-schedulerDone
	log.Println("Server shutdown complete.")
}
