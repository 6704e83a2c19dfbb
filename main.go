package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"salonpos-backend/config"
	"salonpos-backend/models"
	"salonpos-backend/routes"
	"salonpos-backend/services"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
}

func main() {
	cfg := config.LoadConfig()
	config.SetupLogger(cfg.Log)

	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := models.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	rdb, err := config.ConnectRedis(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, caching disabled", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}
	cache := services.NewCollectionCache(rdb, cfg.Redis.CacheTTL)

	settlement := services.NewSettlementService(db, cache)
	appointments := services.NewAppointmentService(db, settlement)
	autoCompleter := services.NewAutoCompleter(appointments)
	appointments.SetScheduler(autoCompleter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := autoCompleter.Restore(ctx); err != nil {
		slog.Error("failed to restore auto-complete timers", "error", err)
	}
	if n, err := autoCompleter.Sweep(ctx); err != nil {
		slog.Error("startup auto-complete sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("completed overdue appointments", "count", n)
	}

	reminders := services.NewReminderService(db, services.NewTwilioSender(cfg.Twilio))

	scheduler := cron.New()
	if err := autoCompleter.Register(scheduler); err != nil {
		slog.Error("failed to register auto-complete sweep", "error", err)
		os.Exit(1)
	}
	if cfg.Reminder.Enabled {
		if err := reminders.Register(scheduler, cfg.Reminder.Schedule); err != nil {
			slog.Error("invalid reminder schedule", "schedule", cfg.Reminder.Schedule, "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()

	r := routes.SetupRouter(routes.Dependencies{
		DB:           db,
		Cache:        cache,
		Accounts:     services.NewAccountService(db, cfg.Auth.TrialDays),
		Appointments: appointments,
		Settlement:   settlement,
		Reports:      services.NewReportService(db),
		Reminders:    reminders,
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     time.Duration(cfg.Auth.ExpiryHours) * time.Hour,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	<-scheduler.Stop().Done()
	slog.Info("disarming auto-complete timers", "pending", autoCompleter.Pending())
	autoCompleter.Stop()

	slog.Info("server exited")
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
