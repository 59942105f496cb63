package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/auth"
	"github.com/example/attendance-tracker/internal/config"
	"github.com/example/attendance-tracker/internal/holiday"
	httptransport "github.com/example/attendance-tracker/internal/http"
	"github.com/example/attendance-tracker/internal/persistence/sqlite"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	if err := storage.Seed(context.Background()); err != nil {
		logger.Error("failed to seed reference data", "error", err)
		os.Exit(1)
	}

	holidayOverlay := holiday.NewService(storage.Holidays, cfg.HolidayCache, nil)
	if err := holidayOverlay.Refresh(context.Background()); err != nil {
		logger.Warn("holiday table not loaded, continuing without it", "error", err)
	}

	now := time.Now

	calendarService := application.NewCalendarServiceWithLogger(storage.Attendances, storage.Users, storage.Locations, holidayOverlay, now, logger)
	attendanceService := application.NewAttendanceServiceWithLogger(storage.Attendances, storage.Users, storage.Locations, calendarService, logger)
	analysisService := application.NewAnalysisServiceWithLogger(storage.Attendances, storage.Users, storage.Groups, storage.EmployeeTypes, storage.Locations, logger)
	csvService := application.NewCSVServiceWithLogger(analysisService, now, logger)
	groupService := application.NewGroupServiceWithLogger(storage.Groups, logger)
	typeService := application.NewEmployeeTypeServiceWithLogger(storage.EmployeeTypes, logger)
	locationService := application.NewLocationServiceWithLogger(storage.Locations, logger)
	userService := application.NewUserServiceWithLogger(storage.Users, storage.Groups, storage.EmployeeTypes, logger)
	holidayService := application.NewHolidayServiceWithLogger(storage.Holidays, holidayOverlay, logger)

	settings := auth.NewSettings(cfg, auth.NewStateStore(cfg.AuthStatePath))
	codec, err := auth.NewSessionCodec(cfg.SessionSecret, cfg.SessionTTL, now)
	if err != nil && cfg.AuthEnabled {
		logger.Error("failed to initialize session codec", "error", err)
		os.Exit(1)
	}
	var oidcClient *auth.OIDCClient
	if cfg.OIDCConfigured() {
		oidcClient = auth.NewOIDCClient(cfg)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(settings, codec, oidcClient, logger),
		Attendance:    httptransport.NewAttendanceHandler(attendanceService, logger),
		Calendar:      httptransport.NewCalendarHandler(attendanceService, logger),
		Analysis:      httptransport.NewAnalysisHandler(analysisService, logger),
		CSV:           httptransport.NewCSVHandler(csvService, logger),
		Groups:        httptransport.NewGroupHandler(groupService, logger),
		EmployeeTypes: httptransport.NewEmployeeTypeHandler(typeService, logger),
		Locations:     httptransport.NewLocationHandler(locationService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Holidays:      httptransport.NewHolidayHandler(holidayService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.SessionGate(settings, codec, logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("attendance API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
