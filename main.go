package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinetile/api"
	"cinetile/config"
	"cinetile/handlers"
	"cinetile/services/discovery"
	"cinetile/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}

	svc := discovery.NewService(cfg.Source, cfg.GeminiAPIKey, cfg.TMDBAPIKey, cfg.OMDBAPIKey, nil)
	discover := handlers.NewDiscoverHandler(svc)

	router := utils.NewRouter(cfg.AllowedOrigins)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(api.RequestIDMiddleware())
	apiRouter.Use(api.LoggingMiddleware())
	if cfg.RateLimitPerMinute > 0 {
		limiter := api.NewIPRateLimiter(
			rate.Every(time.Minute/time.Duration(cfg.RateLimitPerMinute)),
			cfg.RateLimitPerMinute,
		)
		apiRouter.Use(api.RateLimitMiddleware(limiter))
	}

	apiRouter.HandleFunc("/movies", discover.Movies).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/movies/{id}/details", discover.Details).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/movies/{id}/trailer", discover.Trailer).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/genres", discover.Genres).Methods(http.MethodGet, http.MethodOptions)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s source=%s", srv.Addr, cfg.Source)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
