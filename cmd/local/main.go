// Command local serves the API handlers over HTTP for development.
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

	"flightmatch/internal/config"
	"flightmatch/internal/db"
	"flightmatch/internal/handlers"
	"flightmatch/internal/inquiry"
	"flightmatch/internal/localgw"
	"flightmatch/internal/logging"
	"flightmatch/internal/match"
	"flightmatch/internal/schools"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	sink := logging.NewConsoleSink(os.Stderr, cfg.SlogLevel())
	if err := cfg.RequireLocal(); err != nil {
		sink.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	awsCfg, err := db.LoadAWSConfig(ctx, cfg.Region)
	if err != nil {
		sink.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}
	clients := db.NewClients(awsCfg)

	modelID, err := cfg.ResolveModelID(ctx, clients.SSM)
	if err != nil {
		sink.Error("failed to resolve model id", "error", err)
		os.Exit(1)
	}

	store := schools.NewStore(clients.Dynamo, cfg.TableName, cfg.StateIndex)
	schoolsHandler := handlers.NewSchoolsHandler(store, sink)
	routes := localgw.Routes{
		ExplainMatch: handlers.NewExplainHandler(match.NewGateway(clients.Bedrock, modelID), sink).Handle,
		ListSchools:  schoolsHandler.List,
		GetSchool:    schoolsHandler.Get,
		Health:       handlers.Health,
	}
	if err := cfg.RequireInquiry(); err == nil {
		routes.Inquiry = handlers.NewInquiryHandler(inquiry.NewNotifier(clients.SNS, cfg.InquiryTopicARN), sink).Handle
	} else {
		sink.Warn("inquiries disabled", "reason", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.LocalPort),
		Handler:      localgw.NewRouter(routes, sink),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sink.Info("starting local server", "addr", srv.Addr, "model", modelID, "table", cfg.TableName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sink.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sink.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sink.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	sink.Info("server stopped")
}
