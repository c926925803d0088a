package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jmorgal/bankfeed/internal/catalog"
	"github.com/jmorgal/bankfeed/internal/config"
	"github.com/jmorgal/bankfeed/internal/database"
	bankfeedHttp "github.com/jmorgal/bankfeed/internal/http"
	"github.com/jmorgal/bankfeed/internal/http/catalogapi"
	"github.com/jmorgal/bankfeed/internal/http/statements"
	"github.com/jmorgal/bankfeed/internal/job"
	jobStore "github.com/jmorgal/bankfeed/internal/job/store"
	"github.com/jmorgal/bankfeed/internal/parser"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		templates  = catalog.Defaults()
		jobService = job.NewService(jobStore.New(db), templates, parser.New())
	)

	var (
		catalogH    = catalogapi.NewHandler(templates)
		statementsH = statements.NewHandler(jobService)
	)

	router := bankfeedHttp.New(catalogH, statementsH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
