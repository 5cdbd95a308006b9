package main

import (
	"fmt"
	"os"

	"github.com/nurpe/payments-service/internal/auth"
	"github.com/nurpe/payments-service/internal/config"
	"github.com/nurpe/payments-service/internal/db"
	"github.com/nurpe/payments-service/internal/excel"
	httphandler "github.com/nurpe/payments-service/internal/http"
	"github.com/nurpe/payments-service/internal/http/middleware"
	"github.com/nurpe/payments-service/internal/logger"
	"github.com/nurpe/payments-service/internal/pdf"
	"github.com/nurpe/payments-service/internal/repository"
	"github.com/nurpe/payments-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ledgerRepo := repository.NewLedgerRepository(database)
	reportRepo := repository.NewReportRepository(database)

	contractService := service.NewContractService(ledgerRepo)
	paymentService := service.NewPaymentService(ledgerRepo, pdf.NewGenerator(), log)
	reportService := service.NewReportService(reportRepo, excel.NewGenerator())

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	authMiddleware := middleware.Auth(tokenParser, contractService)
	handler := httphandler.NewHandler(contractService, paymentService, reportService, cfg.Reports.ClientLimit, log)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().
		Str("addr", addr).
		Str("db_driver", cfg.DB.Driver).
		Bool("jwt_enabled", tokenParser.Enabled()).
		Msg("starting payments service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
