package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	webAdapter "distributor-ledger/internal/adapters/web"
	"distributor-ledger/internal/app"
	"distributor-ledger/internal/config"
	"distributor-ledger/internal/core"
	"distributor-ledger/internal/db"
)

func main() {
	_ = godotenv.Load()
	log := config.GetLogger()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	groupService := core.NewGroupService(pool)
	stockService := core.NewStockService(pool)
	saleService := core.NewSaleService(pool, stockService)
	dueService := core.NewDueService(pool)
	creditService := core.NewCreditService(pool, stockService)
	reportingService := core.NewReportingService(pool)

	svc := app.NewAppService(groupService, stockService, saleService,
		dueService, creditService, reportingService)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Infof("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
