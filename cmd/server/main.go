package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"taxlink/internal/authority"
	noopbackup "taxlink/internal/backup/noop"
	s3backup "taxlink/internal/backup/s3"
	"taxlink/internal/config"
	"taxlink/internal/handler"
	"taxlink/internal/logger"
	"taxlink/internal/port"
	"taxlink/internal/refcache"
	"taxlink/internal/repository/postgres"
	"taxlink/internal/router"
	"taxlink/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Setup(&cfg.Log); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	buyerRepo := postgres.NewBuyerRepo(db)
	productRepo := postgres.NewProductRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)

	// Initialize backup sink
	var backup port.BackupSink
	switch cfg.Backup.Provider {
	case "s3":
		backup, err = s3backup.NewBackupSink(&cfg.Backup)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 backup sink: %w", err)
		}
	default:
		backup = noopbackup.NewBackupSink()
	}

	// Initialize services
	cache := refcache.New(cfg.RefCache.TTL, nil)
	resolverSvc := service.NewResolverService(buyerRepo, productRepo, cache)
	bulkSvc := service.NewBulkService(resolverSvc, invoiceRepo, backup, cfg.Seller, cfg.Bulk)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, buyerRepo, productRepo, cache, cfg.Seller)
	authorityClient := authority.NewClient(&cfg.Authority)
	submitSvc := service.NewSubmitService(invoiceRepo, authorityClient, backup)

	// Initialize handlers
	invoiceH := handler.NewInvoiceHandler(invoiceSvc, submitSvc)
	bulkH := handler.NewBulkHandler(bulkSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg.Auth, invoiceH, bulkH, healthH)

	appLog := logger.WithComponent("server")
	appLog.Info().Str("port", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server starting")
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
