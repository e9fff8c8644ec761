package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ampla-fin/recon-ledger/src/internal/adapter/http/controller"
	"github.com/ampla-fin/recon-ledger/src/internal/adapter/http/middleware"
	"github.com/ampla-fin/recon-ledger/src/internal/adapter/http/router"
	"github.com/ampla-fin/recon-ledger/src/internal/adapter/repository/postgres"
	"github.com/ampla-fin/recon-ledger/src/internal/config"
	"github.com/ampla-fin/recon-ledger/src/internal/logger"
	"github.com/ampla-fin/recon-ledger/src/internal/usecase/services"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "recon-ledger",
		Short: "Reconciliation and ledger consistency service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return postgres.RunMigrations(ctx, cfg.DatabaseDSN, cfg.MigrationsDir)
		},
	}

	var verifyTenant, verifyFrom, verifyTo string
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the reconciliation checks for a tenant and period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), verifyTenant, verifyFrom, verifyTo)
		},
	}
	verifyCmd.Flags().StringVar(&verifyTenant, "tenant", "", "tenant to verify")
	verifyCmd.Flags().StringVar(&verifyFrom, "from", "", "period start (YYYY-MM-DD)")
	verifyCmd.Flags().StringVar(&verifyTo, "to", "", "period end (YYYY-MM-DD)")
	_ = verifyCmd.MarkFlagRequired("tenant")
	_ = verifyCmd.MarkFlagRequired("from")
	_ = verifyCmd.MarkFlagRequired("to")

	var cleanupTenant string
	cleanupCmd := &cobra.Command{
		Use:   "cleanup-orphans",
		Short: "Delete ledger entries that lost their lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd.Context(), cleanupTenant)
		},
	}
	cleanupCmd.Flags().StringVar(&cleanupTenant, "tenant", "", "tenant to repair")
	_ = cleanupCmd.MarkFlagRequired("tenant")

	root.AddCommand(serveCmd, migrateCmd, verifyCmd, cleanupCmd)

	if err := root.Execute(); err != nil {
		log.Fatalf("recon-ledger: %v", err)
	}
}

// wiring bundles every service built over one database handle.
type wiring struct {
	registry   *services.RegistryService
	matching   *services.MatchingService
	split      *services.SplitService
	posting    *services.PostingService
	aggregator *services.AggregatorService
	verifier   *services.VerifierService
}

func buildServices(cfg config.Config, db *sql.DB) wiring {
	accountRepo := postgres.NewAccountRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	movementRepo := postgres.NewMovementRepository(db)
	receivableRepo := postgres.NewReceivableRepository(db)
	allocationRepo := postgres.NewAllocationRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	locks := services.NewEntityLocks()
	registry := services.NewRegistryService(accountRepo)
	matching := services.NewMatchingService(services.MatchingConfig{
		AcceptanceFloor: cfg.MatchAcceptanceFloor,
		CloseThreshold:  cfg.MatchCloseThreshold,
		ExactThreshold:  cfg.MatchExactThreshold,
	}, movementRepo, receivableRepo)
	split := services.NewSplitService(movementRepo, receivableRepo, allocationRepo, cfg.AmountTolerance, locks)
	posting := services.NewPostingService(registry, ledgerRepo, movementRepo, receivableRepo, allocationRepo, auditRepo, locks)
	aggregator := services.NewAggregatorService(registry, ledgerRepo)
	verifier := services.NewVerifierService(aggregator, registry, ledgerRepo, movementRepo, auditRepo, cfg.AmountTolerance)

	return wiring{
		registry:   registry,
		matching:   matching,
		split:      split,
		posting:    posting,
		aggregator: aggregator,
		verifier:   verifier,
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = postgres.RunMigrations(migrateCtx, cfg.DatabaseDSN, cfg.MigrationsDir)
	cancel()
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	svc := buildServices(cfg, db)
	auth := middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey)
	mux := router.New(
		controller.NewReconciliationController(svc.matching, svc.split),
		controller.NewLedgerController(svc.posting, svc.aggregator),
		controller.NewVerificationController(svc.verifier),
		controller.NewMaintenanceController(svc.posting),
		controller.NewAccountController(svc.registry),
		auth,
	)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logger.Fields{"addr": cfg.ListenAddr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
		logger.Info("shutting down", nil)
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(stopCtx)
	}
}

func runVerify(ctx context.Context, tenantID, from, to string) error {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	svc := buildServices(cfg, db)
	report, err := svc.verifier.Verify(ctx, tenantID, start, end)
	if err != nil {
		return err
	}

	if report.Balanced {
		fmt.Printf("tenant %s balanced for %s..%s\n", tenantID, from, to)
		return nil
	}
	for _, d := range report.Discrepancies {
		fmt.Println(d.String())
	}
	return fmt.Errorf("%d discrepancies found", len(report.Discrepancies))
}

func runCleanup(ctx context.Context, tenantID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	svc := buildServices(cfg, db)
	repaired, err := svc.posting.CleanupOrphans(ctx, tenantID)
	if err != nil {
		return err
	}

	fmt.Printf("repaired %d orphan entries\n", repaired)
	return nil
}
