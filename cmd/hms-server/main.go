package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/appointment"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/catalog"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/messaging"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/middleware"
	"github.com/hms/hms/internal/platform/sharelink"
)

// CatalogAdapter adapts the catalog service to the slice billing needs,
// avoiding an import between the two domain packages.
type CatalogAdapter struct {
	svc *catalog.Service
}

func (a *CatalogAdapter) Lookup(ctx context.Context, id uuid.UUID) (*billing.CatalogLine, error) {
	item, err := a.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &billing.CatalogLine{Description: item.Name, Rate: item.Rate}, nil
}

// InvoiceSourceAdapter exposes billing invoices to the messaging domain.
type InvoiceSourceAdapter struct {
	svc *billing.Service
}

func (a *InvoiceSourceAdapter) InvoiceFor(ctx context.Context, id uuid.UUID) (*messaging.InvoiceView, error) {
	inv, err := a.svc.GetInvoice(ctx, id)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			return nil, messaging.ErrNotFound
		}
		return nil, err
	}
	return &messaging.InvoiceView{
		ID:        inv.ID,
		TenantID:  inv.TenantID,
		PatientID: inv.PatientID,
		InvoiceNo: inv.InvoiceNo,
		Total:     inv.Total,
	}, nil
}

// ContactSourceAdapter exposes patient contact details to the messaging domain.
type ContactSourceAdapter struct {
	svc *patient.Service
}

func (a *ContactSourceAdapter) ContactFor(ctx context.Context, id uuid.UUID) (*messaging.Contact, error) {
	p, err := a.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, messaging.ErrNotFound
		}
		return nil, err
	}
	name := p.FirstName
	if p.LastName != nil && *p.LastName != "" {
		name += " " + *p.LastName
	}
	return &messaging.Contact{Name: name, Phone: p.Phone}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital back-office API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default from config)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default from config)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// JSON numbers for decimals keeps API consumers from parsing strings.
	decimal.MarshalJSONWithoutQuotes = true

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Share link signer. Outside production a throwaway key keeps local
	// setups working; links die with the process.
	signingKey := cfg.LinkSigningKey
	if signingKey == "" {
		buf := make([]byte, 32)
		if _, err := crypto_rand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate signing key")
		}
		signingKey = hex.EncodeToString(buf)
		logger.Warn().Msg("LINK_SIGNING_KEY not set, using ephemeral key")
	}
	signer := sharelink.NewHMACSigner(signingKey, time.Duration(cfg.LinkTTLSeconds)*time.Second)

	// Repositories and services
	txm := db.NewTxManager(pool)

	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo)

	doctorRepo := doctor.NewRepoPG(pool)

	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo)

	billingSvc := billing.NewService(txm,
		billing.NewInvoiceRepoPG(pool),
		billing.NewPaymentRepoPG(pool),
		billing.NewLedgerRepoPG(pool),
		patientSvc,
		&CatalogAdapter{svc: catalogSvc},
	)

	appointmentSvc := appointment.NewService(txm, appointment.NewRepoPG(pool))

	messagingSvc := messaging.NewService(
		messaging.NewRepoPG(pool),
		messaging.NewLogDispatcher(logger),
		&InvoiceSourceAdapter{svc: billingSvc},
		&ContactSourceAdapter{svc: patientSvc},
		signer,
		cfg.BaseURL,
	)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Tenant-ID"},
	}))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	billingHandler := billing.NewHandler(billingSvc, signer, signer)

	// Public routes: authenticated by signed link token, not tenant headers.
	billingHandler.RegisterPublicRoutes(e)

	// Tenant-scoped API
	api := e.Group("/api/v1", db.TenantMiddleware())
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	doctor.NewHandler(doctorRepo).RegisterRoutes(api)
	catalog.NewHandler(catalogSvc).RegisterRoutes(api)
	billingHandler.RegisterRoutes(api)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(api)
	messaging.NewHandler(messagingSvc).RegisterRoutes(api)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server exited")
	return nil
}
