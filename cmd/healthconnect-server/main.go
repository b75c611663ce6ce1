package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthconnect/healthconnect/internal/config"
	"github.com/healthconnect/healthconnect/internal/domain/directory"
	"github.com/healthconnect/healthconnect/internal/domain/identity"
	"github.com/healthconnect/healthconnect/internal/domain/prescription"
	"github.com/healthconnect/healthconnect/internal/domain/scheduling"
	"github.com/healthconnect/healthconnect/internal/platform/auth"
	"github.com/healthconnect/healthconnect/internal/platform/db"
	"github.com/healthconnect/healthconnect/internal/platform/middleware"
)

// DoctorDirectoryAdapter adapts the directory service to the scheduling
// domain's DoctorDirectory interface, avoiding an import cycle between the
// two packages.
type DoctorDirectoryAdapter struct {
	svc *directory.Service
}

func (a *DoctorDirectoryAdapter) GetDoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*scheduling.DoctorSchedule, error) {
	d, err := a.svc.GetDoctor(ctx, doctorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, scheduling.ErrDoctorNotFound
		}
		return nil, err
	}
	return &scheduling.DoctorSchedule{
		DoctorID:        d.ID,
		ConsultationFee: d.ConsultationFee,
		SlotsByDay:      d.SlotsByDay(),
	}, nil
}

// LabTestCatalogAdapter adapts the directory service to the scheduling
// domain's LabTestCatalog interface.
type LabTestCatalogAdapter struct {
	svc *directory.Service
}

func (a *LabTestCatalogAdapter) GetLabTest(ctx context.Context, testID uuid.UUID) (*scheduling.LabTestInfo, error) {
	t, err := a.svc.GetLabTest(ctx, testID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, scheduling.ErrTestNotFound
		}
		return nil, err
	}
	return &scheduling.LabTestInfo{
		TestID:         t.ID,
		Price:          t.Price,
		HomeCollection: t.HomeCollection,
	}, nil
}

// AppointmentPartiesAdapter adapts the appointment store to the prescription
// domain's AppointmentParties interface.
type AppointmentPartiesAdapter struct {
	repo scheduling.AppointmentRepository
}

func (a *AppointmentPartiesAdapter) GetAppointmentParties(ctx context.Context, appointmentID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	appt, err := a.repo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			return uuid.Nil, uuid.Nil, prescription.ErrAppointmentNotFound
		}
		return uuid.Nil, uuid.Nil, err
	}
	return appt.DoctorID, appt.PatientID, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "healthconnect-server",
		Short: "HealthConnect API Server",
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
		Short: "Start the HealthConnect API server",
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

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
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

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Config first: the log format itself depends on cfg.Env, which may come
	// from a .env file rather than the process environment.
	bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.Load()
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		bootstrap.Fatal().Err(err).Msg("invalid config")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Stores
	var (
		pool             *pgxpool.Pool
		userRepo         identity.UserRepository
		doctorRepo       directory.DoctorRepository
		hospitalRepo     directory.HospitalRepository
		pharmacyRepo     directory.PharmacyRepository
		labTestRepo      directory.LabTestRepository
		appointmentRepo  scheduling.AppointmentRepository
		testBookingRepo  scheduling.TestBookingRepository
		prescriptionRepo prescription.Repository
	)

	if cfg.Store == config.StorePostgres {
		ctx := context.Background()
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		userRepo = identity.NewUserRepoPG(pool)
		doctorRepo = directory.NewDoctorRepoPG(pool)
		hospitalRepo = directory.NewHospitalRepoPG(pool)
		pharmacyRepo = directory.NewPharmacyRepoPG(pool)
		labTestRepo = directory.NewLabTestRepoPG(pool)
		appointmentRepo = scheduling.NewAppointmentRepoPG(pool)
		testBookingRepo = scheduling.NewTestBookingRepoPG(pool)
		prescriptionRepo = prescription.NewRepoPG(pool)
	} else {
		logger.Info().Msg("using in-memory store")
		userRepo = identity.NewUserRepoMem()
		doctorRepo = directory.NewDoctorRepoMem()
		hospitalRepo = directory.NewHospitalRepoMem()
		pharmacyRepo = directory.NewPharmacyRepoMem()
		labTestRepo = directory.NewLabTestRepoMem()
		appointmentRepo = scheduling.NewAppointmentRepoMem()
		testBookingRepo = scheduling.NewTestBookingRepoMem()
		prescriptionRepo = prescription.NewRepoMem()
	}

	// Services
	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	identitySvc := identity.NewService(userRepo, tokenIssuer)
	directorySvc := directory.NewService(doctorRepo, hospitalRepo, pharmacyRepo, labTestRepo)
	schedulingSvc := scheduling.NewService(appointmentRepo, testBookingRepo,
		&DoctorDirectoryAdapter{svc: directorySvc},
		&LabTestCatalogAdapter{svc: directorySvc},
		cfg.SlotMinutes, logger)
	prescriptionSvc := prescription.NewService(prescriptionRepo,
		&AppointmentPartiesAdapter{repo: appointmentRepo})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	public := e.Group("/api", middleware.RateLimit(rateLimitCfg))
	authed := e.Group("/api", middleware.RateLimit(rateLimitCfg), auth.JWTMiddleware(tokenIssuer))

	identity.NewHandler(identitySvc).RegisterRoutes(public, authed)
	directory.NewHandler(directorySvc).RegisterRoutes(public, authed)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(public, authed)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(authed)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.Store).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
