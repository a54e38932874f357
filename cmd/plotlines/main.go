package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"plotlines.app/internal/adapters/database"
	"plotlines.app/internal/app"
	"plotlines.app/internal/config"
	"plotlines.app/pkg/logger"
)

var (
	dispatchDate string

	seedEmail            string
	seedStation          string
	seedAuthor           string
	seedCity             string
	seedState            string
	seedLatitude         float64
	seedLongitude        float64
	seedConfirmed        bool
	seedSendConfirmation bool
)

var rootCmd = &cobra.Command{
	Use:           "plotlines",
	Short:         "Daily garden newsletter dispatch",
	Long:          `Generates one story per station and author each day and mails it to subscribers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found")
		}
		logger.Install(os.Getenv("LOG_LEVEL"))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the daily scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		application, err := app.NewApplication(ctx)
		if err != nil {
			return fmt.Errorf("initialize application: %w", err)
		}

		errCh := make(chan error, 1)
		go func() { errCh <- application.Start(ctx) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			slog.Info("Received shutdown signal...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return application.Shutdown(shutdownCtx)
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one dispatch cycle and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, err := newContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Cleanup()

		orchestrator := container.Orchestrator()
		date := dispatchDate
		if date == "" {
			date = orchestrator.Today()
		}

		summary, cycleErr := orchestrator.RunCycle(ctx, date)
		if summary != nil {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(summary); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
		}
		if cycleErr != nil {
			return fmt.Errorf("dispatch %s: %w", date, cycleErr)
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		db, err := database.InitDB(cfg.Database.GetDSN())
		if err != nil {
			return err
		}
		defer database.CloseDB(db)

		if err := database.RunMigrations(db); err != nil {
			return err
		}

		slog.Info("Database migrations completed successfully")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add a subscriber and its station/author combination",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		container, err := newContainer(ctx)
		if err != nil {
			return err
		}
		defer container.Cleanup()

		request := app.SeedRequest{
			Email:            seedEmail,
			StationCode:      seedStation,
			AuthorKey:        seedAuthor,
			City:             seedCity,
			State:            seedState,
			Confirmed:        seedConfirmed,
			SendConfirmation: seedSendConfirmation,
		}
		if cmd.Flags().Changed("lat") {
			request.Latitude = &seedLatitude
		}
		if cmd.Flags().Changed("lon") {
			request.Longitude = &seedLongitude
		}

		sub, err := container.SeedSubscriber(ctx, request)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "subscriber %d: %s -> %s/%s\n", sub.ID, sub.Email, sub.StationCode, sub.AuthorKey)
		return nil
	},
}

func newContainer(ctx context.Context) (*app.DependencyContainer, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	container, err := app.NewDependencyContainer(ctx, cfg, app.DependencyOverrides{})
	if err != nil {
		return nil, fmt.Errorf("create dependency container: %w", err)
	}
	return container, nil
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchDate, "date", "", "Run date (YYYY-MM-DD), defaults to today in DISPATCH_TIMEZONE")

	seedCmd.Flags().StringVar(&seedEmail, "email", "", "Subscriber email address")
	seedCmd.Flags().StringVar(&seedStation, "station", "BOU", "Weather station code")
	seedCmd.Flags().StringVar(&seedAuthor, "author", "hemingway", "Author key")
	seedCmd.Flags().StringVar(&seedCity, "city", "", "City shown in the newsletter")
	seedCmd.Flags().StringVar(&seedState, "state", "", "State shown in the newsletter")
	seedCmd.Flags().Float64Var(&seedLatitude, "lat", 0, "Station latitude")
	seedCmd.Flags().Float64Var(&seedLongitude, "lon", 0, "Station longitude")
	seedCmd.Flags().BoolVar(&seedConfirmed, "confirmed", false, "Mark the subscriber as already confirmed")
	seedCmd.Flags().BoolVar(&seedSendConfirmation, "send-confirmation", false, "Email the confirmation link to an unconfirmed subscriber")
	_ = seedCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(serveCmd, dispatchCmd, migrateCmd, seedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
