package main

import (
	"context"
	"database/sql"
	"delivery-tracking-service/internal/adapters/distance"
	"delivery-tracking-service/internal/adapters/estimator"
	"delivery-tracking-service/internal/adapters/events"
	"delivery-tracking-service/internal/adapters/notify"
	"delivery-tracking-service/internal/adapters/repositories"
	"delivery-tracking-service/internal/config"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/db"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dbtool",
		Short:        "Schema, seed and replay tooling for the delivery tracking service",
		SilenceUsage: true,
	}
	cmd.AddCommand(initCmd(), seedCmd(), replayCmd())
	return cmd
}

// openDB loads config and opens the configured SQL database.
func openDB() (*sql.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, cfg, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sqlDB, _, err := openDB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			log.Println("Initializing database schema...")
			if err := repositories.InitSchema(cmd.Context(), sqlDB); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}
			log.Println("Schema ready.")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Load a JSON or YAML schedule into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sqlDB, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if file == "" {
				file = cfg.SeedPath
			}
			if err := repositories.InitSchema(cmd.Context(), sqlDB); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}

			_, geocoder, err := distance.NewProvider(cfg.DistanceProvider, cfg.ORSAPIKey, cfg.ORSBaseURL, sqlDB)
			if err != nil {
				return err
			}

			log.Printf("Seeding database from %s...", file)
			n, err := repositories.SeedFromFile(cmd.Context(), repositories.NewSQLScheduleRepository(sqlDB), file, geocoder)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			log.Printf("Seeding complete. deliveries=%d", n)
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "Schedule file (defaults to SEED_PATH)")
	return c
}

func replayCmd() *cobra.Command {
	var file string
	var persist bool

	c := &cobra.Command{
		Use:   "replay",
		Short: "Run a JSON array of delivery events through the controller and print outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sqlDB, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			evs, err := loadEvents(file)
			if err != nil {
				return err
			}

			repo := repositories.NewSQLScheduleRepository(sqlDB)
			deliveries, err := repo.ListDeliveries(cmd.Context())
			if err != nil {
				return err
			}

			var sink ports.ScheduleRepository
			if persist {
				sink = repo
			}
			return replayEvents(cmd.Context(), deliveries, evs, cfg.AverageSpeedKmh, sink, cmd.OutOrStdout())
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "Events file (required)")
	c.Flags().BoolVar(&persist, "persist", false, "Write arrival state back to the database")
	_ = c.MarkFlagRequired("file")
	return c
}

func loadEvents(path string) ([]domain.DeliveryEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load events: read %q: %w", path, err)
	}

	var msgs []events.DeliveryEventMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("load events: parse json: %w", err)
	}

	out := make([]domain.DeliveryEvent, 0, len(msgs))
	for i, m := range msgs {
		ev, err := m.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("load events: item at index %d: %w", i+1, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// replayEvents processes evs in order against an in-memory controller.
// Notifications go to the log; the speed model starts fresh and is not persisted.
func replayEvents(
	ctx context.Context,
	deliveries []domain.Delivery,
	evs []domain.DeliveryEvent,
	speedKmh float64,
	repo ports.ScheduleRepository,
	w io.Writer,
) error {
	est, err := estimator.NewSpeedModelEstimator(ctx, distance.NewHaversineDistanceProvider(), speedKmh, nil)
	if err != nil {
		return err
	}
	controller, err := services.NewDeliveryController(deliveries, notify.NewLogNotifier(), est)
	if err != nil {
		return err
	}

	for _, ev := range evs {
		out, err := controller.Process(ctx, ev)
		status := "ok"
		if err != nil {
			status = err.Error()
		}
		fmt.Fprintf(w, "id=%s matched=%t on_time=%t sent=%d failed=%d speed_updated=%t status=%q\n",
			ev.ID, out.Matched, out.Delivery.OnTime, out.NotificationsSent, out.NotificationsFailed,
			out.SpeedModelUpdated, status)

		if out.Matched && repo != nil {
			if err := repo.SaveDeliveryStatus(ctx, out.Delivery); err != nil {
				return fmt.Errorf("replay: persist %q: %w", ev.ID, err)
			}
		}
	}

	m := est.Model()
	fmt.Fprintf(w, "speed_model avg_kmh=%.2f samples=%d\n", m.AverageSpeedKmh, m.Samples)
	return nil
}
