package main

import (
	"context"
	"database/sql"
	"delivery-tracking-service/internal/adapters/distance"
	"delivery-tracking-service/internal/adapters/estimator"
	"delivery-tracking-service/internal/adapters/events"
	"delivery-tracking-service/internal/adapters/notify"
	"delivery-tracking-service/internal/adapters/repositories"
	"delivery-tracking-service/internal/api"
	"delivery-tracking-service/internal/config"
	"delivery-tracking-service/internal/platform/db"
	"delivery-tracking-service/internal/ports"
	"delivery-tracking-service/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires concrete adapters (SQL/Mongo, ORS/haversine, log/SMTP/Kafka) behind
// ports, starts the tracker, the optional Kafka event consumer and the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqlDB, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	// Caches and the speed model always live in SQL, whichever store holds the schedule.
	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		log.Fatal(err)
	}

	// ORS uses persistent SQL caches to avoid repeated geocode/matrix calls.
	provider, geocoder, err := distance.NewProvider(cfg.DistanceProvider, cfg.ORSAPIKey, cfg.ORSBaseURL, sqlDB)
	if err != nil {
		log.Fatal(err)
	}

	repo, closeRepo, err := buildScheduleRepository(ctx, cfg, sqlDB)
	if err != nil {
		log.Fatal(err)
	}
	defer closeRepo()

	if _, err := os.Stat(cfg.SeedPath); err == nil {
		n, err := repositories.SeedFromFile(ctx, repo, cfg.SeedPath, geocoder)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Schedule seeded path=%s deliveries=%d", cfg.SeedPath, n)
	}

	deliveries, err := repo.ListDeliveries(ctx)
	if err != nil {
		log.Fatal(err)
	}

	est, err := estimator.NewSpeedModelEstimator(
		ctx, provider, cfg.AverageSpeedKmh, repositories.NewSQLSpeedModelStore(sqlDB),
	)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Speed model avg_kmh=%.2f samples=%d", est.Model().AverageSpeedKmh, est.Model().Samples)

	notifier, closeNotifier, err := buildNotifier(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeNotifier()

	controller, err := services.NewDeliveryController(deliveries, notifier, est)
	if err != nil {
		log.Fatal(err)
	}

	tracker := services.NewTracker(controller, repo)
	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("tracker stopped: %v", err)
		}
	}()

	if len(cfg.KafkaBrokers) > 0 {
		reader := events.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaEventsTopic, cfg.KafkaGroupID)
		defer reader.Close()

		consumer := events.NewKafkaEventConsumer(reader, tracker)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Printf("kafka event consumer stopped: %v", err)
			}
		}()
		log.Printf("Consuming delivery events topic=%s brokers=%v", cfg.KafkaEventsTopic, cfg.KafkaBrokers)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(tracker),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server run: %v", err)
		}
	}()
	log.Printf("Server listening addr=:%s deliveries=%d", cfg.Port, len(deliveries))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	cancel()
	<-trackerDone
}

func buildScheduleRepository(
	ctx context.Context,
	cfg *config.Config,
	sqlDB *sql.DB,
) (ports.ScheduleRepository, func(), error) {
	if cfg.Store != "mongo" {
		return repositories.NewSQLScheduleRepository(sqlDB), func() {}, nil
	}

	client, err := repositories.NewMongoClient(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, fmt.Errorf("build schedule repository: %w", err)
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}
	return repositories.NewMongoScheduleRepository(client.Database(cfg.MongoDB)), closeFn, nil
}

func buildNotifier(cfg *config.Config) (ports.Notifier, func(), error) {
	switch cfg.Notifier {
	case "smtp":
		n, err := notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("build notifier: %w", err)
		}
		return n, func() {}, nil
	case "kafka":
		w := notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic)
		n, err := notify.NewKafkaNotifier(w)
		if err != nil {
			return nil, nil, fmt.Errorf("build notifier: %w", err)
		}
		closeFn := func() {
			if err := w.Close(); err != nil {
				log.Printf("kafka writer close: %v", err)
			}
		}
		return n, closeFn, nil
	default:
		return notify.NewLogNotifier(), func() {}, nil
	}
}
