package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/emrgen/manga/internal/cache"
	"github.com/emrgen/manga/internal/config"
	"github.com/emrgen/manga/internal/jobs"
	"github.com/emrgen/manga/internal/queue"
	"github.com/emrgen/manga/internal/service"
	"github.com/emrgen/manga/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server represents the server
type Server struct {
	cfg *config.Config
}

// NewServer creates a new server
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Start starts the server and blocks until it is stopped
func (s *Server) Start() {
	if err := Start(s.cfg); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// Start listens on the configured port and serves until SIGTERM, SIGINT or SIGTSTP.
func Start(cfg *config.Config) error {
	l, err := net.Listen("tcp", ":"+cfg.HTTP.Port)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	defer stop()

	logrus.Infof("Press Ctrl+C to stop the server")
	return Serve(ctx, cfg, l)
}

// Serve wires the store, services and background jobs and serves the REST API
// on l until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, l net.Listener) error {
	provided, err := store.NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := provided.Close(); err != nil {
			logrus.Errorf("error closing store: %v", err)
		}
	}()

	publisher, err := newPublisher(cfg.Kafka)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logrus.Errorf("error closing change publisher: %v", err)
		}
	}()

	projects := service.NewMangaProjectService(provided.Documents, service.WithPublisher(publisher))
	records, closeRecords := newRecordCache(cfg)
	defer closeRecords()
	publication := service.NewPublicationService(projects, cfg.Publish.CacheTTL, service.WithRecordCache(records))
	backups := service.NewProjectBackupService(projects, provided.Backups)

	var cronJobs []jobs.CronJob
	if provided.Backups != nil && cfg.Backup.Keep > 0 {
		cronJobs = append(cronJobs, jobs.NewBackupCleaner(provided.Backups, cfg.Backup.Keep, cfg.Backup.Schedule))
	}
	executor := jobs.NewTaskExecutor(nil, cronJobs)
	if err := executor.Run(); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	defer executor.Stop()

	restServer := &http.Server{
		Handler:           NewRouter(cfg.HTTP, NewHandler(projects, publication, backups)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Info("starting rest server on: ", l.Addr().String())
		if err := restServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logrus.Infof("rest server stopped")
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return restServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// NewRouter wraps the API handler with cors, rate limiting and request logging.
func NewRouter(cfg config.HTTPConfig, api http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	limited := RateLimitInterceptor(cfg.RateLimit, cfg.RateBurst)(api)
	return RequestTimeInterceptor(c.Handler(limited))
}

// newRecordCache picks the cache of public records. A redis cache is shared by
// every server instance pointing at the same redis.
func newRecordCache(cfg *config.Config) (cache.Cache, func()) {
	if cfg.Publish.Cache != config.CacheRedis {
		return cache.NewMemory(cfg.Publish.CacheTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Protocol: 2,
	})
	logrus.Infof("caching published projects in redis at %s", cfg.Redis.Addr)
	return cache.NewRedis(client, cfg.Publish.CacheTTL), func() {
		if err := client.Close(); err != nil {
			logrus.Errorf("error closing redis cache: %v", err)
		}
	}
}

func newPublisher(cfg config.KafkaConfig) (queue.ChangePublisher, error) {
	if cfg.Brokers == "" {
		return queue.NewNopPublisher(), nil
	}

	publisher, err := queue.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, err
	}
	logrus.Infof("publishing project changes to kafka topic %s", cfg.Topic)
	return publisher, nil
}
