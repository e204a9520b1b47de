package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-trivia-service/internal/app"
	"course-trivia-service/internal/config"
	"course-trivia-service/internal/infra/memory"
	"course-trivia-service/internal/infra/metrics"
	pgloader "course-trivia-service/internal/infra/postgres"
	redisstore "course-trivia-service/internal/infra/redis"
	transport "course-trivia-service/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer closeLog()
			return runServer(cmd.Context(), cfg, *port)
		},
	}
}

// stores groups the backing stores picked from config.
type stores struct {
	games    app.GameRepository
	profiles interface {
		app.ProfileStore
		app.ProgressStore
	}
	catalog app.CatalogRepository
	bank    memory.BankLoader
	close   func()
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	s := stores{close: func() {}}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return s, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return s, fmt.Errorf("connect postgres: %w", err)
		}
	}

	var catalogLoader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleCatalog())
	s.bank = memory.NewStaticBankLoader(sampleBank())
	if pool != nil {
		catalogLoader = pgloader.NewCatalogLoader(pool)
		s.bank = pgloader.NewBankLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			if pool != nil {
				pool.Close()
			}
			return s, fmt.Errorf("ping redis: %w", err)
		}
		s.games = redisstore.NewGameStore(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
		s.profiles = redisstore.NewProfileStore(client)
		s.catalog = redisstore.NewCatalogRepository(client, catalogLoader, catalogTTL)
		s.close = func() {
			_ = client.Close()
			if pool != nil {
				pool.Close()
			}
		}
		return s, nil
	}

	logger.Warning("redis not configured; profiles are kept in memory")
	s.games = memory.NewGameStore()
	s.profiles = memory.NewProfileStore()
	s.catalog = memory.NewCatalogRepository(catalogLoader, catalogTTL)
	if pool != nil {
		s.close = pool.Close
	}
	return s, nil
}

func runServer(ctx context.Context, cfg config.Config, portFlag string) error {
	s, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	bank, err := s.bank.LoadBank(ctx)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	if err := app.ValidateBank(bank); err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)
	games := app.NewGameService(s.games, bank, s.catalog, s.profiles, app.GameOptions{
		AnswerWindow:      config.TTLDuration(cfg.Trivia.AnswerWindow, app.DefaultAnswerWindow),
		QuestionsPerLevel: cfg.Trivia.QuestionsPerLevel,
		Policy: app.Policy{
			WinPercent:    cfg.Trivia.WinPercent,
			GiftThreshold: cfg.Trivia.GiftThreshold,
		},
		GiftCourseID: cfg.Trivia.GiftCourseID,
		NewRand:      func() app.Shuffler { return rand.New(rand.NewSource(time.Now().UnixNano())) },
		Recorder:     recorder,
	})
	profiles := app.NewProfileService(s.profiles, s.profiles, s.catalog)

	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(transport.RouterConfig{
		Profiles:       transport.NewProfileHandler(profiles),
		Games:          transport.NewWSHandler(games),
		Metrics:        promhttp.Handler(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	case err := <-serveErr:
		logger.Errorf("failed to start server: %v", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
