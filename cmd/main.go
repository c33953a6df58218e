package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"PracticeManager/cache"
	"PracticeManager/config"
	"PracticeManager/database"
	"PracticeManager/jobs"
	"PracticeManager/logger"
	"PracticeManager/mailer"
	"PracticeManager/routes"
	"PracticeManager/storage"
)

func main() {
	root := &cobra.Command{
		Use:           "practice-manager",
		Short:         "Practice management API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		log := logger.New(false)
		log.Fatal().Err(err).Msg("command failed")
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.IsDev())

			db, err := database.InitDB(cmd.Context(), cfg.DBURL, cfg.IsDev(), log)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the email workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig, migrate bool) error {
	log := logger.New(cfg.IsDev())

	// Initialize the database
	db, err := database.InitDB(ctx, cfg.DBURL, cfg.IsDev(), log)
	if err != nil {
		return err
	}
	if migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	// Initialize Redis
	redisClient, err := database.NewRedisClient(ctx, database.DefaultRedisConfig(cfg.RedisAddress), log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	appCache, err := cache.NewCache(redisClient)
	if err != nil {
		return err
	}

	objects, err := newObjectStore(cfg)
	if err != nil {
		return err
	}

	sender := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
	})
	jobService, err := jobs.NewJobService(cfg.RedisAddress, cfg.WorkerConcurrency, sender, log)
	if err != nil {
		return err
	}
	if err := jobService.Start(); err != nil {
		return err
	}
	defer jobService.Stop()

	handler, err := routes.SetupRoutes(routes.Dependencies{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Cache:   appCache,
		Objects: objects,
		Emails:  jobService,
	})
	if err != nil {
		return err
	}

	// Configure and start the server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	done := make(chan struct{})
	defer close(done)
	go reportPool(done, redisClient, log)

	// Graceful shutdown handling
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log.Info().Msg("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server exited gracefully")
	return nil
}

func newObjectStore(cfg *config.AppConfig) (storage.Store, error) {
	if cfg.StorageDriver == "memory" {
		return storage.NewMemory(), nil
	}
	sess, err := storage.NewSession(cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		return nil, err
	}
	return storage.NewS3(sess, cfg.S3Bucket), nil
}

// reportPool logs Redis pool statistics every minute until done is closed.
func reportPool(done <-chan struct{}, client *redis.Client, log zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			database.LogRedisPool(client, log)
		}
	}
}
