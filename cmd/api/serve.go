package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"portfolio/api/internal/app"
	"portfolio/api/internal/archive"
	"portfolio/api/internal/authpw"
	"portfolio/api/internal/config"
	"portfolio/api/internal/content"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/media"
	"portfolio/api/internal/search"
	"portfolio/api/internal/session"
	"portfolio/api/internal/site"
	"portfolio/api/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the public site, admin panel and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(commandContext(cmd), cfg)
		},
	}
}

// openStore connects to Postgres and applies pending migrations.
func openStore(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	for _, name := range applied {
		log.Printf("store: applied migration %s", name)
	}
	return db, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	dataStore := store.NewPostgresStore(db)

	authService := authpw.NewService(dataStore)
	if strings.TrimSpace(cfg.AdminEmail) != "" && cfg.AdminPassword != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Printf("auth: created admin %s", cfg.AdminEmail)
		}
	}

	seed, err := content.LoadSeed(cfg.SeedPath)
	if err != nil {
		return err
	}
	renderer, err := site.NewRenderer(cfg.SiteTitle)
	if err != nil {
		return err
	}

	var meili search.Index
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		meili = meiliClient
	}
	searchService := search.NewService(meili, search.NewPgFTS(db))
	if meiliClient != nil {
		meiliClient.OnRecover(searchService.Resync)
	}

	history := archive.New(cfg.ArchiveDir)
	contentService := content.NewService(dataStore,
		content.WithSeed(seed),
		content.WithRenderer(renderer),
		content.WithIndexer(searchService),
		content.WithArchiver(history),
	)
	source := contentService.Load(ctx)
	log.Printf("content: loaded %d entries from %s", contentService.Snapshot().Len(), source)

	var sessions app.SessionStore = dataStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisStore.Close()
		sessions = redisStore
		log.Printf("auth: using Redis for refresh sessions")
	} else {
		log.Printf("auth: using PostgreSQL for refresh sessions")
	}

	deps := app.Deps{
		Admins:   dataStore,
		Sessions: sessions,
		Auth:     authService,
		Content:  contentService,
		Pages:    renderer,
		Search:   searchService,
		Export:   export.NewService(contentService, nil, cfg.SiteTitle),
		History:  history,
	}
	if strings.TrimSpace(cfg.MediaEndpoint) != "" {
		uploads, err := media.New(media.Config{
			Endpoint:  cfg.MediaEndpoint,
			AccessKey: cfg.MediaAccessKey,
			SecretKey: cfg.MediaSecretKey,
			Bucket:    cfg.MediaBucket,
			UseSSL:    cfg.MediaUseSSL,
			PublicURL: cfg.MediaPublicURL,
		})
		if err != nil {
			return err
		}
		if err := uploads.EnsureBucket(ctx); err != nil {
			log.Printf("media: %v (uploads may fail)", err)
		}
		deps.Media = uploads
	}
	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if mailer.IsConfigured() {
		deps.Mailer = mailer
	}

	service := app.New(cfg, deps)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("portfolio listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	return nil
}
