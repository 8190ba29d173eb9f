package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/alexdossss/study-hub/internal/activity"
	"github.com/alexdossss/study-hub/internal/aigen"
	"github.com/alexdossss/study-hub/internal/app"
	"github.com/alexdossss/study-hub/internal/config"
	"github.com/alexdossss/study-hub/internal/email"
	"github.com/alexdossss/study-hub/internal/export"
	"github.com/alexdossss/study-hub/internal/filestore"
	"github.com/alexdossss/study-hub/internal/llm"
	"github.com/alexdossss/study-hub/internal/logger"
	"github.com/alexdossss/study-hub/internal/realtime"
	"github.com/alexdossss/study-hub/internal/search"
	"github.com/alexdossss/study-hub/internal/session"
	"github.com/alexdossss/study-hub/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("study-hub-api", logger.Options{})
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("study-hub-api", logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	cfg.LogSummary(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("migrations applied")
	}
	dataStore := store.NewPostgresStore(db)

	hub := realtime.NewHub(log)
	var revoker app.TokenRevoker
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisClient, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		redisStore := session.NewRedisStoreWithClient(redisClient)
		defer redisStore.Close()
		revoker = redisStore
		startBroker(ctx, hub, redisClient, log)
	} else {
		log.Warn().Msg("redis disabled: logout revocation off, realtime is process-local")
	}

	var meili *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
		defer meili.Close()
	}
	searchService := search.NewService(meili, search.NewPgFTS(db), log)
	go searchService.ReindexAllFromPG(ctx)

	var files app.FileStore
	if cfg.FileStorageEnabled() {
		minio, err := filestore.NewMinIO(ctx, filestore.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("file storage connection failed")
		}
		files = minio
	}

	completer := llm.New(llm.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.LLMTimeout,
	})

	mailer := email.NewService(email.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		From:      cfg.SMTPFrom,
		FromName:  cfg.SMTPFromName,
		PublicURL: cfg.PublicURL,
	})

	var publisher activity.Publisher = activity.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := activity.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafka.Close()
		publisher = kafka
	}

	service := app.New(cfg, app.Dependencies{
		Store:     dataStore,
		Revoker:   revoker,
		Realtime:  hub,
		Search:    searchService,
		Files:     files,
		Mail:      mailer,
		Exporter:  export.NewService(log),
		Generator: aigen.NewGenerator(completer),
		Activity:  publisher,
		Logger:    log,
	})

	socket := realtime.NewHandler(ctx, hub, service, service, log)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, socket, log)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generation requests wait on the model.
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("study hub api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

// startBroker fans realtime frames out through Redis so every instance
// delivers to its own sockets. The hub stays local until the subscription
// is confirmed.
func startBroker(ctx context.Context, hub *realtime.Hub, client *redis.Client, log zerolog.Logger) {
	broker := realtime.NewRedisBroker(client, log)
	ready := make(chan struct{})
	go func() {
		if err := broker.Run(ctx, hub, ready); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("realtime broker stopped")
		}
	}()
	go func() {
		select {
		case <-ready:
			hub.SetBroker(broker)
		case <-ctx.Done():
		}
	}()
}
