package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"juzbuild-api/internal/config"
	httpapi "juzbuild-api/internal/http"
	"juzbuild-api/internal/repository"
	"juzbuild-api/internal/service"
	"juzbuild-api/internal/store"
	"juzbuild-api/pkg/database"
	"juzbuild-api/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "juzbuild-api")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessions := store.NewRedisKV(redisClient)

	// Storage: the database is the only production store. With DB_ENABLED
	// false every data operation reports the store as unavailable; an
	// enabled but unreachable database is fatal at startup, never a silent
	// degradation.
	var db *sql.DB
	var collections repository.CollectionAccessor = repository.NewDisabledCollections()
	var websitesRepo repository.WebsitesRepo = repository.NewDisabledWebsitesRepo()
	var usersRepo repository.UsersRepo = repository.NewDisabledUsersRepo()
	if cfg.DBEnabled {
		d, err := database.NewPostgres(&cfg.Database)
		if err != nil {
			log.Fatal("DB enabled but connection failed", zap.Error(err))
		}
		db = d
		collections = repository.NewPostgresCollections(db)
		websitesRepo = repository.NewPostgresWebsitesRepo(db)
		usersRepo = repository.NewPostgresUsersRepo(db)
		log.Info("DB enabled for juzbuild-api")
	} else {
		log.Warn("DB disabled, all data operations will report the store as unavailable")
	}

	resolver := repository.NewTenantResolver(websitesRepo, usersRepo, log)

	leads := service.NewLeadService(collections, log)
	properties := service.NewPropertyService(collections, log)
	types := service.NewPropertyTypeService(collections, log)
	authors := service.NewAuthorService(collections, log)
	importer := service.NewImportService(properties, types, log)
	builder := service.NewBuilderClient(cfg.Builder.BaseURL, cfg.Builder.Timeout, log)

	// Seed the shared property type catalog. Non-fatal: tenants can still
	// create their own types if the shared partition is unreachable.
	if db != nil {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := types.EnsureDefaults(seedCtx); err != nil {
			log.Warn("failed to seed default property types", zap.Error(err))
		}
		seedCancel()
	}

	metrics := httpapi.NewAPIMetrics()
	router := httpapi.NewRouter(log, metrics, httpapi.Auth(sessions, log))
	router.RegisterEntityRoutes(
		httpapi.NewLeadsHandler(leads, resolver, log),
		httpapi.NewPropertiesHandler(properties, importer, resolver, log),
		httpapi.NewPropertyTypesHandler(types, resolver, log),
		httpapi.NewAuthorsHandler(authors, resolver, log),
	)
	router.RegisterWebsiteRoutes(httpapi.NewWebsitesHandler(websitesRepo, builder, log))
	router.RegisterOpsRoutes()

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = database.Close(db)
	}
}
