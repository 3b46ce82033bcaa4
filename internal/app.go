package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-listing-service/internal/adapters/cache"
	"room-listing-service/internal/adapters/gemini"
	"room-listing-service/internal/adapters/imagefetch"
	"room-listing-service/internal/adapters/localfs"
	"room-listing-service/internal/adapters/rest"
	"room-listing-service/internal/configs"
	"room-listing-service/internal/constants"
	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/contracts"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
	"room-listing-service/internal/core/usecase"

	"github.com/redis/go-redis/v9"
)

const userAgent = "room-listing-service/1.0"

type App struct {
	config    *configs.AppConfig
	apiServer *rest.Server
	catalog   *usecase.RoomCatalog
	logger    port.LoggerPort

	infra       *infrastructure
	redisClient *redis.Client
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ЛОГГЕРЫ, ХРАНИЛИЩЕ, СОБЫТИЯ ---
	infra, err := newInfrastructure(context.Background(), appConfig)
	if err != nil {
		return nil, err
	}
	appLogger := infra.baseLogger.WithFields(port.Fields{"component": "app"})

	// ошибки ниже должны освобождать уже открытые ресурсы
	ok := false
	defer func() {
		if !ok {
			infra.close(appLogger)
		}
	}()

	// --- 2. КЭШ ---
	var cacheTier port.CacheTierPort
	var redisClient *redis.Client
	switch appConfig.Cache.Backend {
	case configs.CacheBackendRedis:
		redisClient, err = cache.NewRedisClient(context.Background(), appConfig.Cache.RedisAddr, appConfig.Cache.RedisPassword, appConfig.Cache.RedisDB)
		if err != nil {
			appLogger.Error("Failed to connect to Redis", err, port.Fields{"addr": appConfig.Cache.RedisAddr})
			return nil, err
		}
		cacheTier = cache.NewRedisCache(redisClient, constants.CacheKeyRooms)
	default:
		cacheTier = cache.NewMemoryCache()
	}
	appLogger.Info("Cache tier initialized", port.Fields{"backend": appConfig.Cache.Backend})

	// --- 3. ВНЕШНИЕ СЕРВИСЫ ---
	textService := gemini.NewClient(appConfig.TextService.BaseURL,
		appConfig.TextService.Model,
		appConfig.TextService.APIKey,
		appConfig.TextService.RPS,
		&http.Client{Timeout: appConfig.TextService.Timeout})
	if appConfig.TextService.APIKey == "" {
		appLogger.Warn("GEMINI_API_KEY is not set, ingestion requests will fail", nil)
	}

	remoteImages := imagefetch.NewHTTPRemoteImage(&http.Client{Timeout: appConfig.Fetch.Timeout}, userAgent)

	validator, err := contracts.NewListingRecordValidator()
	if err != nil {
		appLogger.Error("Failed to compile listing record schema", err, nil)
		return nil, err
	}

	areas, err := loadAreas(appConfig, appLogger)
	if err != nil {
		return nil, err
	}

	// --- 4. USE CASES ---
	namer := usecase.NewAssetNamer(nil)
	ingestUseCase := usecase.NewIngestListingUseCase(infra.store, textService, validator, infra.assets, infra.events, appConfig.TextService.Timeout)
	uploadUseCase := usecase.NewUploadImagesUseCase(infra.assets, namer)
	fetchUseCase := usecase.NewFetchRemoteImageUseCase(infra.assets, remoteImages, namer, appConfig.Fetch.Timeout)
	cleanupUseCase := usecase.NewCollectOrphanImagesUseCase(infra.store, infra.assets, infra.events)
	catalog := usecase.NewRoomCatalog(infra.store, cacheTier, areas)

	// первичная загрузка коллекции; неудача не мешает старту
	loadCtx, cancelLoad := context.WithTimeout(contextkeys.ContextWithLogger(context.Background(), infra.baseLogger), 30*time.Second)
	rooms, err := catalog.Load(loadCtx)
	if err != nil {
		appLogger.Warn("Initial room collection load failed, starting with empty collection", port.Fields{"error": err.Error()})
	} else {
		appLogger.Info("Room collection loaded", port.Fields{"rooms": len(rooms), "source": catalog.DataSource(loadCtx)})
	}
	cancelLoad()

	appLogger.Info("All use cases initialized", nil)

	// --- 5. REST ---
	router := rest.NewRouter(rest.Handlers{
		Ingest:  rest.NewIngestHandlers(ingestUseCase),
		Assets:  rest.NewAssetHandlers(uploadUseCase, fetchUseCase, cleanupUseCase, infra.assets),
		Catalog: rest.NewCatalogHandlers(catalog),

		AssetsDir:    appConfig.Storage.AssetsDir,
		PublicPrefix: constants.AssetsPublicPrefix,
	}, appConfig.Rest.CORSAllowedOrigins, infra.baseLogger)
	apiServer := rest.NewServer(appConfig.Rest.PORT, router, infra.baseLogger)

	ok = true
	return &App{
		config:      appConfig,
		apiServer:   apiServer,
		catalog:     catalog,
		logger:      appLogger,
		infra:       infra,
		redisClient: redisClient,
	}, nil
}

// Run запускает HTTP сервер и ждет сигнала завершения.
func (a *App) Run() error {
	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.apiServer.Stop(stopCtx); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}

		a.catalog.Close()

		if a.redisClient != nil {
			if err := a.redisClient.Close(); err != nil {
				a.logger.Error("Error closing Redis client", err, nil)
			}
		}

		a.logger.Info("Application shut down gracefully.", nil)
		a.infra.close(a.logger)
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
		return nil
	case err := <-serverErrors:
		a.logger.Error("HTTP server failed, shutting down", err, nil)
		return err
	}
}

func loadAreas(cfg *configs.AppConfig, logger port.LoggerPort) (domain.AreaKeywords, error) {
	if cfg.AreasFile == "" {
		return nil, nil
	}
	areas, err := configs.LoadAreaKeywords(cfg.AreasFile)
	if err != nil {
		logger.Error("Failed to load area keywords", err, port.Fields{"path": cfg.AreasFile})
		return nil, err
	}
	logger.Info("Area keywords loaded", port.Fields{"path": cfg.AreasFile, "areas": len(areas)})
	return areas, nil
}

// localAssets открывает каталог картинок
func localAssets(cfg *configs.AppConfig) (*localfs.AssetDirectory, error) {
	assets, err := localfs.NewAssetDirectory(cfg.Storage.AssetsDir, constants.AssetsPublicPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to open assets directory: %w", err)
	}
	return assets, nil
}
