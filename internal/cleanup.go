package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"room-listing-service/internal/configs"
	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
	"room-listing-service/internal/core/usecase"

	"github.com/google/uuid"
)

// RunImageCleanup - однократная сборка мусора в каталоге картинок без HTTP сервера.
// Использует те же Durable Store и каталог, что и сервис.
func RunImageCleanup() (*domain.CleanupReport, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := newInfrastructure(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	logger := infra.baseLogger.WithFields(port.Fields{"component": "clean-images"})
	defer infra.close(logger)

	traceID := uuid.NewString()
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)
	ctx = contextkeys.ContextWithLogger(ctx, logger.WithFields(port.Fields{"trace_id": traceID}))

	report, err := usecase.NewCollectOrphanImagesUseCase(infra.store, infra.assets, infra.events).Execute(ctx)
	if err != nil {
		logger.Error("Image cleanup failed", err, nil)
		return nil, err
	}
	return report, nil
}
