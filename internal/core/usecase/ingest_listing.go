package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"
)

// IngestListingUseCase превращает свободный текст в Listing и дописывает его в Durable Store.
// С кэшем каталога не работает: клиент сам перезагружает каталог после успешного ингеста.
type IngestListingUseCase struct {
	store     port.DocumentStorePort
	text      port.TextServicePort
	validator port.RecordValidatorPort
	assets    port.AssetDirectoryPort
	events    port.ListingEventsPort
	timeout   time.Duration
}

func NewIngestListingUseCase(store port.DocumentStorePort,
	text port.TextServicePort,
	validator port.RecordValidatorPort,
	assets port.AssetDirectoryPort,
	events port.ListingEventsPort,
	timeout time.Duration) *IngestListingUseCase {
	return &IngestListingUseCase{
		store:     store,
		text:      text,
		validator: validator,
		assets:    assets,
		events:    events,
		timeout:   timeout,
	}
}

func (uc *IngestListingUseCase) Execute(ctx context.Context, req domain.IngestRequest) (*domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":    "IngestListing",
		"image_files": len(req.ImageFiles),
	})

	if strings.TrimSpace(req.FreeText) == "" {
		return nil, domain.ErrEmptyFreeText
	}

	// 1. id по текущему состоянию хранилища
	doc, err := uc.store.Load(ctx)
	if err != nil {
		logger.Error("Failed to read durable store", err, nil)
		return nil, fmt.Errorf("failed to read rooms document: %w", err)
	}
	nextID := domain.NextListingID(doc.Rooms)
	logger = logger.WithFields(port.Fields{"room_id": nextID})
	logger.Info("Use case started: allocated room id", nil)

	// 2-3. вызов текстового сервиса, без автоматических повторов
	raw, err := uc.generate(ctx, BuildIngestPrompt(req.FreeText, nextID))
	if err != nil {
		logger.Error("Text service call failed", err, nil)
		return nil, &domain.IngestionServiceError{Stage: domain.StageInvoke, Err: err}
	}

	// 4. разбор ответа; при ошибке в хранилище ничего не пишется
	record, err := SanitizeResponse(raw)
	if err != nil {
		logger.Error("Text service response is not parseable", err, port.Fields{"raw_response": raw})
		return nil, &domain.IngestionServiceError{Stage: domain.StageParse, Raw: raw, Err: err}
	}
	if uc.validator != nil {
		if err := uc.validator.ValidateRecord(record); err != nil {
			logger.Error("Text service record failed validation", err, port.Fields{"raw_response": raw})
			return nil, &domain.IngestionServiceError{Stage: domain.StageValidate, Raw: raw, Err: err}
		}
	}

	listing, warnings := listingFromRecord(record)
	if len(warnings) > 0 {
		logger.Warn("Some record fields were dropped during normalization", port.Fields{"warnings": warnings})
	}
	listing.ID = domain.NewListingID(nextID)

	// 5. подтверждённый клиентом список картинок важнее того, что вернул сервис
	if len(req.ImageFiles) > 0 {
		listing.Images = uc.imagePaths(req.ImageFiles)
	}

	// 6. дописываем запись; если id успели занять, выделяем новый
	// хранилище может вызвать mutate повторно (CAS в Postgres), поэтому каждая попытка начинает с nextID
	err = uc.store.Update(ctx, func(doc *domain.ListingsDocument) error {
		listing.ID = domain.NewListingID(nextID)
		if domain.ContainsID(doc.Rooms, nextID) {
			reassigned := domain.NextListingID(doc.Rooms)
			logger.Warn("Allocated id was taken by a concurrent writer, reassigning", port.Fields{"new_room_id": reassigned})
			listing.ID = domain.NewListingID(reassigned)
		}
		doc.Rooms = append(doc.Rooms, listing)
		return nil
	})
	if err != nil {
		logger.Error("Failed to append room to durable store", err, nil)
		return nil, fmt.Errorf("failed to append room: %w", err)
	}

	if uc.events != nil {
		if err := uc.events.ListingIngested(ctx, listing); err != nil {
			logger.Error("Failed to publish listing ingested event", err, nil)
		}
	}

	logger.Info("Use case finished: room appended", port.Fields{"final_room_id": listing.ID.String()})
	return &listing, nil
}

func (uc *IngestListingUseCase) generate(ctx context.Context, prompt string) (string, error) {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	raw, err := uc.text.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("text service did not answer within %s: %w", uc.timeout, err)
		}
		return "", err
	}
	return raw, nil
}

// imagePaths строит относительные пути из имён файлов в порядке, заданном клиентом.
func (uc *IngestListingUseCase) imagePaths(names []string) []string {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
		if base == "." || base == "/" || base == ".." {
			continue
		}
		paths = append(paths, uc.assets.PublicPath(base))
	}
	return paths
}
