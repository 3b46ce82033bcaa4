package imagefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
)

// HTTPRemoteImage открывает поток картинки по http/https URL.
// Схема выбирает транспорт внутри net/http; другие схемы отсекаются раньше, в use case.
type HTTPRemoteImage struct {
	client    *http.Client
	userAgent string
}

func NewHTTPRemoteImage(client *http.Client, userAgent string) *HTTPRemoteImage {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPRemoteImage{client: client, userAgent: userAgent}
}

// Open возвращает тело ответа; вызывающий обязан его закрыть.
// Ответ не 2xx - *domain.AssetFetchError со StatusCode.
func (h *HTTPRemoteImage) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.AssetFetchError{URL: rawURL, Err: err}
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &domain.AssetFetchError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &domain.AssetFetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return resp.Body, nil
}
