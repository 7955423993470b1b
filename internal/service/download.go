// download.go — сервис proxy download файлов вложений из ERP backend.
// Pipeline: Attachment (кэш) → fileUrl/thumbnailUrl → streaming download.
// Поддержка HTTP Range requests, ленивая очистка кэша при 404 от backend.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики download.
var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "att_downloads_total",
		Help: "Общее количество запросов на скачивание (по статусу).",
	}, []string{"status"})

	downloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "att_download_duration_seconds",
		Help:    "Длительность proxy download (от запроса до завершения streaming).",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "att_download_bytes_total",
		Help: "Общее количество переданных байт при скачивании.",
	})

	lazyCleanupTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "att_lazy_cleanup_total",
		Help: "Количество вложений, убранных из кэша после 404 от backend.",
	})
)

// Fetcher — получение файла по fileUrl. Реализуется *apiclient.Client.
type Fetcher interface {
	Fetch(ctx context.Context, fileURL, rangeHeader string) (*http.Response, error)
}

// DownloadService — proxy download файлов вложений.
type DownloadService struct {
	store   *AttachmentStore
	fetcher Fetcher
	logger  *slog.Logger
}

// NewDownloadService создаёт сервис proxy download.
func NewDownloadService(store *AttachmentStore, fetcher Fetcher, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		store:   store,
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "download_service")),
	}
}

// Download передаёт файл вложения (или его уменьшенную копию) в w.
//
// Вложение ищется в кэше: скачать можно только то, что было показано.
// При 404 от backend вложение убирается из кэша и возвращается ErrFileDeleted.
// После начала передачи тела ошибки только логируются.
func (ds *DownloadService) Download(ctx context.Context, w http.ResponseWriter, id string, thumbnail bool, rangeHeader string) error {
	start := time.Now()

	a, ok := ds.store.Find(id)
	if !ok {
		downloadsTotal.WithLabelValues("not_found").Inc()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	fileURL := a.FileURL
	if thumbnail {
		if a.ThumbnailURL == "" {
			downloadsTotal.WithLabelValues("not_found").Inc()
			return ErrNoThumbnail
		}
		fileURL = a.ThumbnailURL
	}

	resp, err := ds.fetcher.Fetch(ctx, fileURL, rangeHeader)
	if err != nil {
		downloadsTotal.WithLabelValues("backend_error").Inc()
		return fmt.Errorf("скачивание вложения %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		ds.logger.Warn("Файл не найден на backend, вложение убрано из кэша",
			slog.String("id", id),
			slog.String("file_url", fileURL),
		)
		lazyCleanupTotal.Inc()
		ds.store.Evict(id)
		downloadsTotal.WithLabelValues("lazy_cleanup").Inc()
		return ErrFileDeleted
	}

	// Допустимые статусы: 200 (полный файл) или 206 (частичный контент)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		downloadsTotal.WithLabelValues("backend_error").Inc()
		return fmt.Errorf("backend вернул неожиданный статус %d для вложения %s", resp.StatusCode, id)
	}

	copyHeaders(w, resp)
	if w.Header().Get("Content-Type") == "" && a.MimeType != "" && !thumbnail {
		w.Header().Set("Content-Type", a.MimeType)
	}
	if w.Header().Get("Content-Disposition") == "" && !thumbnail {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.OriginalName))
	}
	w.WriteHeader(resp.StatusCode)

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		ds.logger.Error("Ошибка streaming download",
			slog.String("id", id),
			slog.Int64("bytes_written", written),
			slog.String("error", err.Error()),
		)
		downloadsTotal.WithLabelValues("stream_error").Inc()
		return nil
	}

	duration := time.Since(start)
	downloadsTotal.WithLabelValues("success").Inc()
	downloadDuration.Observe(duration.Seconds())
	downloadBytesTotal.Add(float64(written))

	ds.logger.Debug("Download завершён",
		slog.String("id", id),
		slog.Bool("thumbnail", thumbnail),
		slog.Int64("bytes", written),
		slog.Duration("duration", duration),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}

// copyHeaders пробрасывает заголовки ответа backend в ответ клиенту.
func copyHeaders(w http.ResponseWriter, resp *http.Response) {
	headersToProxy := []string{
		"Content-Type",
		"Content-Length",
		"Content-Disposition",
		"Content-Range",
		"Accept-Ranges",
		"ETag",
		"Last-Modified",
		"Cache-Control",
	}

	for _, h := range headersToProxy {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
}
