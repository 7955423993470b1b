// catalog.go — CatalogService: справочники и статистика backend.
// Определяет действующую политику загрузки: значения backend перекрывают конфигурацию.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// DefaultCatalogRetry — пауза между попытками Ensure после неудачной загрузки.
const DefaultCatalogRetry = 30 * time.Second

// MetadataSource — источник справочников. Реализуется *apiclient.Client.
type MetadataSource interface {
	Catalogs(ctx context.Context) (*model.Catalogs, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// CatalogService — кэш справочников backend.
type CatalogService struct {
	source   MetadataSource
	defaults UploadPolicy
	ttl      time.Duration
	logger   *slog.Logger

	// retry — пауза Ensure после ошибки, now — часы (подменяются в тестах)
	retry time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	catalogs *model.Catalogs
	stats    *model.Stats
	loadedAt time.Time
	failedAt time.Time
}

// NewCatalogService создаёт сервис справочников.
// defaults — политика из конфигурации, ttl — период перечитывания (0 — только явный Load).
func NewCatalogService(source MetadataSource, defaults UploadPolicy, ttl time.Duration, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		source:   source,
		defaults: defaults.normalized(),
		ttl:      ttl,
		retry:    DefaultCatalogRetry,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "catalog_service")),
	}
}

// SetRetryInterval задаёт паузу между попытками Ensure после ошибки (<= 0 — без паузы).
func (cs *CatalogService) SetRetryInterval(d time.Duration) {
	cs.mu.Lock()
	cs.retry = d
	cs.mu.Unlock()
}

// Load параллельно загружает справочники и статистику.
// При ошибке сохраняются прежние значения (или умолчания конфигурации).
func (cs *CatalogService) Load(ctx context.Context) error {
	var (
		catalogs *model.Catalogs
		stats    *model.Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalogs, err = cs.source.Catalogs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = cs.source.Stats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		cs.mu.Lock()
		cs.failedAt = cs.now()
		cs.mu.Unlock()
		cs.logger.Warn("Справочники backend недоступны, используются умолчания",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("загрузка справочников: %w", err)
	}

	cs.mu.Lock()
	cs.catalogs = catalogs
	cs.stats = stats
	cs.loadedAt = cs.now()
	cs.failedAt = time.Time{}
	cs.mu.Unlock()

	policy := cs.Policy()
	cs.logger.Info("Справочники загружены",
		slog.Int("max_files", policy.MaxFiles),
		slog.Int64("max_size", policy.MaxSize),
		slog.Int("allowed_types", len(policy.AllowedTypes)),
	)
	return nil
}

// Ensure перечитывает справочники, если они не загружены или устарели.
// После неудачной попытки следующая выполняется не раньше, чем через retry.
func (cs *CatalogService) Ensure(ctx context.Context) {
	cs.mu.RLock()
	now := cs.now()
	fresh := !cs.loadedAt.IsZero() && (cs.ttl <= 0 || now.Sub(cs.loadedAt) < cs.ttl)
	backoff := !cs.failedAt.IsZero() && cs.retry > 0 && now.Sub(cs.failedAt) < cs.retry
	cs.mu.RUnlock()

	if fresh || backoff {
		return
	}
	// Ошибка уже залогирована, продолжаем с прежними значениями
	_ = cs.Load(ctx)
}

// Policy возвращает действующую политику загрузки.
func (cs *CatalogService) Policy() UploadPolicy {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	p := cs.defaults
	p.AllowedTypes = append([]string(nil), cs.defaults.AllowedTypes...)

	if s := cs.stats; s != nil {
		if s.MaxFiles > 0 {
			p.MaxFiles = s.MaxFiles
		}
		if s.MaxFileSize > 0 {
			p.MaxSize = s.MaxFileSize
		}
	}
	if c := cs.catalogs; c != nil {
		if c.MaxFiles > 0 {
			p.MaxFiles = c.MaxFiles
		}
		if c.MaxFileSize > 0 {
			p.MaxSize = c.MaxFileSize
		}
		if len(c.AllowedMimeTypes) > 0 {
			p.AllowedTypes = append([]string(nil), c.AllowedMimeTypes...)
		}
	}
	return p
}

// Catalogs возвращает действующие справочники.
// Категории без ответа backend — полный встроенный список.
func (cs *CatalogService) Catalogs() model.Catalogs {
	policy := cs.Policy()

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := model.Catalogs{
		Categories:       model.AllCategories(),
		AllowedMimeTypes: policy.AllowedTypes,
		MaxFileSize:      policy.MaxSize,
		MaxFiles:         policy.MaxFiles,
	}
	if c := cs.catalogs; c != nil {
		if len(c.Categories) > 0 {
			out.Categories = append([]model.Category(nil), c.Categories...)
		}
		out.EntityTypes = append([]string(nil), c.EntityTypes...)
	}
	return out
}

// Stats возвращает последнюю загруженную статистику.
func (cs *CatalogService) Stats() (model.Stats, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.stats == nil {
		return model.Stats{}, false
	}
	return *cs.stats, true
}
