// store.go — AttachmentStore: process-wide кэш вложений по сущностям.
// Обёртка над hashicorp/golang-lru/v2/expirable с флагами loading/uploading.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/diazhh/erp-ace-sub003/internal/apiclient"
	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// Prometheus-метрики кэша вложений.
var (
	storeOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "att_store_operations_total",
		Help: "Операции кэша вложений (по операции и результату).",
	}, []string{"op", "status"})

	storeCachedEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "att_store_cached_entities",
		Help: "Количество сущностей, списки вложений которых хранятся в кэше.",
	})
)

// Backend — операции ERP backend, используемые кэшем.
// Реализуется *apiclient.Client.
type Backend interface {
	List(ctx context.Context, key model.EntityKey, category string) ([]model.Attachment, error)
	Upload(ctx context.Context, key model.EntityKey, files []model.LocalFile, params apiclient.UploadParams) ([]model.Attachment, error)
	UploadSingle(ctx context.Context, key model.EntityKey, file model.LocalFile, params apiclient.UploadParams) (*model.Attachment, error)
	Update(ctx context.Context, id string, req model.UpdateRequest) (*model.Attachment, error)
	Delete(ctx context.Context, id string, hard bool) error
	DeleteForEntity(ctx context.Context, key model.EntityKey, hard bool) error
	Reorder(ctx context.Context, items []model.ReorderItem) error
}

// StoreState — флаги кэша для отображения.
type StoreState struct {
	Loading   bool
	Uploading bool
	Err       error
}

// AttachmentStore — последнее известное состояние вложений по сущностям.
//
// Флаги loading/uploading общие для процесса: выставляются в начале операции
// и сбрасываются первым завершившимся вызовом, даже если другой ещё выполняется.
// Блокировка не удерживается во время сетевых запросов, последняя запись побеждает.
type AttachmentStore struct {
	backend Backend
	cache   *expirable.LRU[model.EntityKey, []model.Attachment]
	logger  *slog.Logger

	// mu защищает флаги и read-modify-write над бакетами
	mu        sync.Mutex
	loading   bool
	uploading bool
	lastErr   error
}

// NewAttachmentStore создаёт кэш вложений.
// maxEntities — максимальное количество сущностей в кэше (0 — без ограничения).
// ttl — время жизни списка (0 — без истечения).
func NewAttachmentStore(backend Backend, maxEntities int, ttl time.Duration, logger *slog.Logger) *AttachmentStore {
	return &AttachmentStore{
		backend: backend,
		cache:   expirable.NewLRU[model.EntityKey, []model.Attachment](maxEntities, nil, ttl),
		logger:  logger.With(slog.String("component", "attachment_store")),
	}
}

// FetchForEntity загружает список вложений сущности и заменяет бакет.
// При ошибке бакет не изменяется, ошибка записывается в состояние.
func (s *AttachmentStore) FetchForEntity(ctx context.Context, key model.EntityKey, category string) ([]model.Attachment, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	items, err := s.backend.List(ctx, key, category)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.fail("fetch", key, err)
		return nil, fmt.Errorf("загрузка списка вложений %s: %w", key, err)
	}

	if items == nil {
		items = []model.Attachment{}
	}
	s.cache.Add(key, slices.Clone(items))
	s.succeed("fetch")

	s.logger.Debug("Список вложений обновлён",
		slog.String("entity", key.String()),
		slog.Int("count", len(items)),
	)
	return items, nil
}

// Upload загружает пакет файлов. Созданные записи добавляются в бакет,
// если он уже есть в кэше (без дублей по id). Повторный FetchForEntity
// остаётся способом получить полное серверное состояние.
func (s *AttachmentStore) Upload(
	ctx context.Context,
	key model.EntityKey,
	files []model.LocalFile,
	category model.Category,
	description string,
) ([]model.Attachment, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	params := apiclient.UploadParams{Category: category, Description: description}
	return s.upload(key, "upload", len(files), params, func() ([]model.Attachment, error) {
		return s.backend.Upload(ctx, key, files, params)
	})
}

// UploadSingle загружает один файл через эндпоинт /single.
// Флаг uploading и слияние с бакетом — как у Upload.
func (s *AttachmentStore) UploadSingle(
	ctx context.Context,
	key model.EntityKey,
	file model.LocalFile,
	category model.Category,
	description string,
) (*model.Attachment, error) {
	params := apiclient.UploadParams{Category: category, Description: description}
	created, err := s.upload(key, "upload_single", 1, params, func() ([]model.Attachment, error) {
		a, err := s.backend.UploadSingle(ctx, key, file, params)
		if err != nil {
			return nil, err
		}
		return []model.Attachment{*a}, nil
	})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// upload выполняет send под флагом uploading и сливает результат в бакет.
func (s *AttachmentStore) upload(
	key model.EntityKey,
	op string,
	count int,
	params apiclient.UploadParams,
	send func() ([]model.Attachment, error),
) ([]model.Attachment, error) {
	s.mu.Lock()
	s.uploading = true
	s.mu.Unlock()

	created, err := send()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploading = false

	if err != nil {
		s.fail(op, key, err)
		return nil, fmt.Errorf("загрузка файлов %s: %w", key, err)
	}

	if bucket, ok := s.cache.Peek(key); ok {
		s.cache.Add(key, mergeByID(bucket, created))
	}
	s.succeed(op)

	s.logger.Info("Файлы загружены",
		slog.String("entity", key.String()),
		slog.Int("count", len(created)),
		slog.Int("sent", count),
		slog.String("category", string(params.Category)),
	)
	return created, nil
}

// Update обновляет категорию/описание и заменяет запись во всех бакетах.
func (s *AttachmentStore) Update(ctx context.Context, id string, req model.UpdateRequest) (*model.Attachment, error) {
	updated, err := s.backend.Update(ctx, id, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.fail("update", model.EntityKey{}, err)
		return nil, fmt.Errorf("обновление вложения %s: %w", id, err)
	}

	s.replaceLocked(*updated)
	s.succeed("update")
	return updated, nil
}

// DeleteByID удаляет вложение на backend и из всех бакетов кэша.
// hard передаётся backend и не влияет на поведение кэша.
func (s *AttachmentStore) DeleteByID(ctx context.Context, id string, hard bool) error {
	err := s.backend.Delete(ctx, id, hard)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.fail("delete", model.EntityKey{}, err)
		return fmt.Errorf("удаление вложения %s: %w", id, err)
	}

	removed := s.removeLocked(id)
	s.succeed("delete")

	s.logger.Info("Вложение удалено",
		slog.String("id", id),
		slog.Bool("hard", hard),
		slog.Int("buckets", removed),
	)
	return nil
}

// DeleteForEntity удаляет все вложения сущности и её бакет.
func (s *AttachmentStore) DeleteForEntity(ctx context.Context, key model.EntityKey, hard bool) error {
	err := s.backend.DeleteForEntity(ctx, key, hard)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.fail("delete_entity", key, err)
		return fmt.Errorf("удаление вложений %s: %w", key, err)
	}

	s.cache.Remove(key)
	s.succeed("delete_entity")

	s.logger.Info("Вложения сущности удалены",
		slog.String("entity", key.String()),
		slog.Bool("hard", hard),
	)
	return nil
}

// Reorder передаёт новый порядок backend. Кэш не переупорядочивается.
func (s *AttachmentStore) Reorder(ctx context.Context, items []model.ReorderItem) error {
	err := s.backend.Reorder(ctx, items)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.fail("reorder", model.EntityKey{}, err)
		return fmt.Errorf("изменение порядка вложений: %w", err)
	}
	s.succeed("reorder")
	return nil
}

// Snapshot возвращает копию бакета сущности.
func (s *AttachmentStore) Snapshot(key model.EntityKey) ([]model.Attachment, bool) {
	items, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(items), true
}

// Find ищет вложение по id во всех бакетах.
func (s *AttachmentStore) Find(id string) (model.Attachment, bool) {
	for _, key := range s.cache.Keys() {
		items, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		if i := indexOf(items, id); i >= 0 {
			return items[i], true
		}
	}
	return model.Attachment{}, false
}

// Owner возвращает ключ бакета, в котором закэшировано вложение.
// Ключ берётся из кэша, а не из полей записи: backend может их не заполнять.
func (s *AttachmentStore) Owner(id string) (model.EntityKey, bool) {
	for _, key := range s.cache.Keys() {
		items, ok := s.cache.Peek(key)
		if ok && indexOf(items, id) >= 0 {
			return key, true
		}
	}
	return model.EntityKey{}, false
}

// Evict убирает вложение из всех бакетов без обращения к backend.
// Используется при lazy cleanup (файл отсутствует на backend).
func (s *AttachmentStore) Evict(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

// State возвращает текущие флаги.
func (s *AttachmentStore) State() StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreState{Loading: s.loading, Uploading: s.uploading, Err: s.lastErr}
}

// Loading сообщает, выполняется ли загрузка списка.
func (s *AttachmentStore) Loading() bool { return s.State().Loading }

// Uploading сообщает, выполняется ли загрузка файлов.
func (s *AttachmentStore) Uploading() bool { return s.State().Uploading }

// Err возвращает ошибку последней завершившейся операции.
func (s *AttachmentStore) Err() error { return s.State().Err }

// Len возвращает количество сущностей в кэше.
func (s *AttachmentStore) Len() int {
	return s.cache.Len()
}

// removeLocked удаляет запись с id из всех бакетов. Вызывается под mu.
func (s *AttachmentStore) removeLocked(id string) int {
	removed := 0
	for _, key := range s.cache.Keys() {
		items, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		filtered := slices.DeleteFunc(slices.Clone(items), func(a model.Attachment) bool {
			return a.ID == id
		})
		if len(filtered) != len(items) {
			s.cache.Add(key, filtered)
			removed++
		}
	}
	return removed
}

// replaceLocked заменяет запись во всех бакетах, где она есть. Вызывается под mu.
func (s *AttachmentStore) replaceLocked(a model.Attachment) {
	for _, key := range s.cache.Keys() {
		items, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		if i := indexOf(items, a.ID); i >= 0 {
			next := slices.Clone(items)
			next[i] = a
			s.cache.Add(key, next)
		}
	}
}

// fail записывает ошибку операции. Вызывается под mu.
func (s *AttachmentStore) fail(op string, key model.EntityKey, err error) {
	s.lastErr = err
	storeOperationsTotal.WithLabelValues(op, "error").Inc()

	attrs := []any{slog.String("op", op), slog.String("error", err.Error())}
	if key != (model.EntityKey{}) {
		attrs = append(attrs, slog.String("entity", key.String()))
	}
	s.logger.Warn("Ошибка операции с вложениями", attrs...)
}

// succeed сбрасывает ошибку и обновляет метрики. Вызывается под mu.
func (s *AttachmentStore) succeed(op string) {
	s.lastErr = nil
	storeOperationsTotal.WithLabelValues(op, "success").Inc()
	storeCachedEntities.Set(float64(s.cache.Len()))
}

// mergeByID добавляет созданные записи в конец бакета, пропуская уже известные id.
func mergeByID(bucket, created []model.Attachment) []model.Attachment {
	out := slices.Clone(bucket)
	for _, a := range created {
		if i := indexOf(out, a.ID); i >= 0 {
			out[i] = a
			continue
		}
		out = append(out, a)
	}
	return out
}

func indexOf(items []model.Attachment, id string) int {
	return slices.IndexFunc(items, func(a model.Attachment) bool { return a.ID == id })
}
