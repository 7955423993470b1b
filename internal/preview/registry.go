// Пакет preview — локальные превью изображений, выбранных для загрузки.
// Превью — ресурс с явным владельцем: выдаётся при добавлении файла в пакет
// и освобождается при удалении файла, очистке пакета или успешной загрузке.
// Неосвобождённые превью истекают через TTL реестра.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // декодер GIF для image.Decode
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

const (
	// URLScheme — схема URL превью.
	URLScheme = "preview://"
	// DefaultMaxDimension — сторона превью по умолчанию.
	DefaultMaxDimension = 320
	// maxSourceSize — больше этого размера изображение не декодируется.
	maxSourceSize = 32 << 20
	// maxRawSize — недекодируемое изображение хранится как есть, если не больше.
	maxRawSize = 1 << 20
)

// ErrNotFound — превью не найдено или уже освобождено.
var ErrNotFound = errors.New("превью не найдено")

var previewsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "att_previews_active",
	Help: "Количество неосвобождённых превью.",
})

// Handle — ссылка на выданное превью.
type Handle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Preview — содержимое превью.
type Preview struct {
	Handle
	// FileName — имя исходного файла
	FileName string
	// ContentType — MIME-тип Data
	ContentType string
	// Data — уменьшенное изображение (или исходные байты, если декодирование не удалось)
	Data []byte
	// Width, Height — размеры превью (0 для недекодированных)
	Width, Height int
	// Owner — субъект, которому выдано превью (пусто — без владельца)
	Owner string

	acquiredAt time.Time
}

// Registry — реестр выданных превью. Потокобезопасен.
type Registry struct {
	mu           sync.Mutex
	items        map[string]*Preview
	maxDimension uint
	ttl          time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewRegistry создаёт реестр превью.
// maxDimension — максимальная сторона превью в пикселях (0 → DefaultMaxDimension).
// ttl — время жизни неосвобождённого превью (0 — без истечения).
func NewRegistry(maxDimension int, ttl time.Duration, logger *slog.Logger) *Registry {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Registry{
		items:        make(map[string]*Preview),
		maxDimension: uint(maxDimension),
		ttl:          ttl,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "preview_registry")),
	}
}

// Acquire создаёт превью без владельца. contentType — MIME-тип после определения.
// Для не-изображений возвращает (nil, nil).
func (r *Registry) Acquire(f model.LocalFile, contentType string) (*Handle, error) {
	return r.AcquireOwned(f, contentType, "")
}

// AcquireOwned создаёт превью, доступное только владельцу owner.
func (r *Registry) AcquireOwned(f model.LocalFile, contentType, owner string) (*Handle, error) {
	if !model.IsImageMime(contentType) {
		return nil, nil
	}
	if f.Open == nil {
		return nil, fmt.Errorf("превью %s: содержимое файла недоступно", f.Name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("превью %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("превью %s: чтение: %w", f.Name, err)
	}

	p := &Preview{FileName: f.Name, Owner: owner}
	if len(data) <= maxSourceSize {
		if thumb, ct, w, h, err := r.thumbnail(data); err == nil {
			p.Data, p.ContentType, p.Width, p.Height = thumb, ct, w, h
		} else {
			r.logger.Debug("Изображение не декодировано, превью без уменьшения",
				slog.String("file", f.Name),
				slog.String("error", err.Error()),
			)
		}
	}
	if p.Data == nil && len(data) <= maxRawSize {
		p.Data, p.ContentType = data, contentType
	}

	id := uuid.New().String()
	p.Handle = Handle{ID: id, URL: URLScheme + id}

	r.mu.Lock()
	p.acquiredAt = r.now()
	r.items[id] = p
	expired := r.sweepLocked()
	r.mu.Unlock()
	previewsActive.Inc()

	if expired > 0 {
		r.logger.Debug("Истёкшие превью освобождены", slog.Int("count", expired))
	}
	return &p.Handle, nil
}

// Get возвращает превью по идентификатору (или URL preview://id).
// Истёкшее превью освобождается и не возвращается.
func (r *Registry) Get(id string) (*Preview, error) {
	id = strings.TrimPrefix(id, URLScheme)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.expiredLocked(p) {
		r.deleteLocked(id)
		return nil, ErrNotFound
	}
	return p, nil
}

// Release освобождает превью. Повторное освобождение — no-op.
func (r *Registry) Release(h *Handle) {
	if h == nil {
		return
	}
	r.ReleaseID(h.ID)
}

// ReleaseID освобождает превью по идентификатору.
// Возвращает false, если превью уже освобождено или не существовало.
func (r *Registry) ReleaseID(id string) bool {
	id = strings.TrimPrefix(id, URLScheme)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(id)
}

// deleteLocked удаляет превью и обновляет gauge. Вызывается под mu.
func (r *Registry) deleteLocked(id string) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	previewsActive.Dec()
	return true
}

func (r *Registry) expiredLocked(p *Preview) bool {
	return r.ttl > 0 && r.now().Sub(p.acquiredAt) >= r.ttl
}

// sweepLocked освобождает истёкшие превью. Вызывается под mu.
func (r *Registry) sweepLocked() int {
	if r.ttl <= 0 {
		return 0
	}
	n := 0
	for id, p := range r.items {
		if r.expiredLocked(p) {
			r.deleteLocked(id)
			n++
		}
	}
	return n
}

// Len возвращает количество неосвобождённых превью.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// thumbnail уменьшает изображение с сохранением пропорций.
// PNG и GIF кодируются в PNG (прозрачность), остальное в JPEG.
func (r *Registry) thumbnail(data []byte) ([]byte, string, int, int, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", 0, 0, err
	}

	t := resize.Thumbnail(r.maxDimension, r.maxDimension, img, resize.Lanczos3)
	bounds := t.Bounds()

	var buf bytes.Buffer
	contentType := "image/jpeg"
	switch format {
	case "png", "gif":
		contentType = "image/png"
		err = png.Encode(&buf, t)
	default:
		err = jpeg.Encode(&buf, t, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("кодирование превью: %w", err)
	}

	return buf.Bytes(), contentType, bounds.Dx(), bounds.Dy(), nil
}
