// section.go — Section: загрузка списка, галерея и координатор загрузки
// для одной сущности. После успешной загрузки файлов список перечитывается.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
	"github.com/diazhh/erp-ace-sub003/internal/preview"
)

// Variant — вариант компоновки секции. На поток данных не влияет.
type Variant string

// Варианты секции.
const (
	VariantAccordion Variant = "accordion"
	VariantTabbed    Variant = "tabbed"
	VariantInline    Variant = "inline"
)

// ParseVariant возвращает вариант секции (по умолчанию accordion).
func ParseVariant(s string) Variant {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantTabbed, VariantInline:
		return v
	default:
		return VariantAccordion
	}
}

// SectionState — состояние секции для отображения.
type SectionState struct {
	Key       model.EntityKey
	Variant   Variant
	Items     []model.Attachment
	Loading   bool
	Uploading bool
	Err       error
}

// Section — секция вложений сущности.
type Section struct {
	store    *AttachmentStore
	key      model.EntityKey
	variant  Variant
	category string
	gallery  *Gallery
	uploader *UploadCoordinator
	logger   *slog.Logger
}

// SectionOptions — параметры секции.
type SectionOptions struct {
	Variant Variant
	// Category — фильтр списка по категории (пусто — все)
	Category string
	Policy   UploadPolicy
	URLs     URLFunc
	Previews *preview.Registry
}

// NewSection создаёт секцию для сущности.
func NewSection(store *AttachmentStore, key model.EntityKey, opts SectionOptions, logger *slog.Logger) *Section {
	if opts.Variant == "" {
		opts.Variant = VariantAccordion
	}
	remove := func(ctx context.Context, id string) error {
		return store.DeleteByID(ctx, id, false)
	}
	return &Section{
		store:    store,
		key:      key,
		variant:  opts.Variant,
		category: opts.Category,
		gallery:  NewGallery(store, key, remove, opts.URLs, logger),
		uploader: NewUploadCoordinator(store, opts.Previews, key, opts.Policy, logger),
		logger: logger.With(
			slog.String("component", "section"),
			slog.String("entity", key.String()),
		),
	}
}

// Key возвращает ключ сущности.
func (s *Section) Key() model.EntityKey { return s.key }

// Variant возвращает вариант компоновки.
func (s *Section) Variant() Variant { return s.variant }

// Gallery возвращает галерею секции.
func (s *Section) Gallery() *Gallery { return s.gallery }

// Uploader возвращает координатор загрузки секции.
func (s *Section) Uploader() *UploadCoordinator { return s.uploader }

// Mount загружает список вложений сущности.
func (s *Section) Mount(ctx context.Context) error {
	_, err := s.store.FetchForEntity(ctx, s.key, s.category)
	return err
}

// Refresh перечитывает список вложений.
func (s *Section) Refresh(ctx context.Context) error {
	return s.Mount(ctx)
}

// Submit отправляет пакет координатора и после успеха перечитывает список.
// Ошибка перечитывания не отменяет успешную загрузку: она записывается в
// состояние кэша и в лог.
func (s *Section) Submit(ctx context.Context) ([]model.Attachment, error) {
	return s.uploader.Submit(ctx, s.refreshAfterUpload(ctx))
}

// SubmitSingle — как Submit, но для пакета из одного файла через /single.
func (s *Section) SubmitSingle(ctx context.Context) ([]model.Attachment, error) {
	return s.uploader.SubmitSingle(ctx, s.refreshAfterUpload(ctx))
}

func (s *Section) refreshAfterUpload(ctx context.Context) func([]model.Attachment) {
	return func(created []model.Attachment) {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("Не удалось обновить список после загрузки",
				slog.Int("created", len(created)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// State возвращает состояние секции.
func (s *Section) State() SectionState {
	st := s.store.State()
	items, _ := s.store.Snapshot(s.key)
	return SectionState{
		Key:       s.key,
		Variant:   s.variant,
		Items:     items,
		Loading:   st.Loading,
		Uploading: st.Uploading,
		Err:       st.Err,
	}
}

// Unmount освобождает превью и сбрасывает состояние галереи.
func (s *Section) Unmount() {
	s.uploader.Close()
	s.gallery.CancelDelete()
	s.gallery.CloseLightbox()
}
