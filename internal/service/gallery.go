// gallery.go — Gallery: модель отображения вложений сущности (grid/list),
// lightbox по подмножеству изображений и подтверждение удаления.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/diazhh/erp-ace-sub003/internal/domain/lightbox"
	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// Layout — вид галереи.
type Layout string

// Виды галереи.
const (
	LayoutGrid Layout = "grid"
	LayoutList Layout = "list"
)

// ParseLayout возвращает вид галереи (по умолчанию grid).
func ParseLayout(s string) Layout {
	if Layout(strings.ToLower(strings.TrimSpace(s))) == LayoutList {
		return LayoutList
	}
	return LayoutGrid
}

// Действия при выборе вложения.
const (
	ActionLightbox = "lightbox"
	ActionDownload = "download"
)

// URLFunc формирует URL файла или уменьшенной копии для отображения.
type URLFunc func(a model.Attachment, thumbnail bool) string

// RawURLs возвращает fileUrl/thumbnailUrl без изменений.
func RawURLs(a model.Attachment, thumbnail bool) string {
	if thumbnail {
		return a.ThumbnailURL
	}
	return a.FileURL
}

// ItemView — вложение в галерее.
type ItemView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MimeType      string          `json:"mimeType"`
	Kind          model.MediaKind `json:"kind"`
	Icon          string          `json:"icon"`
	Category      model.Category  `json:"category"`
	CategoryLabel string          `json:"categoryLabel"`
	CategoryColor string          `json:"categoryColor"`
	Size          string          `json:"size"`
	Description   string          `json:"description,omitempty"`
	FileURL       string          `json:"fileUrl"`
	ThumbnailURL  string          `json:"thumbnailUrl,omitempty"`
	IsImage       bool            `json:"isImage"`
	// ImageIndex — позиция в подмножестве изображений (nil для не-изображений)
	ImageIndex *int `json:"imageIndex,omitempty"`
}

// GroupView — вложения одного медиа-типа.
type GroupView struct {
	Kind  model.MediaKind `json:"kind"`
	Icon  string          `json:"icon"`
	Items []ItemView      `json:"items"`
}

// GalleryView — модель отображения галереи.
type GalleryView struct {
	Layout Layout      `json:"layout"`
	Total  int         `json:"total"`
	Items  []ItemView  `json:"items"`
	Groups []GroupView `json:"groups"`
	Images []ItemView  `json:"images"`
}

// LightboxView — состояние lightbox с текущим изображением и соседями.
type LightboxView struct {
	lightbox.State
	Current *ItemView `json:"current,omitempty"`
	PrevID  string    `json:"prevId,omitempty"`
	NextID  string    `json:"nextId,omitempty"`
}

// Selection — результат выбора вложения.
type Selection struct {
	// Action — lightbox для изображений, download для остальных
	Action      string        `json:"action"`
	Item        ItemView      `json:"item"`
	Lightbox    *LightboxView `json:"lightbox,omitempty"`
	DownloadURL string        `json:"downloadUrl,omitempty"`
}

// Confirmation — удаление, ожидающее подтверждения.
type Confirmation struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
}

// DeleteFunc — операция удаления вложения.
type DeleteFunc func(ctx context.Context, id string) error

// Snapshotter — источник списка вложений сущности.
type Snapshotter interface {
	Snapshot(key model.EntityKey) ([]model.Attachment, bool)
}

// Gallery — галерея вложений одной сущности.
type Gallery struct {
	source Snapshotter
	key    model.EntityKey
	remove DeleteFunc
	urls   URLFunc
	lb     *lightbox.Lightbox
	logger *slog.Logger

	mu      sync.Mutex
	images  []model.Attachment
	pending *Confirmation
}

// NewGallery создаёт галерею. remove — удаление по умолчанию (AttachmentStore.DeleteByID).
func NewGallery(source Snapshotter, key model.EntityKey, remove DeleteFunc, urls URLFunc, logger *slog.Logger) *Gallery {
	if urls == nil {
		urls = RawURLs
	}
	return &Gallery{
		source: source,
		key:    key,
		remove: remove,
		urls:   urls,
		lb:     lightbox.New(0),
		logger: logger.With(
			slog.String("component", "gallery"),
			slog.String("entity", key.String()),
		),
	}
}

// View строит модель отображения из текущего содержимого кэша.
func (g *Gallery) View(layout Layout) GalleryView {
	items := g.items()

	view := GalleryView{
		Layout: layout,
		Total:  len(items),
		Items:  make([]ItemView, 0, len(items)),
		Images: []ItemView{},
	}

	byKind := make(map[model.MediaKind][]ItemView)
	imageIndex := 0
	for _, a := range items {
		iv := g.itemView(a)
		if iv.IsImage {
			idx := imageIndex
			iv.ImageIndex = &idx
			imageIndex++
			view.Images = append(view.Images, iv)
		}
		view.Items = append(view.Items, iv)
		byKind[iv.Kind] = append(byKind[iv.Kind], iv)
	}

	view.Groups = make([]GroupView, 0, len(byKind))
	for _, kind := range model.MediaKinds {
		if group, ok := byKind[kind]; ok {
			view.Groups = append(view.Groups, GroupView{Kind: kind, Icon: kind.Icon(), Items: group})
		}
	}
	return view
}

// Select выбирает вложение: изображение открывает lightbox на его позиции
// в подмножестве изображений, остальные возвращают действие download.
func (g *Gallery) Select(id string) (*Selection, error) {
	items := g.items()
	i := indexOf(items, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a := items[i]

	if !a.IsImage() {
		return &Selection{
			Action:      ActionDownload,
			Item:        g.itemView(a),
			DownloadURL: g.urls(a, false),
		}, nil
	}

	images := imagesOf(items)
	index := indexOf(images, id)

	g.mu.Lock()
	g.images = images
	g.lb.Reset(len(images))
	err := g.lb.Open(index)
	view := g.lightboxViewLocked()
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}

	iv := g.itemView(a)
	iv.ImageIndex = &index
	return &Selection{Action: ActionLightbox, Item: iv, Lightbox: &view}, nil
}

// Lightbox возвращает текущее состояние lightbox.
func (g *Gallery) Lightbox() LightboxView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lightboxViewLocked()
}

// Next переходит к следующему изображению (циклически).
func (g *Gallery) Next() (LightboxView, error) {
	return g.transition(g.lb.Next)
}

// Prev переходит к предыдущему изображению (циклически).
func (g *Gallery) Prev() (LightboxView, error) {
	return g.transition(g.lb.Prev)
}

// ZoomIn увеличивает масштаб.
func (g *Gallery) ZoomIn() (LightboxView, error) {
	return g.transition(g.lb.ZoomIn)
}

// ZoomOut уменьшает масштаб.
func (g *Gallery) ZoomOut() (LightboxView, error) {
	return g.transition(g.lb.ZoomOut)
}

// CloseLightbox закрывает lightbox.
func (g *Gallery) CloseLightbox() LightboxView {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lb.Close()
	return g.lightboxViewLocked()
}

func (g *Gallery) transition(fn func() (lightbox.State, error)) (LightboxView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := fn()
	return g.lightboxViewLocked(), err
}

// RequestDelete начинает удаление: возвращает подтверждение с именем файла.
func (g *Gallery) RequestDelete(id string) (Confirmation, error) {
	items := g.items()
	i := indexOf(items, id)
	if i < 0 {
		return Confirmation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	c := Confirmation{ID: id, FileName: items[i].OriginalName}
	g.mu.Lock()
	g.pending = &c
	g.mu.Unlock()
	return c, nil
}

// PendingDeletion возвращает ожидающее подтверждение, если оно есть.
func (g *Gallery) PendingDeletion() (Confirmation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Confirmation{}, false
	}
	return *g.pending, true
}

// CancelDelete отменяет ожидающее удаление.
func (g *Gallery) CancelDelete() {
	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
}

// ConfirmDelete выполняет ожидающее удаление через override (если задан)
// или операцию галереи. Подтверждение сбрасывается при любом исходе.
func (g *Gallery) ConfirmDelete(ctx context.Context, override DeleteFunc) error {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending == nil {
		return ErrNoPendingDeletion
	}

	remove := g.remove
	if override != nil {
		remove = override
	}
	if remove == nil {
		return fmt.Errorf("операция удаления не задана")
	}

	if err := remove(ctx, pending.ID); err != nil {
		return err
	}

	g.mu.Lock()
	if indexOf(g.images, pending.ID) >= 0 {
		g.images = nil
		g.lb.Reset(0)
	}
	g.mu.Unlock()

	g.logger.Info("Удаление подтверждено",
		slog.String("id", pending.ID),
		slog.String("file", pending.FileName),
	)
	return nil
}

// items возвращает вложения в порядке отображения.
func (g *Gallery) items() []model.Attachment {
	items, _ := g.source.Snapshot(g.key)
	slices.SortStableFunc(items, func(a, b model.Attachment) int {
		return a.SortOrder - b.SortOrder
	})
	return items
}

func (g *Gallery) itemView(a model.Attachment) ItemView {
	kind := a.Kind()
	return ItemView{
		ID:            a.ID,
		Name:          a.OriginalName,
		MimeType:      a.MimeType,
		Kind:          kind,
		Icon:          kind.Icon(),
		Category:      a.Category,
		CategoryLabel: a.Category.Label(),
		CategoryColor: a.Category.Color(),
		Size:          a.DisplaySize(),
		Description:   a.Description,
		FileURL:       g.urls(a, false),
		ThumbnailURL:  g.thumbnailURL(a),
		IsImage:       a.IsImage(),
	}
}

func (g *Gallery) thumbnailURL(a model.Attachment) string {
	if a.ThumbnailURL == "" {
		return ""
	}
	return g.urls(a, true)
}

// lightboxViewLocked собирает LightboxView. Вызывается под mu.
func (g *Gallery) lightboxViewLocked() LightboxView {
	st := g.lb.State()
	view := LightboxView{State: st}
	if !st.Open || st.Index >= len(g.images) {
		return view
	}

	cur := g.itemView(g.images[st.Index])
	idx := st.Index
	cur.ImageIndex = &idx
	view.Current = &cur

	prev, next := lightbox.Neighbors(st.Index, len(g.images))
	view.PrevID = g.images[prev].ID
	view.NextID = g.images[next].ID
	return view
}

// imagesOf возвращает подмножество изображений с сохранением порядка.
func imagesOf(items []model.Attachment) []model.Attachment {
	images := make([]model.Attachment, 0, len(items))
	for _, a := range items {
		if a.IsImage() {
			images = append(images, a)
		}
	}
	return images
}
