// Пакет model — доменные модели Attachment Module.
// Attachment — запись вложения, которой владеет ERP backend; модуль хранит её копию в кэше.
package model

import (
	"fmt"
	"strings"
	"time"
)

// EntityKey — составной ключ бизнес-объекта, к которому привязаны вложения.
// Используется как ключ кэша вместо конкатенации строк.
type EntityKey struct {
	// EntityType — тип объекта (например, inventory_item, contractor_invoice)
	EntityType string
	// EntityID — идентификатор объекта
	EntityID string
}

// NewEntityKey создаёт ключ и проверяет, что обе части заданы.
func NewEntityKey(entityType, entityID string) (EntityKey, error) {
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" || entityID == "" {
		return EntityKey{}, fmt.Errorf("entityType и entityId обязательны")
	}
	return EntityKey{EntityType: entityType, EntityID: entityID}, nil
}

// String возвращает ключ в виде type/id. Только для логов и сообщений.
func (k EntityKey) String() string {
	return k.EntityType + "/" + k.EntityID
}

// Attachment — запись вложения (server-owned, client-cached).
// Привязка (EntityType, EntityID) неизменна после создания.
type Attachment struct {
	// ID — уникальный идентификатор вложения (уникален среди всех сущностей)
	ID string `json:"id"`
	// EntityType — тип владельца
	EntityType string `json:"entityType"`
	// EntityID — идентификатор владельца
	EntityID string `json:"entityId"`
	// OriginalName — имя файла при загрузке
	OriginalName string `json:"originalName"`
	// MimeType — MIME-тип, определяет иконку и доступность для lightbox
	MimeType string `json:"mimeType"`
	// FileSize — размер в байтах
	FileSize int64 `json:"fileSize"`
	// FileSizeFormatted — размер, отформатированный сервером (опционально)
	FileSizeFormatted string `json:"fileSizeFormatted,omitempty"`
	// FileURL — путь к полному файлу
	FileURL string `json:"fileUrl"`
	// ThumbnailURL — путь к уменьшенной копии (только изображения)
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	// Category — категория вложения
	Category Category `json:"category"`
	// Description — описание (опционально)
	Description string `json:"description,omitempty"`
	// SortOrder — порядок отображения внутри сущности
	SortOrder int `json:"sortOrder,omitempty"`
	// CreatedAt — время создания записи на сервере
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Key возвращает ключ сущности-владельца.
func (a Attachment) Key() EntityKey {
	return EntityKey{EntityType: a.EntityType, EntityID: a.EntityID}
}

// IsImage сообщает, может ли вложение показываться в lightbox.
func (a Attachment) IsImage() bool {
	return IsImageMime(a.MimeType)
}

// Kind возвращает медиа-тип вложения.
func (a Attachment) Kind() MediaKind {
	return DetectKind(a.MimeType, a.OriginalName)
}

// DisplaySize возвращает размер для отображения: серверный формат, если он есть.
func (a Attachment) DisplaySize() string {
	if a.FileSizeFormatted != "" {
		return a.FileSizeFormatted
	}
	return FormatSize(a.FileSize)
}

// ReorderItem — элемент запроса на изменение порядка.
type ReorderItem struct {
	ID    string `json:"id" validate:"required"`
	Order int    `json:"order" validate:"gte=0"`
}

// UpdateRequest — частичное обновление вложения (category/description).
type UpdateRequest struct {
	Category    *Category `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
}

// Apply применяет частичное обновление к копии записи.
func (r UpdateRequest) Apply(a Attachment) Attachment {
	if r.Category != nil {
		a.Category = ParseCategory(string(*r.Category))
	}
	if r.Description != nil {
		a.Description = *r.Description
	}
	return a
}

// Catalogs — справочники backend, задающие умолчания клиентской валидации.
type Catalogs struct {
	// Categories — допустимые категории
	Categories []Category `json:"categories"`
	// EntityTypes — известные типы сущностей
	EntityTypes []string `json:"entityTypes"`
	// AllowedMimeTypes — допустимые MIME-типы и расширения
	AllowedMimeTypes []string `json:"allowedMimeTypes"`
	// MaxFileSize — максимальный размер файла в байтах
	MaxFileSize int64 `json:"maxFileSize"`
	// MaxFiles — максимум файлов в одной загрузке
	MaxFiles int `json:"maxFiles"`
}

// Stats — агрегированная статистика вложений на backend.
type Stats struct {
	TotalFiles  int64            `json:"totalFiles"`
	TotalSize   int64            `json:"totalSize"`
	ByCategory  map[string]int64 `json:"byCategory,omitempty"`
	ByEntity    map[string]int64 `json:"byEntityType,omitempty"`
	MaxFileSize int64            `json:"maxFileSize,omitempty"`
	MaxFiles    int              `json:"maxFiles,omitempty"`
}

// FormatSize форматирует размер в байтах: 512 B, 1.5 KB, 10.0 MB.
func FormatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(size) / unit
	i := 0
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}
