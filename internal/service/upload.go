// upload.go — UploadCoordinator: клиентская валидация и пакетная загрузка файлов.
// Файлы проверяются по размеру и allow-list типов, изображения получают превью,
// которое освобождается при удалении из пакета, очистке и успешной загрузке.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
	"github.com/diazhh/erp-ace-sub003/internal/preview"
)

// Значения политики загрузки по умолчанию.
const (
	DefaultMaxFiles = 10
	DefaultMaxSize  = 10 << 20
)

// DefaultAllowedTypes — изображения, PDF, Word, Excel.
var DefaultAllowedTypes = []string{
	"image/*",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".jpg", ".jpeg", ".png", ".gif", ".webp",
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
}

// RejectReason — причина отклонения файла.
type RejectReason string

// Причины отклонения.
const (
	ReasonTooLarge    RejectReason = "file-too-large"
	ReasonInvalidType RejectReason = "file-invalid-type"
)

// UploadPolicy — ограничения клиентской валидации.
type UploadPolicy struct {
	// MaxFiles — максимум файлов в пакете
	MaxFiles int `json:"maxFiles"`
	// MaxSize — максимальный размер файла в байтах
	MaxSize int64 `json:"maxFileSize"`
	// AllowedTypes — MIME-типы (image/png), маски (image/*) и расширения (.pdf)
	AllowedTypes []string `json:"allowedTypes"`
}

// DefaultUploadPolicy возвращает политику по умолчанию.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxFiles:     DefaultMaxFiles,
		MaxSize:      DefaultMaxSize,
		AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
	}
}

// normalized подставляет умолчания вместо нулевых значений.
func (p UploadPolicy) normalized() UploadPolicy {
	if p.MaxFiles <= 0 {
		p.MaxFiles = DefaultMaxFiles
	}
	if p.MaxSize <= 0 {
		p.MaxSize = DefaultMaxSize
	}
	if len(p.AllowedTypes) == 0 {
		p.AllowedTypes = append([]string(nil), DefaultAllowedTypes...)
	}
	return p
}

// Allows проверяет тип файла по MIME-типу или расширению имени.
func (p UploadPolicy) Allows(name, contentType string) bool {
	contentType = baseMediaType(contentType)
	ext := strings.ToLower(filepath.Ext(name))

	for _, entry := range p.AllowedTypes {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "":
			continue
		case strings.HasPrefix(entry, "."):
			if ext == entry {
				return true
			}
		case strings.HasSuffix(entry, "/*"):
			if contentType != "" && strings.HasPrefix(contentType, strings.TrimSuffix(entry, "*")) {
				return true
			}
		case entry == contentType:
			return true
		}
	}
	return false
}

// Check возвращает причину отклонения или пустую строку.
func (p UploadPolicy) Check(name, contentType string, size int64) RejectReason {
	if size > p.MaxSize {
		return ReasonTooLarge
	}
	if !p.Allows(name, contentType) {
		return ReasonInvalidType
	}
	return ""
}

// Rejection — отклонённый файл.
type Rejection struct {
	FileName string       `json:"fileName"`
	Reason   RejectReason `json:"reason"`
	Message  string       `json:"message"`
}

// ValidationError — файлы, не прошедшие клиентскую валидацию.
type ValidationError struct {
	Rejections []Rejection
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Rejections))
	for _, r := range e.Rejections {
		msgs = append(msgs, r.Message)
	}
	return strings.Join(msgs, "; ")
}

// PendingFile — файл в пакете, ожидающем отправки.
type PendingFile struct {
	File        model.LocalFile
	ContentType string
	Preview     *preview.Handle
}

// AddResult — результат добавления файлов в пакет.
type AddResult struct {
	// Accepted — принятые файлы
	Accepted []PendingFile
	// Rejections — отклонённые по размеру или типу
	Rejections []Rejection
	// Dropped — имена файлов сверх MaxFiles (не добавлены без сообщения)
	Dropped []string
}

// Message объединяет отклонения в одно сообщение для пользователя.
func (r AddResult) Message() string {
	if len(r.Rejections) == 0 {
		return ""
	}
	return (&ValidationError{Rejections: r.Rejections}).Error()
}

// Err возвращает *ValidationError, если есть отклонённые файлы.
func (r AddResult) Err() error {
	if len(r.Rejections) == 0 {
		return nil
	}
	return &ValidationError{Rejections: r.Rejections}
}

// Uploader — операции загрузки, предоставляемые AttachmentStore.
type Uploader interface {
	Upload(ctx context.Context, key model.EntityKey, files []model.LocalFile, category model.Category, description string) ([]model.Attachment, error)
	UploadSingle(ctx context.Context, key model.EntityKey, file model.LocalFile, category model.Category, description string) (*model.Attachment, error)
}

// UploadCoordinator — пакет файлов для одной сущности.
// Владеет превью своих файлов и освобождает их на каждом пути выхода.
type UploadCoordinator struct {
	store    Uploader
	previews *preview.Registry
	key      model.EntityKey
	logger   *slog.Logger

	mu          sync.Mutex
	policy      UploadPolicy
	pending     []PendingFile
	category    model.Category
	description string
	lastErr     error
}

// NewUploadCoordinator создаёт координатор загрузки.
// previews может быть nil — тогда превью не создаются.
func NewUploadCoordinator(
	store Uploader,
	previews *preview.Registry,
	key model.EntityKey,
	policy UploadPolicy,
	logger *slog.Logger,
) *UploadCoordinator {
	return &UploadCoordinator{
		store:    store,
		previews: previews,
		key:      key,
		policy:   policy.normalized(),
		category: model.CategoryOther,
		logger: logger.With(
			slog.String("component", "upload_coordinator"),
			slog.String("entity", key.String()),
		),
	}
}

// SetPolicy заменяет политику. Уже принятые файлы не перепроверяются.
func (u *UploadCoordinator) SetPolicy(p UploadPolicy) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.policy = p.normalized()
}

// Policy возвращает текущую политику.
func (u *UploadCoordinator) Policy() UploadPolicy {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.policy
}

// Add проверяет файлы и добавляет принятые в пакет.
// Отклонённые по размеру/типу попадают в Rejections, файлы сверх MaxFiles
// не добавляются и только перечисляются в Dropped.
func (u *UploadCoordinator) Add(files ...model.LocalFile) AddResult {
	var result AddResult

	for _, f := range files {
		contentType := detectContentType(f)

		u.mu.Lock()
		policy := u.policy
		full := len(u.pending) >= policy.MaxFiles
		u.mu.Unlock()

		if reason := policy.Check(f.Name, contentType, f.Size); reason != "" {
			result.Rejections = append(result.Rejections, newRejection(f, contentType, reason, policy))
			continue
		}
		if full {
			result.Dropped = append(result.Dropped, f.Name)
			continue
		}

		pf := PendingFile{File: f, ContentType: contentType}
		if u.previews != nil {
			h, err := u.previews.Acquire(f, contentType)
			if err != nil {
				u.logger.Warn("Не удалось создать превью",
					slog.String("file", f.Name),
					slog.String("error", err.Error()),
				)
			}
			pf.Preview = h
		}
		pf.File.ContentType = contentType

		u.mu.Lock()
		if len(u.pending) >= u.policy.MaxFiles {
			u.mu.Unlock()
			u.releasePreview(pf)
			result.Dropped = append(result.Dropped, f.Name)
			continue
		}
		u.pending = append(u.pending, pf)
		u.mu.Unlock()

		result.Accepted = append(result.Accepted, pf)
	}

	if len(result.Rejections) > 0 || len(result.Dropped) > 0 {
		u.logger.Debug("Часть файлов не добавлена в пакет",
			slog.Int("rejected", len(result.Rejections)),
			slog.Int("dropped", len(result.Dropped)),
		)
	}
	return result
}

// Remove убирает файл из пакета по индексу и освобождает его превью.
func (u *UploadCoordinator) Remove(index int) error {
	u.mu.Lock()
	if index < 0 || index >= len(u.pending) {
		u.mu.Unlock()
		return fmt.Errorf("индекс %d вне пакета из %d файлов", index, len(u.pending))
	}
	pf := u.pending[index]
	u.pending = append(u.pending[:index:index], u.pending[index+1:]...)
	u.mu.Unlock()

	u.releasePreview(pf)
	return nil
}

// Clear очищает пакет и описание, освобождает все превью.
func (u *UploadCoordinator) Clear() {
	u.mu.Lock()
	pending := u.pending
	u.pending = nil
	u.description = ""
	u.mu.Unlock()

	for _, pf := range pending {
		u.releasePreview(pf)
	}
}

// Close освобождает ресурсы координатора.
func (u *UploadCoordinator) Close() {
	u.Clear()
}

// SetCategory задаёт категорию пакета (неизвестные значения → OTHER).
func (u *UploadCoordinator) SetCategory(s string) model.Category {
	c := model.ParseCategory(s)
	u.mu.Lock()
	u.category = c
	u.mu.Unlock()
	return c
}

// SetDescription задаёт описание пакета.
func (u *UploadCoordinator) SetDescription(s string) {
	u.mu.Lock()
	u.description = strings.TrimSpace(s)
	u.mu.Unlock()
}

// Pending возвращает копию пакета.
func (u *UploadCoordinator) Pending() []PendingFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]PendingFile(nil), u.pending...)
}

// Category возвращает выбранную категорию.
func (u *UploadCoordinator) Category() model.Category {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.category
}

// Description возвращает описание.
func (u *UploadCoordinator) Description() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.description
}

// Err возвращает ошибку последней отправки.
func (u *UploadCoordinator) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}

// Submit отправляет пакет. При успехе пакет и описание очищаются, превью
// освобождаются и вызывается onComplete. При ошибке пакет сохраняется для повтора.
func (u *UploadCoordinator) Submit(ctx context.Context, onComplete func([]model.Attachment)) ([]model.Attachment, error) {
	return u.submit(func(files []model.LocalFile, category model.Category, description string) ([]model.Attachment, error) {
		return u.store.Upload(ctx, u.key, files, category, description)
	}, onComplete)
}

// SubmitSingle отправляет пакет из одного файла через одиночный эндпоинт backend.
// Пакет другого размера не отправляется (ErrSingleFileRequired).
func (u *UploadCoordinator) SubmitSingle(ctx context.Context, onComplete func([]model.Attachment)) ([]model.Attachment, error) {
	return u.submit(func(files []model.LocalFile, category model.Category, description string) ([]model.Attachment, error) {
		if len(files) != 1 {
			return nil, ErrSingleFileRequired
		}
		created, err := u.store.UploadSingle(ctx, u.key, files[0], category, description)
		if err != nil {
			return nil, err
		}
		return []model.Attachment{*created}, nil
	}, onComplete)
}

func (u *UploadCoordinator) submit(
	send func(files []model.LocalFile, category model.Category, description string) ([]model.Attachment, error),
	onComplete func([]model.Attachment),
) ([]model.Attachment, error) {
	u.mu.Lock()
	batch := append([]PendingFile(nil), u.pending...)
	category := u.category
	description := u.description
	u.mu.Unlock()

	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	files := make([]model.LocalFile, len(batch))
	for i, pf := range batch {
		files[i] = pf.File
	}

	created, err := send(files, category, description)
	if err != nil {
		u.mu.Lock()
		u.lastErr = err
		u.mu.Unlock()
		return nil, err
	}

	u.mu.Lock()
	u.lastErr = nil
	u.mu.Unlock()
	u.Clear()

	u.logger.Info("Пакет загружен",
		slog.Int("files", len(files)),
		slog.Int("created", len(created)),
	)

	if onComplete != nil {
		onComplete(created)
	}
	return created, nil
}

func (u *UploadCoordinator) releasePreview(pf PendingFile) {
	if u.previews != nil {
		u.previews.Release(pf.Preview)
	}
}

// newRejection формирует отклонение с сообщением, называющим файл.
func newRejection(f model.LocalFile, contentType string, reason RejectReason, p UploadPolicy) Rejection {
	var msg string
	switch reason {
	case ReasonTooLarge:
		msg = fmt.Sprintf("файл %s слишком большой (%s, максимум %s)",
			f.Name, model.FormatSize(f.Size), model.FormatSize(p.MaxSize))
	default:
		if contentType == "" {
			contentType = "неизвестный тип"
		}
		msg = fmt.Sprintf("файл %s имеет недопустимый тип (%s)", f.Name, contentType)
	}
	return Rejection{FileName: f.Name, Reason: reason, Message: msg}
}

// detectContentType возвращает MIME-тип файла. Пустой или общий тип
// определяется по содержимому, затем по расширению.
func detectContentType(f model.LocalFile) string {
	declared := baseMediaType(f.ContentType)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if f.Open != nil {
		if rc, err := f.Open(); err == nil {
			m, derr := mimetype.DetectReader(rc)
			_ = rc.Close()
			if derr == nil {
				if detected := baseMediaType(m.String()); detected != "application/octet-stream" {
					return detected
				}
			}
		}
	}

	if byExt := baseMediaType(mime.TypeByExtension(filepath.Ext(f.Name))); byExt != "" {
		return byExt
	}
	return declared
}

// baseMediaType отбрасывает параметры MIME-типа (charset и т.п.).
func baseMediaType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
