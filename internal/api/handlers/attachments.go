// attachments.go — BFF-обработчики вложений: список и галерея сущности,
// загрузка пакета, выбор для lightbox, изменение, порядок, удаление, скачивание.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	apierrors "github.com/diazhh/erp-ace-sub003/internal/api/errors"
	"github.com/diazhh/erp-ace-sub003/internal/api/generated"
	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
	"github.com/diazhh/erp-ace-sub003/internal/preview"
	"github.com/diazhh/erp-ace-sub003/internal/service"
)

// maxMultipartMemory — часть multipart-формы, хранимая в памяти (остальное на диске).
const maxMultipartMemory = 32 << 20

// maxJSONBody — ограничение тела JSON-запросов.
const maxJSONBody = 1 << 20

// multipartOverhead — запас на заголовки частей и текстовые поля формы.
const multipartOverhead = 1 << 20

// AttachmentHandler — обработчик endpoints вложений и превью.
type AttachmentHandler struct {
	store     *service.AttachmentStore
	catalog   *service.CatalogService
	downloads *service.DownloadService
	previews  *preview.Registry
	validator *requestValidator
	logger    *slog.Logger
}

// NewAttachmentHandler создаёт обработчик вложений.
// previews может быть nil — тогда превью выбранных файлов не выдаются.
func NewAttachmentHandler(
	store *service.AttachmentStore,
	catalog *service.CatalogService,
	downloads *service.DownloadService,
	previews *preview.Registry,
	logger *slog.Logger,
) *AttachmentHandler {
	return &AttachmentHandler{
		store:     store,
		catalog:   catalog,
		downloads: downloads,
		previews:  previews,
		validator: newRequestValidator(),
		logger:    logger.With(slog.String("component", "attachment_handler")),
	}
}

// DownloadURLs направляет ссылки галереи на download proxy модуля.
func DownloadURLs(a model.Attachment, thumbnail bool) string {
	u := "/api/v1/attachments/" + url.PathEscape(a.ID) + "/download"
	if thumbnail {
		u += "?thumbnail=true"
	}
	return u
}

// --- Endpoints сущности ---

// ListAttachments — GET /api/v1/entities/{entityType}/{entityId}/attachments.
// Загружает список и возвращает модель галереи. При недоступности backend
// ответ содержит прежний кэш и описание ошибки; при отказе в доступе
// (401/403/404) — только ошибку.
func (h *AttachmentHandler) ListAttachments(
	w http.ResponseWriter, r *http.Request,
	entityType generated.EntityType, entityID generated.EntityId,
	params generated.ListAttachmentsParams,
) {
	key, ok := entityKey(w, entityType, entityID)
	if !ok {
		return
	}

	section := h.newSection(r.Context(), key, variantOf(params.Variant), deref(params.Category))
	defer section.Unmount()

	err := section.Mount(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, h.sectionResponse(section, layoutOf(params.Layout)))
		return
	}

	h.logger.Warn("Не удалось загрузить вложения",
		slog.String("entity", key.String()),
		slog.String("error", err.Error()),
	)
	if apierrors.Denied(err) {
		apierrors.FromBackend(w, err)
		return
	}

	status, code, message := apierrors.Describe(err)
	resp := h.sectionResponse(section, layoutOf(params.Layout))
	resp.Error = &generated.ErrorBody{Code: code, Message: message}
	writeJSON(w, status, resp)
}

// UploadAttachments — POST /api/v1/entities/{entityType}/{entityId}/attachments.
// multipart: files (или files[] / file), category, description.
// Один файл в поле file отправляется на одиночный эндпоинт backend.
func (h *AttachmentHandler) UploadAttachments(
	w http.ResponseWriter, r *http.Request,
	entityType generated.EntityType, entityID generated.EntityId,
	params generated.UploadAttachmentsParams,
) {
	key, ok := entityKey(w, entityType, entityID)
	if !ok {
		return
	}

	section := h.newSection(r.Context(), key, variantOf(params.Variant), "")
	defer section.Unmount()

	uploader := section.Uploader()
	form, ok := parseUploadForm(w, r, uploader.Policy())
	if !ok {
		return
	}
	defer func() { _ = form.RemoveAll() }()

	headers, single := formFiles(form)
	uploader.SetCategory(r.FormValue("category"))
	uploader.SetDescription(r.FormValue("description"))

	added := uploader.Add(filesFromHeaders(headers)...)
	if len(added.Accepted) == 0 {
		apierrors.ValidationError(w, nothingAcceptedMessage(added, uploader.Policy()))
		return
	}

	var (
		created []model.Attachment
		err     error
	)
	if single && len(added.Accepted) == 1 {
		created, err = section.SubmitSingle(r.Context())
	} else {
		created, err = section.Submit(r.Context())
	}
	if err != nil {
		h.logger.Warn("Ошибка загрузки вложений",
			slog.String("entity", key.String()),
			slog.Int("files", len(added.Accepted)),
			slog.String("error", err.Error()),
		)
		apierrors.FromBackend(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, generated.UploadResponse{
		Created:    created,
		Rejections: added.Rejections,
		Dropped:    added.Dropped,
		Message:    added.Message(),
		Section:    h.sectionResponse(section, layoutOf(params.Layout)),
	})
}

// DeleteEntityAttachments — DELETE /api/v1/entities/{entityType}/{entityId}/attachments.
// confirm должен совпадать с {entityType}/{entityId}.
func (h *AttachmentHandler) DeleteEntityAttachments(
	w http.ResponseWriter, r *http.Request,
	entityType generated.EntityType, entityID generated.EntityId,
	params generated.DeleteEntityAttachmentsParams,
) {
	key, ok := entityKey(w, entityType, entityID)
	if !ok {
		return
	}
	hard := flag(params.Hard)

	if deref(params.Confirm) != key.String() {
		apierrors.ConfirmationRequired(w,
			fmt.Sprintf("Для удаления всех вложений %s передайте confirm=%s", key, key))
		return
	}

	if err := h.store.DeleteForEntity(r.Context(), key, hard); err != nil {
		apierrors.FromBackend(w, err)
		return
	}

	h.logger.Info("Вложения сущности удалены",
		slog.String("entity", key.String()),
		slog.Bool("hard", hard),
	)
	w.WriteHeader(http.StatusNoContent)
}

// SelectAttachment — GET /api/v1/entities/{entityType}/{entityId}/attachments/{id}/select.
// Изображение открывает lightbox (позиция, соседи), остальные — действие download.
// Список всегда перечитывается от имени вызывающего; кэш используется
// только при недоступности backend.
func (h *AttachmentHandler) SelectAttachment(
	w http.ResponseWriter, r *http.Request,
	entityType generated.EntityType, entityID generated.EntityId, id generated.AttachmentId,
	params generated.SelectAttachmentParams,
) {
	key, ok := entityKey(w, entityType, entityID)
	if !ok {
		return
	}

	section := h.newSection(r.Context(), key, service.VariantAccordion, deref(params.Category))
	defer section.Unmount()

	if err := section.Mount(r.Context()); err != nil {
		_, cached := h.store.Snapshot(key)
		if apierrors.Denied(err) || !cached {
			apierrors.FromBackend(w, err)
			return
		}
		h.logger.Warn("Backend недоступен, выбор по кэшу",
			slog.String("entity", key.String()),
			slog.String("error", err.Error()),
		)
	}

	sel, err := section.Gallery().Select(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, fmt.Sprintf("Вложение %s не найдено у %s", id, key))
			return
		}
		apierrors.InternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// --- Endpoints вложения ---

// ReorderAttachments — PUT /api/v1/attachments/reorder.
func (h *AttachmentHandler) ReorderAttachments(w http.ResponseWriter, r *http.Request) {
	var req generated.ReorderAttachmentsJSONRequestBody
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.store.Reorder(r.Context(), req.Items); err != nil {
		apierrors.FromBackend(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateAttachment — PUT /api/v1/attachments/{id}. Частичное обновление категории и описания.
func (h *AttachmentHandler) UpdateAttachment(w http.ResponseWriter, r *http.Request, id generated.AttachmentId) {
	var req generated.UpdateAttachmentJSONRequestBody
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Category == nil && req.Description == nil {
		apierrors.ValidationError(w, "Нужно указать category или description")
		return
	}

	update := model.UpdateRequest{Description: req.Description}
	if req.Category != nil {
		c := model.ParseCategory(*req.Category)
		update.Category = &c
	}

	updated, err := h.store.Update(r.Context(), id, update)
	if err != nil {
		apierrors.FromBackend(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAttachment — DELETE /api/v1/attachments/{id}.
// confirm должен совпадать с именем файла вложения. Имя берётся из списка,
// перечитанного от имени вызывающего.
func (h *AttachmentHandler) DeleteAttachment(
	w http.ResponseWriter, r *http.Request,
	id generated.AttachmentId, params generated.DeleteAttachmentParams,
) {
	hard := flag(params.Hard)

	key, cached := h.store.Owner(id)
	if !cached {
		apierrors.NotFound(w, fmt.Sprintf("Вложение %s не загружено: откройте список вложений сущности", id))
		return
	}
	if _, err := h.store.FetchForEntity(r.Context(), key, ""); err != nil {
		apierrors.FromBackend(w, err)
		return
	}

	gallery := service.NewGallery(h.store, key, nil, DownloadURLs, h.logger)
	conf, err := gallery.RequestDelete(id)
	if err != nil {
		apierrors.NotFound(w, fmt.Sprintf("Вложение %s не найдено", id))
		return
	}

	if deref(params.Confirm) != conf.FileName {
		gallery.CancelDelete()
		apierrors.ConfirmationRequired(w,
			fmt.Sprintf("Подтвердите удаление файла %s: передайте confirm=%s", conf.FileName, conf.FileName))
		return
	}

	err = gallery.ConfirmDelete(r.Context(), func(ctx context.Context, id string) error {
		return h.store.DeleteByID(ctx, id, hard)
	})
	if err != nil {
		apierrors.FromBackend(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadAttachment — GET /api/v1/attachments/{id}/download?thumbnail=.
func (h *AttachmentHandler) DownloadAttachment(
	w http.ResponseWriter, r *http.Request,
	id generated.AttachmentId, params generated.DownloadAttachmentParams,
) {
	err := h.downloads.Download(r.Context(), w, id, flag(params.Thumbnail), r.Header.Get("Range"))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, fmt.Sprintf("Вложение %s не загружено: откройте список вложений сущности", id))
	case errors.Is(err, service.ErrNoThumbnail):
		apierrors.NotFound(w, fmt.Sprintf("У вложения %s нет уменьшенной копии", id))
	case errors.Is(err, service.ErrFileDeleted):
		apierrors.NotFound(w, fmt.Sprintf("Файл вложения %s удалён на сервере", id))
	default:
		apierrors.FromBackend(w, err)
	}
}

// GetCatalogs — GET /api/v1/attachments/catalogs. Справочники и действующая политика загрузки.
func (h *AttachmentHandler) GetCatalogs(w http.ResponseWriter, r *http.Request) {
	h.catalog.Ensure(r.Context())

	c := h.catalog.Catalogs()
	resp := generated.CatalogsResponse{
		Categories:   make([]generated.CategoryInfo, 0, len(c.Categories)),
		EntityTypes:  c.EntityTypes,
		UploadPolicy: newPolicyView(h.catalog.Policy()),
	}
	if resp.EntityTypes == nil {
		resp.EntityTypes = []string{}
	}
	for _, cat := range c.Categories {
		resp.Categories = append(resp.Categories, generated.CategoryInfo{Value: cat, Label: cat.Label(), Color: cat.Color()})
	}
	if stats, ok := h.catalog.Stats(); ok {
		resp.Stats = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Вспомогательные функции ---

// newSection создаёт секцию сущности с действующей политикой загрузки.
func (h *AttachmentHandler) newSection(ctx context.Context, key model.EntityKey, variant service.Variant, category string) *service.Section {
	h.catalog.Ensure(ctx)
	return service.NewSection(h.store, key, service.SectionOptions{
		Variant:  variant,
		Category: category,
		Policy:   h.catalog.Policy(),
		URLs:     DownloadURLs,
	}, h.logger)
}

func (h *AttachmentHandler) sectionResponse(s *service.Section, layout service.Layout) generated.SectionResponse {
	st := s.State()
	return generated.SectionResponse{
		EntityType:   st.Key.EntityType,
		EntityId:     st.Key.EntityID,
		Variant:      st.Variant,
		Loading:      st.Loading,
		Uploading:    st.Uploading,
		Gallery:      s.Gallery().View(layout),
		UploadPolicy: newPolicyView(s.Uploader().Policy()),
	}
}

func newPolicyView(p service.UploadPolicy) generated.UploadPolicy {
	allowed := p.AllowedTypes
	if allowed == nil {
		allowed = []string{}
	}
	return generated.UploadPolicy{
		MaxFiles:         p.MaxFiles,
		MaxSize:          p.MaxSize,
		MaxSizeFormatted: model.FormatSize(p.MaxSize),
		AllowedTypes:     allowed,
	}
}

// decodeJSON читает и валидирует тело запроса. false — ответ с ошибкой уже записан.
func (h *AttachmentHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return false
	}
	if err := h.validator.Validate(dst); err != nil {
		apierrors.ValidationError(w, err.Error())
		return false
	}
	return true
}

// uploadBodyLimit — предел тела multipart-запроса для политики:
// MaxFiles файлов максимального размера и запас на служебные части.
func uploadBodyLimit(p service.UploadPolicy) int64 {
	return int64(p.MaxFiles)*p.MaxSize + multipartOverhead
}

// parseUploadForm ограничивает тело запроса и разбирает multipart-форму.
// nil, false — ответ с ошибкой уже записан.
func parseUploadForm(w http.ResponseWriter, r *http.Request, policy service.UploadPolicy) (*multipart.Form, bool) {
	limit := uploadBodyLimit(policy)
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(w, fmt.Sprintf("Размер запроса превышает %s", model.FormatSize(limit)))
			return nil, false
		}
		apierrors.ValidationError(w, "Ожидается multipart/form-data: "+err.Error())
		return nil, false
	}

	if headers, _ := formFiles(r.MultipartForm); len(headers) == 0 {
		_ = r.MultipartForm.RemoveAll()
		apierrors.ValidationError(w, "Не выбраны файлы для загрузки")
		return nil, false
	}
	return r.MultipartForm, true
}

// formFiles собирает файлы из полей files, files[] и file.
// single — форма содержит ровно один файл и только в поле file.
func formFiles(form *multipart.Form) (headers []*multipart.FileHeader, single bool) {
	for _, field := range []string{"files", "files[]", "file"} {
		headers = append(headers, form.File[field]...)
	}
	single = len(headers) == 1 && len(form.File["file"]) == 1
	return headers, single
}

func filesFromHeaders(headers []*multipart.FileHeader) []model.LocalFile {
	files := make([]model.LocalFile, len(headers))
	for i, fh := range headers {
		files[i] = model.FileFromHeader(fh)
	}
	return files
}

// nothingAcceptedMessage — сообщение, когда ни один файл не принят.
func nothingAcceptedMessage(added service.AddResult, policy service.UploadPolicy) string {
	if msg := added.Message(); msg != "" {
		return msg
	}
	return fmt.Sprintf("Превышено максимальное количество файлов: %d", policy.MaxFiles)
}

// entityKey проверяет ключ сущности из URL. false — ответ с ошибкой уже записан.
func entityKey(w http.ResponseWriter, entityType, entityID string) (model.EntityKey, bool) {
	key, err := model.NewEntityKey(entityType, entityID)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return model.EntityKey{}, false
	}
	return key, true
}

func layoutOf(l *generated.Layout) service.Layout {
	if l == nil {
		return service.ParseLayout("")
	}
	return service.ParseLayout(string(*l))
}

func variantOf(v *generated.Variant) service.Variant {
	if v == nil {
		return service.ParseVariant("")
	}
	return service.ParseVariant(string(*v))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func flag(b *bool) bool {
	return b != nil && *b
}
