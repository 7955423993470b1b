// previews.go — превью файлов, выбранных для загрузки.
// Файлы проверяются политикой загрузки, изображения получают превью
// с владельцем — субъектом JWT. Превью живут до освобождения или TTL реестра.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	apierrors "github.com/diazhh/erp-ace-sub003/internal/api/errors"
	"github.com/diazhh/erp-ace-sub003/internal/api/generated"
	"github.com/diazhh/erp-ace-sub003/internal/api/middleware"
	"github.com/diazhh/erp-ace-sub003/internal/preview"
	"github.com/diazhh/erp-ace-sub003/internal/service"
)

// PreviewURL — адрес содержимого превью.
func PreviewURL(id string) string {
	return "/api/v1/previews/" + url.PathEscape(id)
}

// StagePreviews — POST /api/v1/entities/{entityType}/{entityId}/attachments/previews.
// Ничего не отправляет в backend.
func (h *AttachmentHandler) StagePreviews(
	w http.ResponseWriter, r *http.Request,
	entityType generated.EntityType, entityID generated.EntityId,
) {
	key, ok := entityKey(w, entityType, entityID)
	if !ok {
		return
	}

	h.catalog.Ensure(r.Context())
	batch := service.NewUploadCoordinator(nil, nil, key, h.catalog.Policy(), h.logger)
	defer batch.Close()

	form, ok := parseUploadForm(w, r, batch.Policy())
	if !ok {
		return
	}
	defer func() { _ = form.RemoveAll() }()

	headers, _ := formFiles(form)
	added := batch.Add(filesFromHeaders(headers)...)
	if len(added.Accepted) == 0 {
		apierrors.ValidationError(w, nothingAcceptedMessage(added, batch.Policy()))
		return
	}

	owner := subjectOf(r)
	resp := generated.StagedPreviewsResponse{
		Previews:   []generated.StagedPreview{},
		Accepted:   make([]string, 0, len(added.Accepted)),
		Rejections: added.Rejections,
		Dropped:    added.Dropped,
		Message:    added.Message(),
	}
	for _, pf := range added.Accepted {
		resp.Accepted = append(resp.Accepted, pf.File.Name)
		if staged, ok := h.stagePreview(pf, owner); ok {
			resp.Previews = append(resp.Previews, staged)
		}
	}

	h.logger.Debug("Превью выданы",
		slog.String("entity", key.String()),
		slog.Int("accepted", len(resp.Accepted)),
		slog.Int("previews", len(resp.Previews)),
	)
	writeJSON(w, http.StatusCreated, resp)
}

// stagePreview создаёт превью принятого файла. false — файл не изображение
// или превью не создано.
func (h *AttachmentHandler) stagePreview(pf service.PendingFile, owner string) (generated.StagedPreview, bool) {
	if h.previews == nil {
		return generated.StagedPreview{}, false
	}
	handle, err := h.previews.AcquireOwned(pf.File, pf.ContentType, owner)
	if err != nil {
		h.logger.Warn("Не удалось создать превью",
			slog.String("file", pf.File.Name),
			slog.String("error", err.Error()),
		)
		return generated.StagedPreview{}, false
	}
	if handle == nil {
		return generated.StagedPreview{}, false
	}

	p, err := h.previews.Get(handle.ID)
	if err != nil {
		return generated.StagedPreview{}, false
	}
	return generated.StagedPreview{
		Id:          uuid.MustParse(handle.ID),
		Url:         PreviewURL(handle.ID),
		FileName:    p.FileName,
		ContentType: p.ContentType,
		Width:       p.Width,
		Height:      p.Height,
	}, true
}

// GetPreview — GET /api/v1/previews/{previewId}.
// Превью другого владельца неотличимо от отсутствующего.
func (h *AttachmentHandler) GetPreview(w http.ResponseWriter, r *http.Request, previewID generated.PreviewId) {
	p, ok := h.ownedPreview(w, r, previewID)
	if !ok {
		return
	}
	if len(p.Data) == 0 {
		apierrors.NotFound(w, fmt.Sprintf("Содержимое превью %s недоступно", previewID))
		return
	}

	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.Data)
}

// ReleasePreview — DELETE /api/v1/previews/{previewId}.
func (h *AttachmentHandler) ReleasePreview(w http.ResponseWriter, r *http.Request, previewID generated.PreviewId) {
	if _, ok := h.ownedPreview(w, r, previewID); !ok {
		return
	}
	h.previews.ReleaseID(previewID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *AttachmentHandler) ownedPreview(w http.ResponseWriter, r *http.Request, previewID generated.PreviewId) (*preview.Preview, bool) {
	notFound := fmt.Sprintf("Превью %s не найдено", previewID)
	if h.previews == nil {
		apierrors.NotFound(w, notFound)
		return nil, false
	}
	p, err := h.previews.Get(previewID.String())
	if err != nil || p.Owner != subjectOf(r) {
		apierrors.NotFound(w, notFound)
		return nil, false
	}
	return p, true
}

// subjectOf возвращает субъект JWT (пусто, если аутентификация отключена).
func subjectOf(r *http.Request) string {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}
