package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/diazhh/erp-ace-sub003/internal/apiclient"
	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeBackend — in-memory ERP backend.
type fakeBackend struct {
	mu      sync.Mutex
	records map[model.EntityKey][]model.Attachment
	nextID  int

	listErr   error
	uploadErr error
	deleteErr error

	// listGate — если задан, List ждёт значения из канала
	listGate chan struct{}
	// listEntered — если задан, List сообщает о входе до ожидания listGate
	listEntered chan struct{}
	// uploadGate — если задан, Upload и UploadSingle ждут значения из канала
	uploadGate chan struct{}

	listCalls int
	uploads   [][]model.LocalFile
	singles   []model.LocalFile
	params    []apiclient.UploadParams
	deleted   []string
	reorders  [][]model.ReorderItem
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{records: make(map[model.EntityKey][]model.Attachment)}
}

// seed добавляет записи сущности.
func (b *fakeBackend) seed(key model.EntityKey, items ...model.Attachment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range items {
		a.EntityType, a.EntityID = key.EntityType, key.EntityID
		b.records[key] = append(b.records[key], a)
	}
}

func (b *fakeBackend) List(_ context.Context, key model.EntityKey, category string) ([]model.Attachment, error) {
	if b.listEntered != nil {
		b.listEntered <- struct{}{}
	}
	if b.listGate != nil {
		<-b.listGate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}

	var out []model.Attachment
	for _, a := range b.records[key] {
		if category == "" || string(a.Category) == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (b *fakeBackend) Upload(_ context.Context, key model.EntityKey, files []model.LocalFile, params apiclient.UploadParams) ([]model.Attachment, error) {
	if b.uploadGate != nil {
		<-b.uploadGate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, files)
	b.params = append(b.params, params)
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	return b.createLocked(key, files, params), nil
}

func (b *fakeBackend) UploadSingle(_ context.Context, key model.EntityKey, file model.LocalFile, params apiclient.UploadParams) (*model.Attachment, error) {
	if b.uploadGate != nil {
		<-b.uploadGate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.singles = append(b.singles, file)
	b.params = append(b.params, params)
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	return &b.createLocked(key, []model.LocalFile{file}, params)[0], nil
}

// createLocked создаёт записи для загруженных файлов. Вызывается под mu.
func (b *fakeBackend) createLocked(key model.EntityKey, files []model.LocalFile, params apiclient.UploadParams) []model.Attachment {
	created := make([]model.Attachment, 0, len(files))
	for _, f := range files {
		b.nextID++
		a := model.Attachment{
			ID:           fmt.Sprintf("new-%d", b.nextID),
			EntityType:   key.EntityType,
			EntityID:     key.EntityID,
			OriginalName: f.Name,
			MimeType:     f.ContentType,
			FileSize:     f.Size,
			FileURL:      "/uploads/" + f.Name,
			Category:     params.Category,
			Description:  params.Description,
		}
		created = append(created, a)
		b.records[key] = append(b.records[key], a)
	}
	return created
}

func (b *fakeBackend) Update(_ context.Context, id string, req model.UpdateRequest) (*model.Attachment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, items := range b.records {
		for i, a := range items {
			if a.ID == id {
				items[i] = req.Apply(a)
				b.records[key] = items
				updated := items[i]
				return &updated, nil
			}
		}
	}
	return nil, &apiclient.APIError{StatusCode: 404, Message: "Adjunto no encontrado"}
}

func (b *fakeBackend) Delete(_ context.Context, id string, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	for key, items := range b.records {
		b.records[key] = slices.DeleteFunc(items, func(a model.Attachment) bool { return a.ID == id })
	}
	return nil
}

func (b *fakeBackend) DeleteForEntity(_ context.Context, key model.EntityKey, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.records, key)
	return nil
}

func (b *fakeBackend) Reorder(_ context.Context, items []model.ReorderItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reorders = append(b.reorders, items)
	return nil
}

func (b *fakeBackend) Catalogs(context.Context) (*model.Catalogs, error) {
	return nil, fmt.Errorf("не используется")
}

func (b *fakeBackend) Stats(context.Context) (*model.Stats, error) {
	return nil, fmt.Errorf("не используется")
}

// Тестовые данные: сущность E с [A(image), B(pdf), C(image)].
var (
	keyE = model.EntityKey{EntityType: "inventory_item", EntityID: "E"}
	keyF = model.EntityKey{EntityType: "contractor_invoice", EntityID: "F"}

	attA = model.Attachment{ID: "A", OriginalName: "frente.jpg", MimeType: "image/jpeg", FileSize: 2048,
		FileURL: "/uploads/a.jpg", ThumbnailURL: "/uploads/thumb_a.jpg", Category: model.CategoryPhoto}
	attB = model.Attachment{ID: "B", OriginalName: "factura.pdf", MimeType: "application/pdf", FileSize: 4096,
		FileURL: "/uploads/b.pdf", Category: model.CategoryDocument}
	attC = model.Attachment{ID: "C", OriginalName: "lateral.png", MimeType: "image/png", FileSize: 1024,
		FileURL: "/uploads/c.png", Category: model.CategoryPhoto}
)

// newSeededStore создаёт кэш поверх backend с сущностью E.
func newSeededStore(t interface{ Helper() }) (*AttachmentStore, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	backend.seed(keyE, attA, attB, attC)
	return NewAttachmentStore(backend, 100, 0, testLogger()), backend
}
