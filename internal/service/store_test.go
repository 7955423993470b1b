package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diazhh/erp-ace-sub003/internal/apiclient"
	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

func ids(items []model.Attachment) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.ID
	}
	return out
}

// TestFetchForEntity_ReplacesBucket проверяет замену бакета при успехе.
func TestFetchForEntity_ReplacesBucket(t *testing.T) {
	store, backend := newSeededStore(t)
	ctx := context.Background()

	items, err := store.FetchForEntity(ctx, keyE, "")
	if err != nil {
		t.Fatalf("FetchForEntity ошибка: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("получено %d вложений, ожидалось 3", len(items))
	}

	backend.Delete(ctx, "B", false)
	if _, err := store.FetchForEntity(ctx, keyE, ""); err != nil {
		t.Fatal(err)
	}
	snap, ok := store.Snapshot(keyE)
	if !ok || len(snap) != 2 {
		t.Errorf("после повторной загрузки ожидалось 2 вложения, получено %v", ids(snap))
	}
}

// TestFetchForEntity_CategoryFilter проверяет фильтр по категории.
func TestFetchForEntity_CategoryFilter(t *testing.T) {
	store, _ := newSeededStore(t)

	items, err := store.FetchForEntity(context.Background(), keyE, "PHOTO")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("ожидалось 2 фото, получено %v", ids(items))
	}
}

// TestFetchForEntity_FailurePreservesCache проверяет сохранение кэша при ошибке.
func TestFetchForEntity_FailurePreservesCache(t *testing.T) {
	store, backend := newSeededStore(t)
	ctx := context.Background()

	if _, err := store.FetchForEntity(ctx, keyE, ""); err != nil {
		t.Fatal(err)
	}

	backend.listErr = &apiclient.APIError{StatusCode: 503, Message: "Servicio no disponible"}
	_, err := store.FetchForEntity(ctx, keyE, "")
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}

	var apiErr *apiclient.APIError
	if !errors.As(store.Err(), &apiErr) || apiErr.Message != "Servicio no disponible" {
		t.Errorf("Err() = %v, ожидалось сообщение сервера", store.Err())
	}
	if store.Loading() {
		t.Error("loading должен быть сброшен")
	}

	snap, _ := store.Snapshot(keyE)
	if len(snap) != 3 {
		t.Errorf("кэш изменён при ошибке: %v", ids(snap))
	}

	backend.listErr = nil
	if _, err := store.FetchForEntity(ctx, keyE, ""); err != nil {
		t.Fatal(err)
	}
	if store.Err() != nil {
		t.Errorf("ошибка не сброшена после успеха: %v", store.Err())
	}
}

// TestUploadThenFetch_ExactlyOnce проверяет, что после upload и fetch каждая
// созданная запись присутствует в кэше ровно один раз.
func TestUploadThenFetch_ExactlyOnce(t *testing.T) {
	for _, held := range []bool{false, true} {
		store, _ := newSeededStore(t)
		ctx := context.Background()

		if held {
			if _, err := store.FetchForEntity(ctx, keyE, ""); err != nil {
				t.Fatal(err)
			}
		}

		files := []model.LocalFile{
			model.FileFromBytes("uno.pdf", "application/pdf", []byte("1")),
			model.FileFromBytes("dos.pdf", "application/pdf", []byte("2")),
		}
		created, err := store.Upload(ctx, keyE, files, model.CategoryInvoice, "")
		if err != nil {
			t.Fatalf("Upload ошибка: %v", err)
		}
		if _, err := store.FetchForEntity(ctx, keyE, ""); err != nil {
			t.Fatal(err)
		}

		snap, _ := store.Snapshot(keyE)
		for _, c := range created {
			count := 0
			for _, a := range snap {
				if a.ID == c.ID {
					count++
				}
			}
			if count != 1 {
				t.Errorf("held=%v: запись %s встречается %d раз, ожидался 1", held, c.ID, count)
			}
		}
		if len(snap) != 5 {
			t.Errorf("held=%v: в кэше %d записей, ожидалось 5", held, len(snap))
		}
	}
}

// TestUpload_MergesIntoHeldBucket проверяет слияние созданных записей до повторной загрузки.
func TestUpload_MergesIntoHeldBucket(t *testing.T) {
	store, _ := newSeededStore(t)
	ctx := context.Background()
	_, _ = store.FetchForEntity(ctx, keyE, "")

	created, err := store.Upload(ctx, keyE,
		[]model.LocalFile{model.FileFromBytes("x.png", "image/png", []byte("x"))}, model.CategoryPhoto, "")
	if err != nil {
		t.Fatal(err)
	}

	snap, _ := store.Snapshot(keyE)
	if len(snap) != 4 || snap[3].ID != created[0].ID {
		t.Errorf("созданная запись не добавлена в бакет: %v", ids(snap))
	}

	// Бакет другой сущности не создаётся
	if _, ok := store.Snapshot(keyF); ok {
		t.Error("бакет F не должен появиться")
	}
}

// TestUpload_EmptyAndFailure проверяет пустой пакет и ошибку backend.
func TestUpload_EmptyAndFailure(t *testing.T) {
	store, backend := newSeededStore(t)
	ctx := context.Background()
	_, _ = store.FetchForEntity(ctx, keyE, "")

	if _, err := store.Upload(ctx, keyE, nil, model.CategoryOther, ""); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("ожидалась ErrEmptyBatch, получено %v", err)
	}
	if len(backend.uploads) != 0 {
		t.Error("пустой пакет не должен отправляться")
	}

	backend.uploadErr = &apiclient.APIError{StatusCode: 400, Message: "Tipo de archivo no permitido"}
	_, err := store.Upload(ctx, keyE,
		[]model.LocalFile{model.FileFromBytes("x.exe", "", []byte("MZ"))}, model.CategoryOther, "")
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if store.Uploading() {
		t.Error("uploading должен быть сброшен")
	}
	snap, _ := store.Snapshot(keyE)
	if len(snap) != 3 {
		t.Errorf("кэш изменён при ошибке загрузки: %v", ids(snap))
	}
}

// TestDeleteByID_AllBuckets проверяет удаление из всех бакетов и no-op для неизвестного id.
func TestDeleteByID_AllBuckets(t *testing.T) {
	store, backend := newSeededStore(t)
	ctx := context.Background()

	// Одна и та же запись B в двух бакетах (фильтр по категории и полный список)
	backend.seed(keyF, attB, attC)
	_, _ = store.FetchForEntity(ctx, keyE, "")
	_, _ = store.FetchForEntity(ctx, keyF, "")

	if err := store.DeleteByID(ctx, "B", true); err != nil {
		t.Fatalf("DeleteByID ошибка: %v", err)
	}

	for _, key := range []model.EntityKey{keyE, keyF} {
		snap, _ := store.Snapshot(key)
		for _, a := range snap {
			if a.ID == "B" {
				t.Errorf("B осталась в бакете %s", key)
			}
		}
	}
	snapE, _ := store.Snapshot(keyE)
	if got := ids(snapE); len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Errorf("бакет E = %v, ожидалось [A C]", got)
	}

	if err := store.DeleteByID(ctx, "missing", false); err != nil {
		t.Errorf("удаление неизвестного id: %v", err)
	}
	snapE2, _ := store.Snapshot(keyE)
	if len(snapE2) != 2 {
		t.Errorf("неизвестный id изменил кэш: %v", ids(snapE2))
	}
}

// TestDeleteByID_Failure проверяет, что при ошибке кэш не меняется.
func TestDeleteByID_Failure(t *testing.T) {
	store, backend := newSeededStore(t)
	ctx := context.Background()
	_, _ = store.FetchForEntity(ctx, keyE, "")

	backend.deleteErr = errors.New("connection refused")
	if err := store.DeleteByID(ctx, "A", false); err == nil {
		t.Fatal("ожидалась ошибка")
	}
	snap, _ := store.Snapshot(keyE)
	if len(snap) != 3 {
		t.Errorf("кэш изменён при ошибке удаления: %v", ids(snap))
	}
}

// TestDeleteForEntity проверяет удаление бакета.
func TestDeleteForEntity(t *testing.T) {
	store, _ := newSeededStore(t)
	ctx := context.Background()
	_, _ = store.FetchForEntity(ctx, keyE, "")

	if err := store.DeleteForEntity(ctx, keyE, false); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Snapshot(keyE); ok {
		t.Error("бакет должен быть удалён")
	}
}

// TestUpdate_ReplacesRecord проверяет замену записи в кэше.
func TestUpdate_ReplacesRecord(t *testing.T) {
	store, _ := newSeededStore(t)
	ctx := context.Background()
	_, _ = store.FetchForEntity(ctx, keyE, "")

	cat := model.CategoryEvidence
	desc := "antes de la reparación"
	if _, err := store.Update(ctx, "C", model.UpdateRequest{Category: &cat, Description: &desc}); err != nil {
		t.Fatal(err)
	}

	a, ok := store.Find("C")
	if !ok || a.Category != model.CategoryEvidence || a.Description != desc {
		t.Errorf("запись не обновлена: %+v", a)
	}
}

// TestReorder_DoesNotReorderCache проверяет передачу порядка без изменения кэша.
func TestReorder_DoesNotReorderCache(t *testing.T) {
	store, backend := newSeededStore(t)
	ctx := context.Background()
	_, _ = store.FetchForEntity(ctx, keyE, "")

	items := []model.ReorderItem{{ID: "C", Order: 0}, {ID: "B", Order: 1}, {ID: "A", Order: 2}}
	if err := store.Reorder(ctx, items); err != nil {
		t.Fatal(err)
	}
	if len(backend.reorders) != 1 || backend.reorders[0][0].ID != "C" {
		t.Errorf("порядок не передан backend: %+v", backend.reorders)
	}
	snap, _ := store.Snapshot(keyE)
	if got := ids(snap); got[0] != "A" {
		t.Errorf("кэш переупорядочен: %v", got)
	}
}

// TestLoadingFlag проверяет флаг loading во время запроса.
func TestLoadingFlag(t *testing.T) {
	store, backend := newSeededStore(t)
	backend.listGate = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.FetchForEntity(context.Background(), keyE, "")
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !store.Loading() {
		if time.Now().After(deadline) {
			t.Fatal("loading не выставлен")
		}
		time.Sleep(time.Millisecond)
	}

	backend.listGate <- struct{}{}
	<-done

	if store.Loading() {
		t.Error("loading не сброшен после завершения")
	}
}

// TestLoadingFlag_FirstSettleClears проверяет, что общий флаг loading
// сбрасывает первый завершившийся запрос, даже если второй ещё выполняется.
func TestLoadingFlag_FirstSettleClears(t *testing.T) {
	store, backend := newSeededStore(t)
	backend.seed(keyF, model.Attachment{ID: "F1", OriginalName: "orden.pdf", MimeType: "application/pdf"})
	backend.listEntered = make(chan struct{})
	backend.listGate = make(chan struct{})

	doneE := make(chan struct{})
	doneF := make(chan struct{})
	go func() {
		defer close(doneE)
		_, _ = store.FetchForEntity(context.Background(), keyE, "")
	}()
	go func() {
		defer close(doneF)
		_, _ = store.FetchForEntity(context.Background(), keyF, "")
	}()

	// Оба запроса вошли в backend
	<-backend.listEntered
	<-backend.listEntered
	if !store.Loading() {
		t.Fatal("loading должен быть выставлен во время запросов")
	}

	backend.listGate <- struct{}{}
	var pending chan struct{}
	select {
	case <-doneE:
		pending = doneF
	case <-doneF:
		pending = doneE
	case <-time.After(2 * time.Second):
		t.Fatal("ни один запрос не завершился")
	}

	if store.Loading() {
		t.Error("loading должен сброситься первым завершившимся запросом")
	}
	select {
	case <-pending:
		t.Fatal("второй запрос не должен завершиться до открытия gate")
	default:
	}

	backend.listGate <- struct{}{}
	<-pending
	if store.Loading() {
		t.Error("loading не сброшен после обоих запросов")
	}
}

// TestUploadingFlag проверяет, что uploading выставлен только на время Upload.
func TestUploadingFlag(t *testing.T) {
	store, backend := newSeededStore(t)
	backend.uploadGate = make(chan struct{})

	if store.Uploading() {
		t.Fatal("uploading до загрузки должен быть false")
	}

	done := make(chan error, 1)
	go func() {
		_, err := store.Upload(context.Background(), keyE,
			[]model.LocalFile{model.FileFromBytes("acta.pdf", "application/pdf", []byte("1"))}, model.CategoryDocument, "")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !store.Uploading() {
		if time.Now().After(deadline) {
			t.Fatal("uploading не выставлен во время загрузки")
		}
		time.Sleep(time.Millisecond)
	}
	if store.Loading() {
		t.Error("загрузка файлов не должна выставлять loading")
	}

	backend.uploadGate <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("Upload ошибка: %v", err)
	}
	if store.Uploading() {
		t.Error("uploading не сброшен после завершения")
	}

	// Ошибка backend тоже сбрасывает флаг
	backend.uploadErr = &apiclient.APIError{StatusCode: 500, Message: "Error al subir"}
	go func() {
		_, err := store.Upload(context.Background(), keyE,
			[]model.LocalFile{model.FileFromBytes("b.pdf", "application/pdf", []byte("2"))}, model.CategoryDocument, "")
		done <- err
	}()
	backend.uploadGate <- struct{}{}
	if err := <-done; err == nil {
		t.Fatal("ожидалась ошибка загрузки")
	}
	if store.Uploading() {
		t.Error("uploading не сброшен после ошибки")
	}
}

// TestUploadSingle_MergesIntoHeldBucket проверяет загрузку одного файла через /single.
func TestUploadSingle_MergesIntoHeldBucket(t *testing.T) {
	store, backend := newSeededStore(t)
	ctx := context.Background()
	_, _ = store.FetchForEntity(ctx, keyE, "")

	created, err := store.UploadSingle(ctx, keyE,
		model.FileFromBytes("plano.pdf", "application/pdf", []byte("p")), model.CategoryContract, "planta")
	if err != nil {
		t.Fatalf("UploadSingle ошибка: %v", err)
	}
	if len(backend.singles) != 1 || len(backend.uploads) != 0 {
		t.Errorf("ожидался один вызов /single, получено singles=%d uploads=%d", len(backend.singles), len(backend.uploads))
	}
	if backend.params[0].Category != model.CategoryContract || backend.params[0].Description != "planta" {
		t.Errorf("параметры загрузки %+v", backend.params[0])
	}

	snap, _ := store.Snapshot(keyE)
	if len(snap) != 4 || snap[3].ID != created.ID {
		t.Errorf("созданная запись не добавлена в бакет: %v", ids(snap))
	}
	if store.Uploading() {
		t.Error("uploading не сброшен")
	}
}

// TestEvict проверяет удаление из кэша без обращения к backend.
func TestEvict(t *testing.T) {
	store, backend := newSeededStore(t)
	_, _ = store.FetchForEntity(context.Background(), keyE, "")

	if n := store.Evict("A"); n != 1 {
		t.Errorf("Evict вернул %d, ожидался 1", n)
	}
	if _, ok := store.Find("A"); ok {
		t.Error("A должна быть убрана из кэша")
	}
	if len(backend.deleted) != 0 {
		t.Error("Evict не должен обращаться к backend")
	}
}

func TestOwner(t *testing.T) {
	store, _ := newSeededStore(t)
	if _, ok := store.Owner("A"); ok {
		t.Error("до загрузки вложение не должно находиться")
	}

	_, _ = store.FetchForEntity(context.Background(), keyE, "")
	key, ok := store.Owner("B")
	if !ok || key != keyE {
		t.Errorf("Owner(B) = %v %v, ожидался %v", key, ok, keyE)
	}
}
