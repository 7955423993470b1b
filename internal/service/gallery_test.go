package service

import (
	"context"
	"errors"
	"testing"

	"github.com/diazhh/erp-ace-sub003/internal/domain/lightbox"
	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// newLoadedGallery создаёт галерею сущности E с загруженным списком.
func newLoadedGallery(t *testing.T) (*Gallery, *AttachmentStore, *fakeBackend) {
	t.Helper()
	store, backend := newSeededStore(t)
	if _, err := store.FetchForEntity(context.Background(), keyE, ""); err != nil {
		t.Fatal(err)
	}
	remove := func(ctx context.Context, id string) error { return store.DeleteByID(ctx, id, false) }
	return NewGallery(store, keyE, remove, nil, testLogger()), store, backend
}

// TestGalleryView проверяет модель отображения и группировку.
func TestGalleryView(t *testing.T) {
	g, _, _ := newLoadedGallery(t)

	view := g.View(ParseLayout("LIST"))
	if view.Layout != LayoutList {
		t.Errorf("Layout = %q, ожидался list", view.Layout)
	}
	if view.Total != 3 || len(view.Items) != 3 {
		t.Fatalf("Total = %d, ожидалось 3", view.Total)
	}
	if len(view.Images) != 2 || view.Images[0].ID != "A" || view.Images[1].ID != "C" {
		t.Errorf("Images = %+v, ожидалось [A C]", view.Images)
	}
	if idx := view.Items[2].ImageIndex; idx == nil || *idx != 1 {
		t.Errorf("ImageIndex для C = %v, ожидался 1", idx)
	}
	if view.Items[1].ImageIndex != nil {
		t.Error("у PDF не должно быть ImageIndex")
	}

	if len(view.Groups) != 2 || view.Groups[0].Kind != model.KindImage || view.Groups[1].Kind != model.KindPDF {
		t.Errorf("неожиданные группы: %+v", view.Groups)
	}

	b := view.Items[1]
	if b.CategoryLabel != model.CategoryDocument.Label() || b.Icon != model.KindPDF.Icon() || b.Size != "4.0 KB" {
		t.Errorf("неожиданное представление B: %+v", b)
	}
	if ParseLayout("mosaic") != LayoutGrid {
		t.Error("неизвестный вид должен давать grid")
	}
}

// TestSelect_ImageOpensLightbox проверяет сценарий: [A(image), B(pdf), C(image)],
// выбор C даёт index=1, next переходит к A (index=0).
func TestSelect_ImageOpensLightbox(t *testing.T) {
	g, _, _ := newLoadedGallery(t)

	sel, err := g.Select("C")
	if err != nil {
		t.Fatalf("Select ошибка: %v", err)
	}
	if sel.Action != ActionLightbox || sel.Lightbox == nil {
		t.Fatalf("ожидалось действие lightbox, получено %+v", sel)
	}
	lb := sel.Lightbox
	if !lb.Open || lb.Index != 1 || lb.Zoom != lightbox.DefaultZoom || lb.Total != 2 {
		t.Errorf("состояние после открытия: %+v", lb.State)
	}
	if lb.PrevID != "A" || lb.NextID != "A" {
		t.Errorf("соседи C: prev=%s next=%s, ожидалось A/A", lb.PrevID, lb.NextID)
	}

	if _, err := g.ZoomIn(); err != nil {
		t.Fatal(err)
	}
	next, err := g.Next()
	if err != nil {
		t.Fatal(err)
	}
	if next.Index != 0 || next.Current == nil || next.Current.ID != "A" {
		t.Errorf("next из C: index=%d current=%v, ожидалось 0/A", next.Index, next.Current)
	}
	if next.Zoom != lightbox.DefaultZoom {
		t.Errorf("zoom после навигации %.2f, ожидалось 1.0", next.Zoom)
	}

	prev, _ := g.Prev()
	if prev.Index != 1 {
		t.Errorf("prev из 0: index=%d, ожидался 1", prev.Index)
	}

	closed := g.CloseLightbox()
	if closed.Open || closed.Zoom != lightbox.DefaultZoom {
		t.Errorf("после close: %+v", closed.State)
	}
	if _, err := g.Next(); err == nil {
		t.Error("next в closed должен вернуть ошибку")
	}
}

// TestSelect_NonImageDownloads проверяет, что не-изображение не открывает lightbox.
func TestSelect_NonImageDownloads(t *testing.T) {
	g, _, _ := newLoadedGallery(t)

	sel, err := g.Select("B")
	if err != nil {
		t.Fatal(err)
	}
	if sel.Action != ActionDownload || sel.DownloadURL != "/uploads/b.pdf" || sel.Lightbox != nil {
		t.Errorf("ожидалось действие download: %+v", sel)
	}
	if g.Lightbox().Open {
		t.Error("lightbox не должен открываться для PDF")
	}

	if _, err := g.Select("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
}

// TestZoomClamped проверяет ограничение масштаба.
func TestZoomClamped(t *testing.T) {
	g, _, _ := newLoadedGallery(t)
	_, _ = g.Select("A")

	var v LightboxView
	for i := 0; i < 20; i++ {
		v, _ = g.ZoomIn()
	}
	if v.Zoom != lightbox.MaxZoom {
		t.Errorf("zoom = %.2f, ожидалось %.2f", v.Zoom, lightbox.MaxZoom)
	}
	for i := 0; i < 20; i++ {
		v, _ = g.ZoomOut()
	}
	if v.Zoom != lightbox.MinZoom {
		t.Errorf("zoom = %.2f, ожидалось %.2f", v.Zoom, lightbox.MinZoom)
	}
}

// TestDeleteFlow проверяет сценарий: удаление B после подтверждения с именем файла
// убирает B из списка и не затрагивает A и C.
func TestDeleteFlow(t *testing.T) {
	g, _, backend := newLoadedGallery(t)
	ctx := context.Background()

	if err := g.ConfirmDelete(ctx, nil); !errors.Is(err, ErrNoPendingDeletion) {
		t.Errorf("удаление без подтверждения: ожидалась ErrNoPendingDeletion, получено %v", err)
	}
	if len(backend.deleted) != 0 {
		t.Fatal("запрос удаления отправлен без подтверждения")
	}

	conf, err := g.RequestDelete("B")
	if err != nil {
		t.Fatal(err)
	}
	if conf.FileName != "factura.pdf" {
		t.Errorf("подтверждение называет %q, ожидалось factura.pdf", conf.FileName)
	}
	if len(backend.deleted) != 0 {
		t.Fatal("RequestDelete не должен удалять")
	}

	if err := g.ConfirmDelete(ctx, nil); err != nil {
		t.Fatalf("ConfirmDelete ошибка: %v", err)
	}
	if _, pending := g.PendingDeletion(); pending {
		t.Error("подтверждение должно быть сброшено")
	}

	view := g.View(LayoutGrid)
	got := make([]string, 0, len(view.Items))
	for _, it := range view.Items {
		got = append(got, it.ID)
	}
	if len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Errorf("после удаления B: %v, ожидалось [A C]", got)
	}
}

// TestDeleteFlow_FailureClearsConfirmation проверяет сброс подтверждения при ошибке.
func TestDeleteFlow_FailureClearsConfirmation(t *testing.T) {
	g, _, backend := newLoadedGallery(t)
	ctx := context.Background()
	backend.deleteErr = errors.New("timeout")

	_, _ = g.RequestDelete("A")
	if err := g.ConfirmDelete(ctx, nil); err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if _, pending := g.PendingDeletion(); pending {
		t.Error("подтверждение должно быть сброшено и при ошибке")
	}
	if len(g.View(LayoutGrid).Items) != 3 {
		t.Error("при ошибке список не должен меняться")
	}
}

// TestDeleteFlow_OverrideAndCancel проверяет override и отмену.
func TestDeleteFlow_OverrideAndCancel(t *testing.T) {
	g, _, backend := newLoadedGallery(t)
	ctx := context.Background()

	_, _ = g.RequestDelete("C")
	g.CancelDelete()
	if err := g.ConfirmDelete(ctx, nil); !errors.Is(err, ErrNoPendingDeletion) {
		t.Errorf("после отмены ожидалась ErrNoPendingDeletion, получено %v", err)
	}

	var overridden string
	_, _ = g.RequestDelete("C")
	err := g.ConfirmDelete(ctx, func(_ context.Context, id string) error {
		overridden = id
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if overridden != "C" {
		t.Errorf("override вызван с %q, ожидалось C", overridden)
	}
	if len(backend.deleted) != 0 {
		t.Error("при override операция по умолчанию не вызывается")
	}
}

// TestDeleteFlow_ClosesLightbox проверяет закрытие lightbox при удалении показанного изображения.
func TestDeleteFlow_ClosesLightbox(t *testing.T) {
	g, _, _ := newLoadedGallery(t)
	ctx := context.Background()

	_, _ = g.Select("A")
	_, _ = g.RequestDelete("A")
	if err := g.ConfirmDelete(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if g.Lightbox().Open {
		t.Error("lightbox должен закрыться после удаления изображения")
	}
}
