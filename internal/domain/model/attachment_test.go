package model

import "testing"

// TestParseCategory проверяет нормализацию и fallback на OTHER.
func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"INVOICE", CategoryInvoice},
		{"invoice", CategoryInvoice},
		{"  id_document ", CategoryIDDocument},
		{"", CategoryOther},
		{"UNKNOWN", CategoryOther},
	}

	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}

// TestCategory_LabelFallback проверяет, что неизвестная категория отображается как OTHER.
func TestCategory_LabelFallback(t *testing.T) {
	unknown := Category("LEGACY_VALUE")
	if unknown.Valid() {
		t.Fatal("LEGACY_VALUE не должна считаться допустимой категорией")
	}
	if unknown.Label() != CategoryOther.Label() {
		t.Errorf("Label() = %q, ожидался %q", unknown.Label(), CategoryOther.Label())
	}
	if unknown.Color() != CategoryOther.Color() {
		t.Errorf("Color() = %q, ожидался %q", unknown.Color(), CategoryOther.Color())
	}

	for _, c := range AllCategories() {
		if c.Label() == "" || c.Color() == "" {
			t.Errorf("категория %s без подписи или цвета", c)
		}
	}
	if len(AllCategories()) != 16 {
		t.Errorf("ожидалось 16 категорий, получено %d", len(AllCategories()))
	}
}

// TestDetectKind проверяет определение медиа-типа по MIME и расширению.
func TestDetectKind(t *testing.T) {
	tests := []struct {
		mime string
		name string
		want MediaKind
	}{
		{"image/png", "a.png", KindImage},
		{"IMAGE/JPEG", "a.jpg", KindImage},
		{"application/pdf", "a.pdf", KindPDF},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "a.xlsx", KindSpreadsheet},
		{"application/vnd.ms-excel", "a.xls", KindSpreadsheet},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "a.docx", KindDocument},
		{"application/msword", "a.doc", KindDocument},
		{"application/octet-stream", "report.pdf", KindPDF},
		{"", "sheet.csv", KindSpreadsheet},
		{"application/zip", "a.zip", KindOther},
	}

	for _, tt := range tests {
		if got := DetectKind(tt.mime, tt.name); got != tt.want {
			t.Errorf("DetectKind(%q, %q) = %q, ожидалось %q", tt.mime, tt.name, got, tt.want)
		}
	}
}

// TestFormatSize проверяет форматирование размеров.
func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{-1, "0 B"},
		{0, "0 B"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{10 * 1024 * 1024, "10.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.size); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, ожидалось %q", tt.size, got, tt.want)
		}
	}
}

// TestAttachment_DisplaySize проверяет приоритет серверного формата.
func TestAttachment_DisplaySize(t *testing.T) {
	a := Attachment{FileSize: 2048}
	if a.DisplaySize() != "2.0 KB" {
		t.Errorf("DisplaySize() = %q, ожидалось 2.0 KB", a.DisplaySize())
	}
	a.FileSizeFormatted = "2 KB"
	if a.DisplaySize() != "2 KB" {
		t.Errorf("DisplaySize() = %q, ожидалось серверное значение", a.DisplaySize())
	}
}

// TestUpdateRequest_Apply проверяет частичное обновление.
func TestUpdateRequest_Apply(t *testing.T) {
	orig := Attachment{ID: "a", Category: CategoryOther, Description: "old"}

	cat := Category("invoice")
	updated := UpdateRequest{Category: &cat}.Apply(orig)
	if updated.Category != CategoryInvoice {
		t.Errorf("Category = %q, ожидалось INVOICE", updated.Category)
	}
	if updated.Description != "old" {
		t.Errorf("Description не должен меняться, получено %q", updated.Description)
	}
	if orig.Category != CategoryOther {
		t.Error("Apply не должен менять исходную запись")
	}
}

// TestNewEntityKey проверяет обязательность частей ключа.
func TestNewEntityKey(t *testing.T) {
	if _, err := NewEntityKey("", "1"); err == nil {
		t.Error("ожидалась ошибка для пустого entityType")
	}
	k, err := NewEntityKey(" tank ", "42")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if k.String() != "tank/42" {
		t.Errorf("String() = %q, ожидалось tank/42", k.String())
	}
}
