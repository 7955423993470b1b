// category.go — категории вложений и медиа-типы для отображения.
package model

import (
	"path/filepath"
	"strings"
)

// Category — фиксированная бизнес-категория вложения.
type Category string

const (
	CategoryReceipt     Category = "RECEIPT"
	CategoryInvoice     Category = "INVOICE"
	CategoryPhoto       Category = "PHOTO"
	CategoryBefore      Category = "BEFORE"
	CategoryAfter       Category = "AFTER"
	CategoryProgress    Category = "PROGRESS"
	CategoryEvidence    Category = "EVIDENCE"
	CategoryDocument    Category = "DOCUMENT"
	CategoryContract    Category = "CONTRACT"
	CategoryReport      Category = "REPORT"
	CategoryProfile     Category = "PROFILE"
	CategoryIDDocument  Category = "ID_DOCUMENT"
	CategoryCertificate Category = "CERTIFICATE"
	CategoryWarranty    Category = "WARRANTY"
	CategoryManual      Category = "MANUAL"
	CategoryOther       Category = "OTHER"
)

// categoryInfo — подпись и цвет категории в галерее.
type categoryInfo struct {
	label string
	color string
}

// categories — справочник категорий в порядке отображения.
var categories = []Category{
	CategoryReceipt, CategoryInvoice, CategoryPhoto, CategoryBefore, CategoryAfter,
	CategoryProgress, CategoryEvidence, CategoryDocument, CategoryContract, CategoryReport,
	CategoryProfile, CategoryIDDocument, CategoryCertificate, CategoryWarranty, CategoryManual,
	CategoryOther,
}

var categoryInfos = map[Category]categoryInfo{
	CategoryReceipt:     {label: "Recibo", color: "success"},
	CategoryInvoice:     {label: "Factura", color: "primary"},
	CategoryPhoto:       {label: "Foto", color: "info"},
	CategoryBefore:      {label: "Antes", color: "warning"},
	CategoryAfter:       {label: "Después", color: "success"},
	CategoryProgress:    {label: "Progreso", color: "info"},
	CategoryEvidence:    {label: "Evidencia", color: "secondary"},
	CategoryDocument:    {label: "Documento", color: "default"},
	CategoryContract:    {label: "Contrato", color: "primary"},
	CategoryReport:      {label: "Reporte", color: "secondary"},
	CategoryProfile:     {label: "Perfil", color: "info"},
	CategoryIDDocument:  {label: "Documento ID", color: "warning"},
	CategoryCertificate: {label: "Certificado", color: "success"},
	CategoryWarranty:    {label: "Garantía", color: "secondary"},
	CategoryManual:      {label: "Manual", color: "default"},
	CategoryOther:       {label: "Otro", color: "default"},
}

// AllCategories возвращает копию списка категорий.
func AllCategories() []Category {
	result := make([]Category, len(categories))
	copy(result, categories)
	return result
}

// ParseCategory нормализует строку в Category.
// Пустые и неизвестные значения дают CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Valid сообщает, входит ли значение в перечисление.
func (c Category) Valid() bool {
	_, ok := categoryInfos[c]
	return ok
}

// Label возвращает подпись категории; для неизвестных — подпись OTHER.
func (c Category) Label() string {
	if info, ok := categoryInfos[c]; ok {
		return info.label
	}
	return categoryInfos[CategoryOther].label
}

// Color возвращает цвет метки категории; для неизвестных — цвет OTHER.
func (c Category) Color() string {
	if info, ok := categoryInfos[c]; ok {
		return info.color
	}
	return categoryInfos[CategoryOther].color
}

// MediaKind — группа медиа-типов для иконок и группировки в галерее.
type MediaKind string

const (
	KindImage       MediaKind = "image"
	KindPDF         MediaKind = "pdf"
	KindDocument    MediaKind = "document"
	KindSpreadsheet MediaKind = "spreadsheet"
	KindOther       MediaKind = "other"
)

// MediaKinds — порядок групп в галерее.
var MediaKinds = []MediaKind{KindImage, KindPDF, KindDocument, KindSpreadsheet, KindOther}

// Icon возвращает имя иконки для медиа-типа.
func (k MediaKind) Icon() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "picture_as_pdf"
	case KindDocument:
		return "description"
	case KindSpreadsheet:
		return "table_chart"
	default:
		return "insert_drive_file"
	}
}

// IsImageMime сообщает, является ли MIME-тип изображением (префикс image/).
func IsImageMime(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// DetectKind определяет медиа-тип по MIME, при неизвестном MIME — по расширению.
func DetectKind(mimeType, fileName string) MediaKind {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case mt == "application/pdf":
		return KindPDF
	case strings.Contains(mt, "spreadsheet"), strings.Contains(mt, "excel"), mt == "text/csv":
		return KindSpreadsheet
	case strings.Contains(mt, "word"), strings.Contains(mt, "document"), mt == "text/plain":
		return KindDocument
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return KindPDF
	case ".doc", ".docx", ".odt", ".txt", ".rtf":
		return KindDocument
	case ".xls", ".xlsx", ".ods", ".csv":
		return KindSpreadsheet
	}
	return KindOther
}
