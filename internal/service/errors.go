// Пакет service — бизнес-логика Attachment Module: кэш вложений, координатор
// загрузки, галерея, секция сущности, справочники и proxy download.
package service

import (
	"errors"

	"github.com/diazhh/erp-ace-sub003/internal/apiclient"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — вложение не найдено в кэше.
	ErrNotFound = errors.New("вложение не найдено")

	// ErrEmptyBatch — попытка загрузить пустой пакет файлов.
	ErrEmptyBatch = apiclient.ErrEmptyBatch

	// ErrSingleFileRequired — одиночная загрузка с пакетом не из одного файла.
	ErrSingleFileRequired = errors.New("одиночная загрузка требует ровно один файл")

	// ErrNoPendingDeletion — подтверждение удаления без предварительного запроса.
	ErrNoPendingDeletion = errors.New("нет удаления, ожидающего подтверждения")

	// ErrFileDeleted — файл отсутствует на backend (lazy cleanup).
	ErrFileDeleted = errors.New("файл удалён на backend")

	// ErrNoThumbnail — у вложения нет уменьшенной копии.
	ErrNoThumbnail = errors.New("у вложения нет уменьшенной копии")
)
