// upload.go — multipart-загрузка файлов в ERP backend.
// Тело формируется потоково через io.Pipe, файлы не буферизуются целиком.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// UploadParams — метаданные загрузки.
type UploadParams struct {
	// Category — категория для всех файлов пакета
	Category model.Category
	// Description — описание (опционально)
	Description string
}

// Upload загружает пакет файлов для сущности и возвращает созданные записи.
// POST /attachments/{entityType}/{entityId}, поле files.
func (c *Client) Upload(ctx context.Context, key model.EntityKey, files []model.LocalFile, params UploadParams) ([]model.Attachment, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	var created []model.Attachment
	if err := c.doMultipart(ctx, entityPath(key), "files", files, params, &created); err != nil {
		return nil, fmt.Errorf("загрузка вложений %s: %w", key, err)
	}
	return created, nil
}

// UploadSingle загружает один файл и возвращает созданную запись.
// POST /attachments/{entityType}/{entityId}/single, поле file.
func (c *Client) UploadSingle(ctx context.Context, key model.EntityKey, file model.LocalFile, params UploadParams) (*model.Attachment, error) {
	var created model.Attachment
	if err := c.doMultipart(ctx, entityPath(key)+"/single", "file", []model.LocalFile{file}, params, &created); err != nil {
		return nil, fmt.Errorf("загрузка вложения %s: %w", key, err)
	}
	return &created, nil
}

// doMultipart отправляет multipart/form-data запрос.
func (c *Client) doMultipart(
	ctx context.Context,
	path, field string,
	files []model.LocalFile,
	params UploadParams,
	out any,
) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, field, files, params))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), pr)
	if err != nil {
		_ = pr.Close()
		return fmt.Errorf("создание запроса upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	err = c.do(req, out)
	// Разблокируем writer, если backend ответил до окончания тела
	_ = pr.Close()
	return err
}

// writeMultipart пишет поля и файлы в multipart writer.
func writeMultipart(mw *multipart.Writer, field string, files []model.LocalFile, params UploadParams) error {
	category := params.Category
	if category == "" {
		category = model.CategoryOther
	}
	if err := mw.WriteField("category", string(category)); err != nil {
		return err
	}
	if params.Description != "" {
		if err := mw.WriteField("description", params.Description); err != nil {
			return err
		}
	}

	for _, f := range files {
		if err := writeFilePart(mw, field, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

// LocalFileError — ошибка чтения локального файла при формировании тела upload.
// Отличается от отказа backend: запрос не был отправлен целиком по нашей вине.
type LocalFileError struct {
	Name string
	Err  error
}

func (e *LocalFileError) Error() string {
	return fmt.Sprintf("файл %s недоступен для чтения: %v", e.Name, e.Err)
}

func (e *LocalFileError) Unwrap() error { return e.Err }

// writeFilePart пишет один файл с его MIME-типом.
func writeFilePart(mw *multipart.Writer, field string, f model.LocalFile) error {
	if f.Open == nil {
		return &LocalFileError{Name: f.Name, Err: errors.New("содержимое не задано")}
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(f.Name)))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return &LocalFileError{Name: f.Name, Err: err}
	}
	defer rc.Close()

	if _, err := io.Copy(part, &fileReader{name: f.Name, r: rc}); err != nil {
		return err
	}
	return nil
}

// fileReader помечает ошибки чтения файла, отличая их от ошибок записи в pipe.
type fileReader struct {
	name string
	r    io.Reader
}

func (fr *fileReader) Read(p []byte) (int, error) {
	n, err := fr.r.Read(p)
	if err != nil && err != io.EOF {
		err = &LocalFileError{Name: fr.name, Err: err}
	}
	return n, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
