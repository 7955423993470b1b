// localfile.go — локальный файл, выбранный пользователем для загрузки.
package model

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// LocalFile — файл, ещё не отправленный на сервер.
// Open вызывается при каждом чтении содержимого (превью, отправка).
type LocalFile struct {
	// Name — имя файла, как его выбрал пользователь
	Name string
	// Size — размер в байтах
	Size int64
	// ContentType — MIME-тип, заявленный источником (может быть пустым)
	ContentType string
	// Open открывает содержимое файла. Вызывающий код закрывает reader.
	Open func() (io.ReadCloser, error)
}

// FileFromPath создаёт LocalFile из файла на диске.
func FileFromPath(path string) (LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LocalFile{}, fmt.Errorf("%s — директория", path)
	}
	return LocalFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path) //nolint:gosec // путь выбран пользователем
		},
	}, nil
}

// FileFromHeader создаёт LocalFile из части multipart-формы.
func FileFromHeader(fh *multipart.FileHeader) LocalFile {
	return LocalFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FileFromBytes создаёт LocalFile из содержимого в памяти.
func FileFromBytes(name, contentType string, data []byte) LocalFile {
	return LocalFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
