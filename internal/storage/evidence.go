// Package storage хранит загруженные подтверждения выполнения задач
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"syncdeck/internal/logger"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var ErrTooLarge = errors.New("файл превышает допустимый размер")

// EvidenceStore пишет файлы в каталог на afero.Fs и отдаёт их по URL с префиксом urlPrefix
type EvidenceStore struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
	maxSize   int64
}

// NewEvidenceStore: maxSize <= 0 снимает ограничение размера
func NewEvidenceStore(fs afero.Fs, dir, urlPrefix string, maxSize int64) (*EvidenceStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога %s: %w", dir, err)
	}
	return &EvidenceStore{
		fs:        fs,
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxSize:   maxSize,
	}, nil
}

func (s *EvidenceStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("недопустимое имя файла %q", name)
	}
	full := path.Join(s.dir, name)

	f, err := s.fs.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("создание файла: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(f, src)
	closeErr := f.Close()

	if err == nil && s.maxSize > 0 && written > s.maxSize {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := s.fs.Remove(full); rmErr != nil {
			logger.Warn("Storage: Не удалось удалить недописанный файл", zap.String("file", full), zap.Error(rmErr))
		}
		return "", fmt.Errorf("запись файла: %w", err)
	}

	logger.Info("Storage: Файл сохранён", zap.String("file", full), zap.Int64("bytes", written))
	return s.urlPrefix + "/" + name, nil
}

// Handler отдаёт сохранённые файлы; листинг каталога закрыт
func (s *EvidenceStore) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(s.fs).Dir(s.dir))
	return http.StripPrefix(s.urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}
