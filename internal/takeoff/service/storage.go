package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/render"
)

var ErrSourceNotFound = errors.New("source drawing not found")

// ============================================================
// File Storage
// ============================================================

// FileStorage раскладывает исходные чертежи по каталогам проекта и файла:
// <root>/<projectId>/<fileId>/document.pdf.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) ProjectDir(projectID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(projectID, 10))
}

func (s *FileStorage) FileDir(key models.DocumentKey) string {
	return filepath.Join(s.ProjectDir(key.ProjectID), strconv.FormatInt(key.FileID, 10))
}

func (s *FileStorage) PDFPath(key models.DocumentKey) string {
	return filepath.Join(s.FileDir(key), "document.pdf")
}

func (s *FileStorage) EnsureDir(key models.DocumentKey) error {
	if err := os.MkdirAll(s.FileDir(key), 0o755); err != nil {
		return fmt.Errorf("mkdir file dir: %w", err)
	}
	return nil
}

// SaveFile кладёт исходный PDF на место.
func (s *FileStorage) SaveFile(key models.DocumentKey, data []byte) error {
	if err := s.EnsureDir(key); err != nil {
		return err
	}
	return os.WriteFile(s.PDFPath(key), data, 0o644)
}

// Source открывает чертёж как источник страниц.
func (s *FileStorage) Source(key models.DocumentKey) (*render.PDFSource, error) {
	path := s.PDFPath(key)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, key)
		}
		return nil, err
	}
	src, err := render.OpenPDF(path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", key, err)
	}
	return src, nil
}

// PageInfo возвращает размеры страницы чертежа.
func (s *FileStorage) PageInfo(ctx context.Context, key models.DocumentKey, page int) (render.PageInfo, error) {
	src, err := s.Source(key)
	if err != nil {
		return render.PageInfo{}, err
	}
	return src.PageInfo(ctx, page)
}
