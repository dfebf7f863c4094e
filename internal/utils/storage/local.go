package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type localStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage writes media below root; the HTTP layer serves root at baseURL.
func NewLocalStorage(root, baseURL string) (Storage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("media root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &localStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *localStorage) filePath(objectKey string) (string, error) {
	clean := path.Clean("/" + objectKey)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *localStorage) Upload(_ context.Context, objectKey string, body []byte, _ string) error {
	target, err := s.filePath(objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	return os.WriteFile(target, body, 0o644)
}

func (s *localStorage) Delete(_ context.Context, objectKey string) error {
	target, err := s.filePath(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *localStorage) GetPublicLink(objectKey string) string {
	if objectKey == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(objectKey, "/")
}
