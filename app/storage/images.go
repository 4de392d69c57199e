package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MediaPath = "/media"

// ImageStore persists generated images and returns their public URL.
type ImageStore interface {
	SaveImage(ctx context.Context, data []byte) (string, error)
}

// LocalImageStore writes images to a directory served under MediaPath.
type LocalImageStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewLocalImageStore(dir, baseURL string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalImageStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}, nil
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

// SaveImage stores a PNG under a unique {unix}-{uuid}.png name.
func (s *LocalImageStore) SaveImage(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}

	name := ObjectName(s.now())
	path := filepath.Join(s.dir, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	slog.Debug("Image stored", "file", name, "bytes", len(data))

	return s.baseURL + MediaPath + "/" + name, nil
}

func ObjectName(t time.Time) string {
	return fmt.Sprintf("%d-%s.png", t.Unix(), uuid.NewString())
}
