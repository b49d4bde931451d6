package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"jobboard/internal/apperr"
)

// Disk stores documents as files named by a generated uuid, with a sidecar
// metadata file carrying the content type.
type Disk struct {
	dir string
}

type diskMeta struct {
	ContentType string `json:"content_type"`
}

// NewDisk creates the upload directory if needed.
func NewDisk(dir string) (*Disk, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: abs}, nil
}

// Put writes the document and its metadata; the ref is a fresh uuid.
func (d *Disk) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	ref := uuid.NewString()
	path := filepath.Join(d.dir, ref)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	meta, err := json.Marshal(diskMeta{ContentType: contentType})
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path+".meta", meta, 0o640); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return ref, nil
}

// Open streams a stored document. Refs that are not uuids are rejected
// before touching the filesystem, which also bars path traversal.
func (d *Disk) Open(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, "", apperr.ErrNotFound
	}
	path := filepath.Join(d.dir, ref)

	contentType := "application/octet-stream"
	if raw, err := os.ReadFile(path + ".meta"); err == nil {
		var meta diskMeta
		if json.Unmarshal(raw, &meta) == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", apperr.ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return f, contentType, nil
}

// Remove deletes a document and its metadata.
func (d *Disk) Remove(ctx context.Context, ref string) error {
	if _, err := uuid.Parse(ref); err != nil {
		return apperr.ErrNotFound
	}
	path := filepath.Join(d.dir, ref)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	_ = os.Remove(path + ".meta")
	return nil
}
