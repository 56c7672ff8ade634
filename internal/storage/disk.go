package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// Disk stores blobs on the local filesystem under a directory served at
// baseURL. Each blob gets a random download token, kept in a sidecar file,
// that must be presented in the public URL (mirrors hosted-bucket semantics).
type Disk struct {
	dir     string
	baseURL string
}

// NewDisk constructs a disk store rooted at dir.
func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *Disk) blobPath(key string) string  { return filepath.Join(d.dir, filepath.Base(key)) }
func (d *Disk) tokenPath(key string) string { return d.blobPath(key) + ".token" }

// Upload copies the local file into the store, writes a fresh download token
// and removes the source file.
func (d *Disk) Upload(_ context.Context, localPath, key, contentType string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(d.blobPath(key))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	tok, err := uuid.NewV4()
	if err != nil {
		return err
	}
	meta := fmt.Sprintf("%s\n%s\n", tok, contentType)
	if err := os.WriteFile(d.tokenPath(key), []byte(meta), 0o644); err != nil {
		return err
	}
	return os.Remove(localPath)
}

// Delete removes the blob and its token sidecar.
func (d *Disk) Delete(_ context.Context, key string) error {
	if err := os.Remove(d.blobPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.Remove(d.tokenPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PublicURL returns the tokenized URL for a stored blob. A missing token
// sidecar means the upload has not completed yet.
func (d *Disk) PublicURL(_ context.Context, key string) (string, error) {
	raw, err := os.ReadFile(d.tokenPath(key))
	if err != nil {
		return "", fmt.Errorf("blob %s not available: %w", key, err)
	}
	tok, _, _ := strings.Cut(string(raw), "\n")
	return fmt.Sprintf("%s/%s?token=%s", d.baseURL, filepath.Base(key), tok), nil
}
