// Package imagestore keeps garment images on the local filesystem. Images
// are addressed by opaque storage references (uuid-based file names)
// relative to a root directory.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidRef reports a reference that is empty or escapes the root.
var ErrInvalidRef = errors.New("imagestore: invalid reference")

// FS stores images under a root directory.
type FS struct {
	root string
}

// NewFS creates the root directory if needed.
func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create root: %w", err)
	}
	return &FS{root: root}, nil
}

// Root returns the root directory.
func (s *FS) Root() string { return s.root }

// Put copies r into a new image file and returns its reference. ext is the
// file extension (".jpg"); it is normalized to lower case.
func (s *FS) Put(ctx context.Context, r io.Reader, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("imagestore: invalid extension %q", ext)
	}
	ref := uuid.NewString() + ext

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("imagestore: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("imagestore: write %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("imagestore: close %s: %w", ref, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.root, ref)); err != nil {
		return "", fmt.Errorf("imagestore: commit %s: %w", ref, err)
	}
	return ref, nil
}

// ReadImage returns the bytes stored under ref.
func (s *FS) ReadImage(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imagestore: read %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes the image stored under ref. Missing images are not an error.
func (s *FS) Delete(ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("imagestore: delete %s: %w", ref, err)
	}
	return nil
}

func (s *FS) path(ref string) (string, error) {
	if ref == "" || filepath.IsAbs(ref) || !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return filepath.Join(s.root, ref), nil
}
