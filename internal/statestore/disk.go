package statestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/2beens/shapepro/pkg"
)

// DiskBackend keeps every key in its own file under rootDir.
type DiskBackend struct {
	rootDir string
}

func NewDiskBackend(rootDir string) (*DiskBackend, error) {
	if err := pkg.EnsureDir(rootDir); err != nil {
		return nil, fmt.Errorf("ensure state dir [%s]: %w", rootDir, err)
	}
	return &DiskBackend{rootDir: rootDir}, nil
}

func (d *DiskBackend) Name() string {
	return "disk"
}

func (d *DiskBackend) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(d.rootDir, key+".json"), nil
}

func (d *DiskBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, false, err
	}

	blob, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read state file: %w", err)
	}
	return blob, true, nil
}

// Set writes to a temp file first and renames it over the old one, so a
// crash mid-write never leaves a truncated state behind.
func (d *DiskBackend) Set(_ context.Context, key string, blob []byte) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.rootDir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

func (d *DiskBackend) Delete(_ context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
