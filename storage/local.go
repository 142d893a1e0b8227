package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalDisk stores objects as files in a single directory.
type LocalDisk struct {
	dir string
}

func NewLocalDisk(dir string) *LocalDisk {
	return &LocalDisk{dir: dir}
}

func (l *LocalDisk) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, os.ModePerm)
}

func (l *LocalDisk) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dst, err := os.OpenFile(filepath.Join(l.dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return err
	}
	return dst.Close()
}

func (l *LocalDisk) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *LocalDisk) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(l.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
