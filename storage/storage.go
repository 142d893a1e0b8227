// Package storage keeps uploaded donation photos.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidName = errors.New("invalid object name")
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Storage names uploads and sniffs their content type before handing them
// to a backend.
type Storage struct {
	backend ObjectStorage
	now     func() time.Time

	mu   sync.Mutex
	last int64
}

func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend, now: time.Now}
}

// EnsureBucket prepares the backend (creates the directory or bucket).
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Save stores r under "<timestamp>-<original name>" and returns that name.
// Timestamps are unique within the process so two uploads with the same
// original name never collide.
func (s *Storage) Save(ctx context.Context, originalName string, r io.Reader, size int64) (string, error) {
	name := fmt.Sprintf("%d-%s", s.stamp(), cleanName(originalName))

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	contentType := mimetype.Detect(head).String()

	body := io.MultiReader(bytes.NewReader(head), r)
	if err := s.backend.Put(ctx, name, body, size, contentType); err != nil {
		return "", fmt.Errorf("store upload %s: %w", name, err)
	}
	return name, nil
}

// Open returns the stored object and its detected content type.
func (s *Storage) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return nil, "", ErrInvalidName
	}
	rc, err := s.backend.Get(ctx, name)
	if err != nil {
		return nil, "", err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		_ = rc.Close()
		return nil, "", err
	}
	head = head[:n]
	return &readCloser{Reader: io.MultiReader(bytes.NewReader(head), rc), Closer: rc}, mimetype.Detect(head).String(), nil
}

func (s *Storage) Delete(ctx context.Context, name string) error {
	return s.backend.Delete(ctx, name)
}

func (s *Storage) stamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UnixMilli()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	return ts
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return "upload"
	}
	return name
}

type readCloser struct {
	io.Reader
	io.Closer
}
