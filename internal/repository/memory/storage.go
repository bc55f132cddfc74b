package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/repository"
)

const baseURL = "memory://local"

type object struct {
	content     []byte
	contentType string
}

// Storage keeps objects in process memory.
type Storage struct {
	mu         sync.RWMutex
	containers map[string]map[string]object
}

func New() *Storage {
	return &Storage{
		containers: make(map[string]map[string]object),
	}
}

func (s *Storage) CreateContainerIfNotExists(ctx context.Context, container string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.containers[container]; !ok {
		s.containers[container] = make(map[string]object)
	}

	return nil
}

func (s *Storage) Download(ctx context.Context, container, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.containers[container][path]
	if !ok {
		return nil, fmt.Errorf("get object %s/%s: %w", container, path, entity.ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(o.content)), nil
}

func (s *Storage) Upload(ctx context.Context, o repository.ObjectReader) error {
	content, err := io.ReadAll(o.Content)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.containers[o.Container]
	if !ok {
		return fmt.Errorf("container %s: %w", o.Container, entity.ErrNotFound)
	}

	objects[o.Path] = object{
		content:     content,
		contentType: o.ContentType,
	}

	return nil
}

func (s *Storage) DeleteIfExists(ctx context.Context, container, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.containers[container]
	if !ok {
		return false, nil
	}
	if _, ok := objects[path]; !ok {
		return false, nil
	}
	delete(objects, path)

	return true, nil
}

func (s *Storage) URL(container, path string) string {
	return entity.ObjectURL(baseURL, container, path)
}

// Names lists the objects of a container. Names and ContentType are not
// part of repository.Storage, they let tests and local runs inspect what
// the service wrote.
func (s *Storage) Names(container string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.containers[container]))
	for name := range s.containers[container] {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// ContentType returns the stored content type of an object.
func (s *Storage) ContentType(container, path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.containers[container][path]

	return o.contentType, ok
}
