package azblob

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/repository"
)

// Storage is an Azure Blob Storage account, containers map to blob
// containers.
type Storage struct {
	client *azblob.Client
}

type StorageConfig struct {
	ConnectionString string
}

func New(c StorageConfig) (*Storage, error) {
	client, err := azblob.NewClientFromConnectionString(c.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azblob client: %w", err)
	}

	return &Storage{
		client: client,
	}, nil
}

func (s *Storage) CreateContainerIfNotExists(ctx context.Context, container string) error {
	if _, err := s.client.CreateContainer(ctx, container, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil
		}

		return fmt.Errorf("create container: %w", err)
	}

	return nil
}

func (s *Storage) Download(ctx context.Context, container, path string) (io.ReadCloser, error) {
	res, err := s.client.DownloadStream(ctx, container, path, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("download stream: %w: %w", entity.ErrNotFound, err)
		}

		return nil, fmt.Errorf("download stream: %w", err)
	}

	return res.Body, nil
}

func (s *Storage) Upload(ctx context.Context, object repository.ObjectReader) error {
	if _, err := s.client.UploadStream(ctx, object.Container, object.Path, object.Content, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &object.ContentType,
		},
	}); err != nil {
		return fmt.Errorf("upload stream: %w", err)
	}

	return nil
}

func (s *Storage) DeleteIfExists(ctx context.Context, container, path string) (bool, error) {
	if _, err := s.client.DeleteBlob(ctx, container, path, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("delete blob: %w", err)
	}

	return true, nil
}

func (s *Storage) URL(container, path string) string {
	return entity.ObjectURL(s.client.URL(), container, path)
}
