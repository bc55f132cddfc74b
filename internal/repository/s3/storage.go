package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/tekig/thumbnail-sync/internal/entity"
	"github.com/tekig/thumbnail-sync/internal/repository"
)

type Storage struct {
	s        *session.Session
	endpoint string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	AccessSecret string
	Region       string
}

func New(c StorageConfig) (*Storage, error) {
	s, err := session.NewSession(
		aws.NewConfig().
			WithEndpoint(c.Endpoint).
			WithCredentials(credentials.NewStaticCredentials(c.AccessKey, c.AccessSecret, "")).
			WithRegion(c.Region).
			WithS3ForcePathStyle(true),
	)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}

	return &Storage{
		s:        s,
		endpoint: c.Endpoint,
	}, nil
}

func (s *Storage) CreateContainerIfNotExists(ctx context.Context, container string) error {
	if _, err := s3.New(s.s).CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: &container,
	}); err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			switch aerr.Code() {
			case s3.ErrCodeBucketAlreadyOwnedByYou, s3.ErrCodeBucketAlreadyExists:
				return nil
			}
		}

		return fmt.Errorf("create bucket: %w", err)
	}

	return nil
}

func (s *Storage) Download(ctx context.Context, container, path string) (io.ReadCloser, error) {
	output, err := s3.New(s.s).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &container,
		Key:    &path,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get object: %w: %w", entity.ErrNotFound, err)
		}

		return nil, fmt.Errorf("get object: %w", err)
	}

	return output.Body, nil
}

func (s *Storage) Upload(ctx context.Context, object repository.ObjectReader) error {
	_, err := s3manager.NewUploader(s.s).UploadWithContext(ctx, &s3manager.UploadInput{
		Body:        object.Content,
		Bucket:      &object.Container,
		ContentType: &object.ContentType,
		Key:         &object.Path,
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	return nil
}

// DeleteIfExists checks the key first, S3 does not report whether a delete
// removed anything.
func (s *Storage) DeleteIfExists(ctx context.Context, container, path string) (bool, error) {
	svc := s3.New(s.s)

	if _, err := svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &container,
		Key:    &path,
	}); err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("head object: %w", err)
	}

	if _, err := svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: &container,
		Key:    &path,
	}); err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}

	return true, nil
}

func (s *Storage) URL(container, path string) string {
	return entity.ObjectURL(s.endpoint, container, path)
}

func isNotFound(err error) bool {
	var rerr awserr.RequestFailure
	if errors.As(err, &rerr) && rerr.StatusCode() == http.StatusNotFound {
		return true
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}

	return false
}
