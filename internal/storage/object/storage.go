// Package object implements the job store on top of S3-compatible object
// storage via MinIO.
package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage provides an S3-compatible storage backend using MinIO. Input
// images, background clips and rendered outputs all live here; the
// existence of an output object is the system's only completion record.
type Storage struct {
	client *minio.Client
}

// NewStorage creates a new Storage connected to the specified endpoint.
// Buckets that do not exist yet are created automatically.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey string, useSSL bool, buckets ...string) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	for _, bucket := range buckets {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check if bucket %s exists: %w", bucket, err)
		}

		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
	}

	return &Storage{client: client}, nil
}

// Exists reports whether the object is present. A missing object is not
// an error; any other stat failure is.
func (s *Storage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}

		return false, fmt.Errorf("failed to stat object %s/%s: %w", bucket, key, err)
	}

	return true, nil
}

// PresignPut returns a time-limited URL granting a single PUT to the
// given key. The credential is write-only and scoped to that key; nothing
// enforces that the client actually uses it.
func (s *Storage) PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign put for %s/%s: %w", bucket, key, err)
	}

	return u.String(), nil
}

// PresignGet returns a time-limited download URL for the given key.
func (s *Storage) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign get for %s/%s: %w", bucket, key, err)
	}

	return u.String(), nil
}

// Download fetches the object into a local file.
func (s *Storage) Download(ctx context.Context, bucket, key, path string) error {
	if err := s.client.FGetObject(ctx, bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download %s/%s: %w", bucket, key, err)
	}

	return nil
}

// Upload stores a local file under the given key.
func (s *Storage) Upload(ctx context.Context, bucket, key, path, contentType string) error {
	_, err := s.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}

	return nil
}

// GetBytes reads a small object fully into memory.
func (s *Storage) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}

	return data, nil
}

// PutBytes stores a small in-memory payload under the given key.
func (s *Storage) PutBytes(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", bucket, key, err)
	}

	return nil
}

// Copy performs a server-side copy within one bucket. Used to publish a
// finished output atomically: the final key either holds a complete
// object or nothing.
func (s *Storage) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: bucket, Object: srcKey},
	)
	if err != nil {
		return fmt.Errorf("failed to copy %s/%s to %s: %w", bucket, srcKey, dstKey, err)
	}

	return nil
}

// Remove deletes the object.
func (s *Storage) Remove(ctx context.Context, bucket, key string) error {
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}
