package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/wafr-accelerator/internal/domain/analyses"
)

// objectPutter is the slice of *minio.Client the store needs.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

type Store struct {
	client     objectPutter
	bucketName string
	region     string
}

// New buat koneksi MinIO dan pastikan bucket default ada
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Bucket returns the default bucket documents are uploaded to.
func (s *Store) Bucket() string { return s.bucketName }

// Put implementasi ObjectStore. An empty bucket means the default bucket.
func (s *Store) Put(ctx context.Context, bucket, key string, content []byte, contentType string) (domain.DocumentRef, error) {
	if bucket == "" {
		bucket = s.bucketName
	}
	if contentType == "" {
		contentType = ContentType(key)
	}

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return domain.DocumentRef{Bucket: bucket, Key: key}, nil
}

// Check reports whether the default bucket is reachable.
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

// ContentType guesses a MIME type from the object key extension.
func ContentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".html":
		return "text/html"
	case ".txt", ".md":
		return "text/plain"
	}
	return "application/octet-stream"
}
