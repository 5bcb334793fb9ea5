package blob

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store materializes assets into an S3-compatible bucket.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("blob: s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("blob: s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("blob: s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: init s3 client: %w", err)
	}
	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("blob: store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Materialize(ctx context.Context, key, name string, data []byte) (Handle, error) {
	if s == nil {
		return Handle{}, fmt.Errorf("blob: store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Handle{}, fmt.Errorf("blob: key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Handle{}, fmt.Errorf("blob: ensure bucket: %w", err)
	}
	object := objectKey(key, name)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Handle{}, err
	}
	return Handle{Key: key, Location: "s3://" + s.bucketName + "/" + object}, nil
}

func (s *S3Store) Stat(ctx context.Context, h Handle) bool {
	if s == nil || s.client == nil || h.Location == "" {
		return false
	}
	if err := s.ensureBucket(ctx); err != nil {
		return false
	}
	object := strings.TrimPrefix(h.Location, "s3://"+s.bucketName+"/")
	_, err := s.client.StatObject(ctx, s.bucketName, object, minio.StatObjectOptions{})
	return err == nil
}

func objectKey(key, name string) string {
	return key + "/" + strings.TrimLeft(strings.TrimSpace(name), "/")
}
