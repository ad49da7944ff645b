package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/flicky/brioso-market/internal/config"
)

// MinioStore uploads data URIs to a bucket and returns their public URL.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     *slog.Logger
}

func NewMinioStore(cfg config.MediaConfig, log *slog.Logger) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access key and secret key are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		log:     log,
	}, nil
}

func publicBaseURL(cfg config.MediaConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	s.log.Info("created bucket", "bucket", s.bucket)
	return nil
}

func (s *MinioStore) Save(ctx context.Context, folder, uri string) (string, error) {
	if !IsDataURI(uri) {
		return uri, nil
	}
	img, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	key := objectKey(folder, img)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{ContentType: img.MediaType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	s.log.Debug("uploaded image", "key", key, "size", len(img.Data))
	return s.baseURL + "/" + key, nil
}

func objectKey(folder string, img *DataURI) string {
	name := uuid.NewString() + img.Ext()
	if folder = strings.Trim(folder, "/"); folder == "" {
		return name
	}
	return folder + "/" + name
}
