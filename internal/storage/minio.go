package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arzan03/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const proofPrefix = "payment-proofs/"

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore keeps payment proofs in an S3-compatible bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinioStore(ctx context.Context, cfg MinioConfig, log logrus.FieldLogger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		log.WithError(err).Warn("failed to check bucket existence")
	} else if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			log.WithError(err).Warn("failed to create bucket")
		} else {
			log.WithField("bucket", cfg.Bucket).Info("created bucket")
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket),
	}, nil
}

func (s *MinioStore) Save(ctx context.Context, localPath, filename, contentType string) (models.StoredFile, error) {
	objectName := proofPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	info, err := s.client.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return models.StoredFile{}, errors.Wrap(err, "upload proof to object storage")
	}

	return models.StoredFile{
		URL:         s.baseURL + "/" + objectName,
		PublicID:    objectName,
		Filename:    filename,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

func (s *MinioStore) Remove(ctx context.Context, publicID string) error {
	if !strings.HasPrefix(publicID, proofPrefix) {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{})
}
