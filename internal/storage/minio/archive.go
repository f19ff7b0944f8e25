// Package minio stores exported settings files in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sakif/editorialchain/internal/repository"
)

// minioAPI is the subset of *minio.Client the archive needs; tests swap in a fake.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

var _ repository.SettingsArchive = (*Archive)(nil)

// Archive writes objects under "<uid>/<name>" in one bucket.
type Archive struct {
	api    minioAPI
	bucket string
}

// Dial connects to a MinIO (or S3) endpoint with static credentials.
func Dial(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

// NewArchive creates an Archive on a real client, creating the bucket if needed.
func NewArchive(ctx context.Context, client *minio.Client, bucket string) (*Archive, error) {
	return newArchiveWithAPI(ctx, client, bucket)
}

func newArchiveWithAPI(ctx context.Context, api minioAPI, bucket string) (*Archive, error) {
	a := &Archive{api: api, bucket: bucket}
	if err := a.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return a, nil
}

func (a *Archive) ensureBucketExists(ctx context.Context) error {
	exists, err := a.api.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.api.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Put uploads data as JSON and returns "<bucket>/<key>".
// Exporting again overwrites the previous file.
func (a *Archive) Put(ctx context.Context, uid, name string, data []byte) (string, error) {
	key := path.Join(uid, name)
	_, err := a.api.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return a.bucket + "/" + key, nil
}
