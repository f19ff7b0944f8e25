package minio

import (
	"context"
	"errors"
	"io"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinio implements minioAPI without a network.
type fakeMinio struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      string

	putErr  error
	putKey  string
	putBody []byte
	putSize int64
	putType string
}

func (f *fakeMinio) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeMinio) MakeBucket(_ context.Context, bucket string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = bucket
	return f.makeBucketErr
}

func (f *fakeMinio) PutObject(_ context.Context, _ string, key string, r io.Reader, size int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if f.putErr != nil {
		return minioLib.UploadInfo{}, f.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return minioLib.UploadInfo{}, err
	}
	f.putKey, f.putBody, f.putSize, f.putType = key, body, size, opts.ContentType
	return minioLib.UploadInfo{Key: key, Size: size}, nil
}

func TestNewArchive_BucketExists(t *testing.T) {
	api := &fakeMinio{bucketExists: true}
	a, err := newArchiveWithAPI(context.Background(), api, "exports")
	require.NoError(t, err)
	assert.Equal(t, "exports", a.bucket)
	assert.Empty(t, api.madeBucket)
}

func TestNewArchive_CreatesBucket(t *testing.T) {
	api := &fakeMinio{}
	_, err := newArchiveWithAPI(context.Background(), api, "exports")
	require.NoError(t, err)
	assert.Equal(t, "exports", api.madeBucket)
}

func TestNewArchive_Errors(t *testing.T) {
	_, err := newArchiveWithAPI(context.Background(), &fakeMinio{bucketExistsErr: errors.New("boom")}, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure bucket exists")

	_, err = newArchiveWithAPI(context.Background(), &fakeMinio{makeBucketErr: errors.New("denied")}, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create bucket")
}

func TestArchive_Put(t *testing.T) {
	api := &fakeMinio{bucketExists: true}
	a, err := newArchiveWithAPI(context.Background(), api, "exports")
	require.NoError(t, err)

	loc, err := a.Put(context.Background(), "google:ada", "editorialchain-settings.json", []byte(`{"fontSize":"large"}`))
	require.NoError(t, err)

	assert.Equal(t, "exports/google:ada/editorialchain-settings.json", loc)
	assert.Equal(t, "google:ada/editorialchain-settings.json", api.putKey)
	assert.Equal(t, `{"fontSize":"large"}`, string(api.putBody))
	assert.Equal(t, int64(20), api.putSize)
	assert.Equal(t, "application/json", api.putType)
}

func TestArchive_PutError(t *testing.T) {
	a := &Archive{api: &fakeMinio{putErr: errors.New("put-fail")}, bucket: "b"}

	_, err := a.Put(context.Background(), "u", "f.json", []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload object")
}
