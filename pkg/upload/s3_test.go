package upload_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/intake/pkg/upload"
)

// MockS3Client is a mock implementation of the S3Client interface
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func newS3Storage(t *testing.T, client upload.S3Client, cfg upload.S3Config, opts ...upload.S3Option) *upload.S3Storage {
	t.Helper()
	if cfg.Bucket == "" {
		cfg.Bucket = "test-bucket"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	storage, err := upload.NewS3Storage(context.Background(), cfg, append(opts, upload.WithS3Client(client))...)
	require.NoError(t, err)
	return storage
}

func TestNewS3Storage(t *testing.T) {
	t.Parallel()

	t.Run("missing bucket", func(t *testing.T) {
		t.Parallel()
		storage, err := upload.NewS3Storage(context.Background(), upload.S3Config{Region: "us-east-1"})
		assert.ErrorIs(t, err, upload.ErrInvalidConfig)
		assert.Nil(t, storage)
	})

	t.Run("missing region", func(t *testing.T) {
		t.Parallel()
		storage, err := upload.NewS3Storage(context.Background(), upload.S3Config{Bucket: "b"})
		assert.ErrorIs(t, err, upload.ErrInvalidConfig)
		assert.Nil(t, storage)
	})

	t.Run("default AWS URL", func(t *testing.T) {
		t.Parallel()
		storage := newS3Storage(t, new(MockS3Client), upload.S3Config{Bucket: "media", Region: "eu-west-1"})
		assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/a.png", storage.URL("a.png"))
	})

	t.Run("custom endpoint URL", func(t *testing.T) {
		t.Parallel()
		storage := newS3Storage(t, new(MockS3Client), upload.S3Config{
			Bucket:   "media",
			Endpoint: "http://localhost:9000/",
		})
		assert.Equal(t, "http://localhost:9000/media/a.png", storage.URL("a.png"))
	})

	t.Run("explicit base URL", func(t *testing.T) {
		t.Parallel()
		storage := newS3Storage(t, new(MockS3Client), upload.S3Config{BaseURL: "https://cdn.example.com"})
		assert.Equal(t, "https://cdn.example.com/a.png", storage.URL("/a.png"))
	})
}

func TestS3Storage_Upload(t *testing.T) {
	t.Parallel()

	t.Run("successful upload", func(t *testing.T) {
		t.Parallel()
		content := []byte("hello s3")
		sum := sha256.Sum256(content)
		wantSum := hex.EncodeToString(sum[:])

		client := new(MockS3Client)
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return *in.Bucket == "test-bucket" &&
				*in.Key == "uploads/Report.txt" &&
				*in.ContentType == "text/plain" &&
				*in.ContentLength == int64(len(content)) &&
				in.Metadata["sha256"] == wantSum &&
				in.Metadata["original-name"] == "Report.TXT"
		}), mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		storage := newS3Storage(t, client, upload.S3Config{
			Prefix:  "/uploads/",
			BaseURL: "https://cdn.example.com/",
		})
		f := newFile(t, "Report.TXT", content, storage)

		desc, err := storage.Upload(context.Background(), f, "")
		require.NoError(t, err)

		assert.Equal(t, "Report.txt", desc.Name)
		assert.Equal(t, "uploads/Report.txt", desc.Path)
		assert.Equal(t, "https://cdn.example.com/uploads/Report.txt", desc.URL)
		assert.Equal(t, wantSum, desc.Checksum)
		assert.Empty(t, desc.AbsolutePath)
		client.AssertExpectations(t)
		client.AssertNotCalled(t, "HeadObject", mock.Anything, mock.Anything, mock.Anything)

		assert.FileExists(t, f.Path(), "source is left for Records.Cleanup")
	})

	t.Run("reject existing key", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{}, nil)

		storage := newS3Storage(t, client, upload.S3Config{}, upload.WithS3RejectExisting())
		f := newFile(t, "a.txt", []byte("x"), storage)

		desc, err := storage.Upload(context.Background(), f, "")
		assert.ErrorIs(t, err, upload.ErrFileExists)
		assert.ErrorIs(t, err, upload.ErrStorage)
		assert.Nil(t, desc)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing key proceeds", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, &types.NotFound{})
		client.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		storage := newS3Storage(t, client, upload.S3Config{}, upload.WithS3RejectExisting())
		f := newFile(t, "a.txt", []byte("x"), storage)

		_, err := storage.Upload(context.Background(), f, "")
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("uuid namer", func(t *testing.T) {
		t.Parallel()
		client := new(MockS3Client)
		client.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil)

		storage := newS3Storage(t, client, upload.S3Config{}, upload.WithS3Namer(upload.UUIDNamer))
		f := newFile(t, "a.pdf", []byte("x"), storage)

		desc, err := storage.Upload(context.Background(), f, "")
		require.NoError(t, err)
		assert.Len(t, desc.Name, 36+len(".pdf"))
	})

	errorTests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, upload.ErrAccessDenied},
		{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, upload.ErrServiceUnavailable},
		{"request timeout", &smithy.GenericAPIError{Code: "RequestTimeout"}, upload.ErrRequestTimeout},
		{"no such bucket", &types.NoSuchBucket{}, upload.ErrBucketNotFound},
		{"deadline", context.DeadlineExceeded, upload.ErrOperationTimeout},
		{"canceled", context.Canceled, upload.ErrOperationCanceled},
		{"other", errors.New("boom"), upload.ErrStorage},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := new(MockS3Client)
			client.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			storage := newS3Storage(t, client, upload.S3Config{})
			f := newFile(t, "a.txt", []byte("x"), storage)

			desc, err := storage.Upload(context.Background(), f, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, upload.ErrStorage)
			assert.Nil(t, desc)
		})
	}
}
