package upload_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/intake/pkg/upload"
)

// MockStorage records every call made by UploadedFile.Upload.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, f *upload.UploadedFile, newName string) (*upload.Descriptor, error) {
	args := m.Called(ctx, f, newName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.Descriptor), args.Error(1)
}

// newRecords writes content to a temporary file and registers it as a
// genuine upload for field.
func newRecords(t *testing.T, field, filename string, content []byte) *upload.Records {
	t.Helper()

	path := filepath.Join(t.TempDir(), "upload-"+field)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	records := upload.NewRecords()
	records.Add(upload.UploadRecord{
		FieldKey:      field,
		OriginalName:  filename,
		TemporaryPath: path,
		ReportedSize:  int64(len(content)),
	}, true)

	return records
}

func newFile(t *testing.T, filename string, content []byte, storage upload.Storage) *upload.UploadedFile {
	t.Helper()

	f, err := upload.New(newRecords(t, "file", filename, content), "file", storage)
	require.NoError(t, err)
	return f
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

// stubValidator returns a fixed result and message.
type stubValidator struct {
	ok      bool
	message string
	calls   int
}

func (v *stubValidator) Validate(context.Context, *upload.UploadedFile) bool {
	v.calls++
	return v.ok
}

func (v *stubValidator) Message() string { return v.message }

// memoryIndex is an in-memory ChecksumIndex.
type memoryIndex struct {
	sums map[string]string
	err  error
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{sums: make(map[string]string)}
}

func (m *memoryIndex) Contains(_ context.Context, checksum string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.sums[checksum]
	return ok, nil
}

func (m *memoryIndex) Add(_ context.Context, checksum, path string) error {
	if m.err != nil {
		return m.err
	}
	m.sums[checksum] = path
	return nil
}
