package upload_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/intake/pkg/upload"
)

func TestIndexedStorage(t *testing.T) {
	t.Parallel()

	t.Run("indexes stored checksum", func(t *testing.T) {
		t.Parallel()
		local, err := upload.NewLocalStorage(t.TempDir(), "/files/")
		require.NoError(t, err)

		index := newMemoryIndex()
		storage := upload.WithIndex(local, index)

		f := newFile(t, "a.txt", []byte("first"), storage)
		f.AddValidator(upload.NewUnique(index))

		desc, err := f.Upload(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "a.txt", index.sums[desc.Checksum])

		dup := newFile(t, "b.txt", []byte("first"), storage)
		dup.AddValidator(upload.NewUnique(index))

		_, err = dup.Upload(context.Background(), "")
		var verr *upload.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"an identical file has already been uploaded"}, verr.Messages)
	})

	t.Run("backend failure skips index", func(t *testing.T) {
		t.Parallel()
		backend := new(MockStorage)
		backend.On("Upload", mock.Anything, mock.Anything, "").Return(nil, upload.ErrAccessDenied)

		index := newMemoryIndex()
		storage := upload.WithIndex(backend, index)
		f := newFile(t, "a.txt", []byte("x"), storage)

		desc, err := storage.Upload(context.Background(), f, "")
		assert.ErrorIs(t, err, upload.ErrAccessDenied)
		assert.Nil(t, desc)
		assert.Empty(t, index.sums)
	})

	t.Run("index failure keeps descriptor", func(t *testing.T) {
		t.Parallel()
		stored := &upload.Descriptor{Name: "a.txt", Checksum: "abc", Path: "a.txt"}
		backend := new(MockStorage)
		backend.On("Upload", mock.Anything, mock.Anything, "").Return(stored, nil)

		index := newMemoryIndex()
		index.err = errors.New("connection refused")
		storage := upload.WithIndex(backend, index)
		f := newFile(t, "a.txt", []byte("x"), storage)

		desc, err := storage.Upload(context.Background(), f, "")
		assert.ErrorIs(t, err, upload.ErrStorage)
		assert.Same(t, stored, desc)
	})
}
