package upload

import (
	"context"
	"fmt"
)

// ChecksumIndex remembers the checksums of files that were already stored.
type ChecksumIndex interface {
	Contains(ctx context.Context, checksum string) (bool, error)
	Add(ctx context.Context, checksum, path string) error
}

// Unique rejects files whose content is already present in the index.
// Lookup failures reject the file rather than risk a duplicate.
type Unique struct {
	index   ChecksumIndex
	message string
}

// NewUnique returns a content de-duplication validator.
func NewUnique(index ChecksumIndex) *Unique {
	return &Unique{index: index}
}

func (v *Unique) Validate(ctx context.Context, f *UploadedFile) bool {
	sum, err := f.Checksum()
	if err != nil {
		v.message = "unable to compute file checksum"
		return false
	}

	exists, err := v.index.Contains(ctx, sum)
	if err != nil {
		v.message = "unable to check for duplicate files"
		return false
	}
	if exists {
		v.message = "an identical file has already been uploaded"
		return false
	}

	return true
}

func (v *Unique) Message() string { return v.message }

// IndexedStorage records the checksum of every successful upload in an
// index, so a Unique validator sees it on later requests.
type IndexedStorage struct {
	next  Storage
	index ChecksumIndex
}

// WithIndex wraps next so stored checksums are added to index.
func WithIndex(next Storage, index ChecksumIndex) *IndexedStorage {
	return &IndexedStorage{next: next, index: index}
}

func (s *IndexedStorage) Upload(ctx context.Context, f *UploadedFile, newName string) (*Descriptor, error) {
	desc, err := s.next.Upload(ctx, f, newName)
	if err != nil {
		return nil, err
	}

	if err := s.index.Add(ctx, desc.Checksum, desc.Path); err != nil {
		return desc, fmt.Errorf("%w: failed to index checksum: %v", ErrStorage, err)
	}

	return desc, nil
}
