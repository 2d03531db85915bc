package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// ErrorCode is the transport status of a single uploaded field.
type ErrorCode int

const (
	ErrOK        ErrorCode = 0
	ErrIniSize   ErrorCode = 1 // Larger than the server-wide limit
	ErrFormSize  ErrorCode = 2 // Larger than the per-file limit
	ErrPartial   ErrorCode = 3
	ErrNoFile    ErrorCode = 4
	ErrNoTmpDir  ErrorCode = 6
	ErrCantWrite ErrorCode = 7
	ErrExtension ErrorCode = 8 // Aborted by middleware
)

var errorCodeMessages = map[ErrorCode]string{
	ErrIniSize:   "file exceeds the server's configured maximum upload size",
	ErrFormSize:  "file exceeds the form-declared maximum size",
	ErrPartial:   "file was only partially uploaded",
	ErrNoFile:    "no file was uploaded",
	ErrNoTmpDir:  "missing a temporary storage location",
	ErrCantWrite: "failed to write file to disk",
	ErrExtension: "upload aborted by an extension/middleware",
}

// Message returns the fixed human-readable text for the code.
// ErrOK has no message. Codes outside the table return ErrUnknownUploadError.
func (c ErrorCode) Message() (string, error) {
	if c == ErrOK {
		return "", nil
	}
	msg, ok := errorCodeMessages[c]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownUploadError, int(c))
	}
	return msg, nil
}

// UploadRecord describes one submitted file field before any processing.
type UploadRecord struct {
	FieldKey      string
	OriginalName  string
	TemporaryPath string
	ReportedSize  int64
	ErrorCode     ErrorCode
}

// Records is the per-request set of upload records keyed by form field.
// It also remembers which temporary paths were written by the transport
// itself, so a record pointing at an arbitrary local file can be told apart
// from a real upload.
type Records struct {
	mu      sync.Mutex
	records map[string]UploadRecord
	order   []string
	genuine map[string]struct{}
}

// NewRecords returns an empty record set.
func NewRecords() *Records {
	return &Records{
		records: make(map[string]UploadRecord),
		genuine: make(map[string]struct{}),
	}
}

// Add registers rec under rec.FieldKey, replacing any previous record for
// that key. When genuine is true the temporary path is marked as written by
// the transport layer.
func (r *Records) Add(rec UploadRecord, genuine bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.FieldKey]; !ok {
		r.order = append(r.order, rec.FieldKey)
	}
	r.records[rec.FieldKey] = rec

	if genuine && rec.TemporaryPath != "" {
		r.genuine[cleanPath(rec.TemporaryPath)] = struct{}{}
	}
}

func (r *Records) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[key]
	return ok
}

// Get returns the record for key.
func (r *Records) Get(key string) (UploadRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	return rec, ok
}

// Keys returns field keys in submission order.
func (r *Records) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.order)
}

// IsGenuine reports whether path was written by the transport layer.
func (r *Records) IsGenuine(path string) bool {
	if path == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.genuine[cleanPath(path)]
	return ok
}

// Cleanup removes every genuine temporary file that is still on disk.
// Files already moved by a storage backend are skipped.
func (r *Records) Cleanup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for path := range r.genuine {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func cleanPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
