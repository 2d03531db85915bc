package upload

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Input errors
	ErrInvalidInput       = errors.New("invalid upload input") // Field was never submitted
	ErrUnknownUploadError = errors.New("unknown upload error code")
	ErrNotMultipart       = errors.New("request is not multipart/form-data")

	// Validation errors
	ErrValidationFailed  = errors.New("file validation failed")
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// File inspection errors
	ErrFailedToOpenFile       = errors.New("failed to open file")
	ErrFailedToStatFile       = errors.New("failed to stat file")
	ErrFailedToDetectMIMEType = errors.New("failed to detect MIME type")
	ErrFailedToHashFile       = errors.New("failed to hash file")

	// ErrStorage is the root of every backend failure. Backends never return
	// a bare I/O error; they wrap one of the sentinels below.
	ErrStorage = errors.New("storage error")

	ErrInvalidPath             = fmt.Errorf("%w: invalid path", ErrStorage) // Prevents path traversal attacks
	ErrFileExists              = fmt.Errorf("%w: file already exists", ErrStorage)
	ErrFailedToCreateDirectory = fmt.Errorf("%w: failed to create directory", ErrStorage)
	ErrFailedToCreateFile      = fmt.Errorf("%w: failed to create file", ErrStorage)
	ErrFailedToWriteFile       = fmt.Errorf("%w: failed to write file", ErrStorage)
	ErrFailedToReadFile        = fmt.Errorf("%w: failed to read file", ErrStorage)
	ErrFailedToMoveFile        = fmt.Errorf("%w: failed to move file", ErrStorage)
	ErrFailedToGetAbsolutePath = fmt.Errorf("%w: failed to get absolute path", ErrStorage)

	// S3-specific errors for proper error classification
	ErrBucketNotFound     = fmt.Errorf("%w: bucket not found", ErrStorage)
	ErrAccessDenied       = fmt.Errorf("%w: access denied", ErrStorage)
	ErrRequestTimeout     = fmt.Errorf("%w: request timed out", ErrStorage)
	ErrServiceUnavailable = fmt.Errorf("%w: service temporarily unavailable", ErrStorage)
	ErrOperationTimeout   = fmt.Errorf("%w: operation timed out", ErrStorage)
	ErrOperationCanceled  = fmt.Errorf("%w: operation canceled", ErrStorage)

	// Configuration errors
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
)

// ValidationError is returned by UploadedFile.Upload when one or more checks
// failed. Messages keeps the order in which the checks ran.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return ErrValidationFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(e.Messages, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
