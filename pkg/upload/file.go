package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dmitrymomot/intake/pkg/logger"
)

const genuineUploadMessage = "the uploaded file was not received through a multipart request"

// Dimensions holds the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// UploadedFile wraps one uploaded field for the lifetime of a request.
// It derives metadata lazily, runs validators and hands the file to a
// Storage once every check has passed.
//
// An UploadedFile is not safe for concurrent use and must not be used after
// the request's temporary files have been cleaned up.
type UploadedFile struct {
	records *Records
	storage Storage
	logger  *slog.Logger

	fieldKey     string
	originalName string
	path         string
	errorCode    ErrorCode

	// Derived lazily; empty pointer means not computed yet.
	name      *string
	extension *string
	mimeType  *string

	validators []Validator
	errors     []string
}

// Option configures an UploadedFile.
type Option func(*UploadedFile)

// WithLogger sets the logger used for validation and persistence events.
// Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(f *UploadedFile) {
		if l != nil {
			f.logger = l
		}
	}
}

// New builds an UploadedFile for the field key found in records.
// Returns ErrInvalidInput if the field was never submitted.
//
// Example:
//
//	records, err := upload.FromRequest(r)
//	if err != nil {
//		return err
//	}
//	defer records.Cleanup()
//
//	f, err := upload.New(records, "avatar", storage)
//	if err != nil {
//		return err
//	}
//	f.AddValidators(upload.NewSize("5M", ""), upload.NewMIMEType("image/png", "image/jpeg"))
//	desc, err := f.Upload(ctx, "")
func New(records *Records, key string, storage Storage, opts ...Option) (*UploadedFile, error) {
	if records == nil || storage == nil {
		return nil, ErrInvalidInput
	}

	rec, ok := records.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: cannot find uploaded file identified by key %q", ErrInvalidInput, key)
	}

	f := &UploadedFile{
		records:      records,
		storage:      storage,
		logger:       slog.New(slog.DiscardHandler),
		fieldKey:     rec.FieldKey,
		originalName: rec.OriginalName,
		path:         rec.TemporaryPath,
		errorCode:    rec.ErrorCode,
		validators:   []Validator{},
		errors:       []string{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(logger.Field(f.fieldKey), logger.FileName(f.originalName))

	return f, nil
}

// FieldKey returns the form field the file was submitted under.
func (f *UploadedFile) FieldKey() string { return f.fieldKey }

// OriginalName returns the client-supplied filename. It is never used as a
// storage name directly.
func (f *UploadedFile) OriginalName() string { return f.originalName }

// Path returns the temporary file backing this upload.
func (f *UploadedFile) Path() string { return f.path }

// ErrorCode returns the transport status copied from the upload record.
func (f *UploadedFile) ErrorCode() ErrorCode { return f.errorCode }

// Name returns the filename without extension.
func (f *UploadedFile) Name() string {
	if f.name == nil {
		name := stem(f.originalName)
		f.name = &name
	}
	return *f.name
}

// SetName overrides the stem. The extension is left untouched.
func (f *UploadedFile) SetName(name string) *UploadedFile {
	f.name = &name
	return f
}

// Extension returns the lowercase extension without the leading dot.
func (f *UploadedFile) Extension() string {
	if f.extension == nil {
		ext := extension(f.originalName)
		f.extension = &ext
	}
	return *f.extension
}

// NameWithExtension returns "name.ext", or just the name when the original
// file had no extension.
func (f *UploadedFile) NameWithExtension() string {
	if f.Extension() == "" {
		return f.Name()
	}
	return f.Name() + "." + f.Extension()
}

// MIMEType detects the media type from the file content, ignoring whatever
// the client declared. Parameters such as charset are stripped.
func (f *UploadedFile) MIMEType() (string, error) {
	if f.mimeType != nil {
		return *f.mimeType, nil
	}

	mtype, err := mimetype.DetectFile(f.path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToDetectMIMEType, err)
	}

	value := mtype.String()
	if i := strings.IndexAny(value, ";,"); i >= 0 {
		value = value[:i]
	}
	value = strings.ToLower(strings.TrimSpace(value))
	f.mimeType = &value

	return value, nil
}

// Size returns the size of the temporary file in bytes.
func (f *UploadedFile) Size() (int64, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFailedToStatFile, err)
	}
	return info.Size(), nil
}

// Checksum returns the hex-encoded SHA-256 of the file content.
func (f *UploadedFile) Checksum() (string, error) {
	return f.Hash(sha256.New())
}

// Hash streams the file content through h and returns the hex digest.
// A nil h defaults to SHA-256.
func (f *UploadedFile) Hash(h hash.Hash) (string, error) {
	if h == nil {
		h = sha256.New()
	}

	src, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()

	if _, err := io.Copy(h, src); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToHashFile, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Dimensions decodes the image header. Returns ErrUnsupportedFormat for
// content that is not a GIF, JPEG, PNG, BMP, TIFF or WebP image.
func (f *UploadedFile) Dimensions() (Dimensions, error) {
	src, err := f.Open()
	if err != nil {
		return Dimensions{}, err
	}
	defer func() { _ = src.Close() }()

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Open opens the temporary file for reading. The caller must close it.
func (f *UploadedFile) Open() (*os.File, error) {
	src, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToOpenFile, err)
	}
	return src, nil
}

// AddValidator appends v to the validator chain. Nil is ignored.
func (f *UploadedFile) AddValidator(v Validator) *UploadedFile {
	if v != nil {
		f.validators = append(f.validators, v)
	}
	return f
}

// AddValidators appends every entry that implements Validator and silently
// skips the rest.
func (f *UploadedFile) AddValidators(vs ...any) *UploadedFile {
	for _, v := range vs {
		if validator, ok := v.(Validator); ok {
			f.AddValidator(validator)
		}
	}
	return f
}

// Validators returns the attached validators in evaluation order.
func (f *UploadedFile) Validators() []Validator {
	return slices.Clone(f.validators)
}

// Errors returns the messages collected by the last Validate call plus any
// added with AddError since.
func (f *UploadedFile) Errors() []string {
	return slices.Clone(f.errors)
}

// AddError records an externally detected failure.
func (f *UploadedFile) AddError(msg string) *UploadedFile {
	f.errors = append(f.errors, msg)
	return f
}

// Validate runs the built-in checks and then every validator in insertion
// order. All checks run; a failure never stops the ones after it.
// The error is non-nil only for an upload error code outside the known table.
func (f *UploadedFile) Validate(ctx context.Context) (bool, error) {
	f.errors = []string{}

	if !f.IsOK() {
		msg, err := f.errorCode.Message()
		if err != nil {
			return false, err
		}
		f.errors = append(f.errors, msg)
	}

	if !f.IsGenuineUpload() {
		f.errors = append(f.errors, genuineUploadMessage)
	}

	for _, v := range f.validators {
		if !v.Validate(ctx, f) {
			msg := v.Message()
			f.errors = append(f.errors, msg)
			f.logger.DebugContext(ctx, "upload validation failed", logger.Reason(msg))
		}
	}

	return len(f.errors) == 0, nil
}

// Upload validates the file and, only if it is valid, persists it through
// the storage backend. A non-empty newName replaces the stem (its own
// extension is discarded) before the backend is called. The backend's
// result is returned as is.
func (f *UploadedFile) Upload(ctx context.Context, newName string) (*Descriptor, error) {
	ok, err := f.Validate(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Messages: f.Errors()}
	}

	if newName != "" {
		f.SetName(stem(newName))
	}

	desc, err := f.storage.Upload(ctx, f, newName)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to persist upload", logger.Error(err))
		return desc, err
	}

	f.logger.InfoContext(ctx, "upload persisted",
		logger.StoragePath(desc.Path),
		logger.FileSize(desc.Size),
		logger.Checksum(desc.Checksum),
	)

	return desc, nil
}

// IsOK reports whether the transport finished without error.
func (f *UploadedFile) IsOK() bool {
	return f.errorCode == ErrOK
}

// IsGenuineUpload reports whether the backing file was written by the
// request layer rather than injected through a crafted record.
func (f *UploadedFile) IsGenuineUpload() bool {
	return f.records.IsGenuine(f.path)
}

// stem returns the base filename without its last extension. Path
// components from either separator style are dropped.
func stem(filename string) string {
	base := baseName(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(baseName(filename)), "."))
}

func baseName(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = strings.ReplaceAll(filename, "\x00", "")
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}
	return filename
}
