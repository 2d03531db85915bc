package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// LocalStorage implements Storage on a filesystem.
// All files are confined to baseDir to prevent path traversal attacks.
// Safe for concurrent use.
type LocalStorage struct {
	fs            afero.Fs
	baseDir       string // Absolute path - all files stored within this directory
	subDir        string // Optional directory under baseDir
	baseURL       string // URL prefix for serving files (e.g., "/files/")
	overwrite     bool
	keepSource    bool
	namer         Namer
	uploadTimeout time.Duration
}

// LocalOption defines a function that configures LocalStorage.
type LocalOption func(*LocalStorage)

// WithFs replaces the filesystem files are written to. Defaults to the OS
// filesystem; an in-memory afero.Fs is handy in tests.
func WithFs(fs afero.Fs) LocalOption {
	return func(s *LocalStorage) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithSubDir stores files in dir below the base directory.
func WithSubDir(dir string) LocalOption {
	return func(s *LocalStorage) {
		s.subDir = dir
	}
}

// WithOverwrite sets the collision policy. When false, uploading onto an
// existing name fails with ErrFileExists. Defaults to true.
func WithOverwrite(overwrite bool) LocalOption {
	return func(s *LocalStorage) {
		s.overwrite = overwrite
	}
}

// WithKeepSource leaves the temporary upload in place after a successful
// write instead of removing it.
func WithKeepSource() LocalOption {
	return func(s *LocalStorage) {
		s.keepSource = true
	}
}

// WithLocalNamer sets how stored filenames are derived.
func WithLocalNamer(namer Namer) LocalOption {
	return func(s *LocalStorage) {
		if namer != nil {
			s.namer = namer
		}
	}
}

// WithLocalUploadTimeout sets the timeout for upload operations.
// If not set, relies on context deadline from caller.
func WithLocalUploadTimeout(timeout time.Duration) LocalOption {
	return func(s *LocalStorage) {
		s.uploadTimeout = timeout
	}
}

// NewLocalStorage creates a filesystem storage rooted at baseDir.
// baseDir is resolved to an absolute path and created if missing.
// baseURL is used to build public URLs (e.g., "/files/").
func NewLocalStorage(baseDir, baseURL string, opts ...LocalOption) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &LocalStorage{
		fs:        afero.NewOsFs(),
		baseDir:   absBaseDir,
		baseURL:   baseURL,
		overwrite: true,
		namer:     DefaultNamer,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.fs.MkdirAll(absBaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	return s, nil
}

// Upload copies the file into the base directory. Content goes to a
// temporary sibling first and is renamed into place after fsync, so readers
// never observe a partial file. The source temporary file is removed once
// the rename succeeded unless WithKeepSource was set.
//
// With WithOverwrite(false) the final name is reserved by an exclusive
// create before any content is written. Until the rename, that name holds
// an empty file.
func (s *LocalStorage) Upload(ctx context.Context, f *UploadedFile, newName string) (*Descriptor, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperationCanceled, err)
	}

	name := SanitizeFilename(s.namer(f, newName))
	relPath := filepath.Join(s.subDir, name)

	absPath, err := s.resolvePath(relPath)
	if err != nil {
		return nil, err
	}

	if err := s.fs.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	if !s.overwrite {
		if err := s.reserve(absPath, relPath); err != nil {
			return nil, err
		}
	}
	stored := false
	defer func() {
		if !stored && !s.overwrite {
			_ = s.fs.Remove(absPath)
		}
	}()

	// Sniff before the source may be removed below.
	mimeType, err := f.MIMEType()
	if err != nil {
		mimeType = "application/octet-stream" // Safe fallback for unknown types
	}

	src, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}
	defer func() { _ = src.Close() }()

	tmpPath := absPath + ".tmp-" + uuid.NewString()
	size, checksum, err := s.writeFile(ctx, tmpPath, src)
	if err != nil {
		_ = s.fs.Remove(tmpPath)
		return nil, err
	}

	if err := s.fs.Rename(tmpPath, absPath); err != nil {
		_ = s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("%w: %v", ErrFailedToMoveFile, err)
	}

	stored = true

	if !s.keepSource {
		_ = src.Close()
		_ = os.Remove(f.Path())
	}

	return &Descriptor{
		Name:         name,
		Extension:    f.Extension(),
		Size:         size,
		MIMEType:     mimeType,
		Checksum:     checksum,
		Path:         filepath.ToSlash(relPath),
		AbsolutePath: absPath,
		URL:          s.URL(relPath),
	}, nil
}

// reserve claims absPath with an exclusive create so concurrent uploads of
// the same name cannot both pass the collision check. The empty placeholder
// is replaced by the rename in Upload.
func (s *LocalStorage) reserve(absPath, relPath string) error {
	f, err := s.fs.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrFileExists, relPath)
		}
		return fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}
	return f.Close()
}

// writeFile copies src into path while hashing it, checking for
// cancellation between chunks.
func (s *LocalStorage) writeFile(ctx context.Context, path string, src io.Reader) (int64, string, error) {
	dst, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}
	defer func() { _ = dst.Close() }()

	hasher := sha256.New()
	out := io.MultiWriter(dst, hasher)

	written := int64(0)
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return 0, "", fmt.Errorf("%w: %v", ErrOperationCanceled, err)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := out.Write(buf[:n])
			if writeErr != nil {
				return 0, "", fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr)
			}
			written += int64(nw)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return 0, "", fmt.Errorf("%w: %v", ErrFailedToReadFile, readErr)
		}
	}

	if err := dst.Sync(); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := dst.Close(); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// URL returns the public URL for a stored path.
func (s *LocalStorage) URL(path string) string {
	path = filepath.ToSlash(filepath.Clean(path))
	if strings.HasPrefix(path, "/") {
		return path
	}
	return s.baseURL + path
}

// resolvePath validates and resolves a path within the base directory.
func (s *LocalStorage) resolvePath(path string) (string, error) {
	absPath := filepath.Join(s.baseDir, filepath.Clean(path))

	// Security check: ensure path stays within baseDir (prevents ../ attacks)
	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	return absPath, nil
}
