package upload

import (
	"context"

	"github.com/google/uuid"
)

// Descriptor describes a persisted file.
type Descriptor struct {
	Name         string // Stored filename, including extension
	Extension    string
	Size         int64
	MIMEType     string
	Checksum     string // Hex SHA-256 of the stored content
	Path         string // Backend-relative path or object key
	AbsolutePath string // Local backends only
	URL          string
}

// Storage persists a validated UploadedFile.
//
// Upload is only ever called by UploadedFile.Upload after validation has
// passed. newName is the name the caller requested, already applied to the
// file's stem; backends derive the stored name through their Namer.
// Implementations must not expose partially written files and must wrap
// every failure with ErrStorage.
type Storage interface {
	Upload(ctx context.Context, f *UploadedFile, newName string) (*Descriptor, error)
}

// Namer computes the stored filename for a file.
type Namer func(f *UploadedFile, newName string) string

// DefaultNamer stores files under their (possibly renamed) name and
// extension.
func DefaultNamer(f *UploadedFile, _ string) string {
	return SanitizeFilename(f.NameWithExtension())
}

// UUIDNamer stores files under a random UUID, keeping the extension.
// Useful when client-chosen names must never reach the storage layout.
func UUIDNamer(f *UploadedFile, _ string) string {
	if ext := f.Extension(); ext != "" {
		return uuid.NewString() + "." + ext
	}
	return uuid.NewString()
}

// SanitizeFilename removes any path components and dangerous characters
// from a filename. Returns "unnamed" for empty or special directory
// references.
//
// Example:
//
//	safe := upload.SanitizeFilename("../../../etc/passwd") // "passwd"
func SanitizeFilename(filename string) string {
	filename = baseName(filename)

	if filename == "." || filename == ".." || filename == "" {
		filename = "unnamed"
	}

	return filename
}
