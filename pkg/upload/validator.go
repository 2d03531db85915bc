package upload

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// Validator is a pluggable check run by UploadedFile.Validate.
//
// Validate must not change the file beyond reading its derived metadata.
// Message describes why the most recent Validate call on this instance
// returned false; it is meaningless after a true result.
type Validator interface {
	Validate(ctx context.Context, f *UploadedFile) bool
	Message() string
}

// FuncValidator adapts a plain predicate with a fixed failure message.
type FuncValidator struct {
	fn      func(ctx context.Context, f *UploadedFile) bool
	message string
}

// Func returns a Validator that fails with message whenever fn returns false.
//
// Example:
//
//	notEmpty := upload.Func("file is empty", func(_ context.Context, f *upload.UploadedFile) bool {
//		size, err := f.Size()
//		return err == nil && size > 0
//	})
func Func(message string, fn func(ctx context.Context, f *UploadedFile) bool) *FuncValidator {
	return &FuncValidator{fn: fn, message: message}
}

func (v *FuncValidator) Validate(ctx context.Context, f *UploadedFile) bool {
	return v.fn != nil && v.fn(ctx, f)
}

func (v *FuncValidator) Message() string { return v.message }

// Size checks that the file size lies within [Min, Max] bytes.
// A zero Max disables the upper bound.
type Size struct {
	Min     int64
	Max     int64
	message string
}

// NewSize builds a size validator from human-readable bounds such as "10M"
// or "512K". An empty minSize means no lower bound.
func NewSize(maxSize, minSize string) *Size {
	return &Size{
		Min: HumanReadableToBytes(minSize),
		Max: HumanReadableToBytes(maxSize),
	}
}

func (v *Size) Validate(_ context.Context, f *UploadedFile) bool {
	size, err := f.Size()
	if err != nil {
		v.message = "unable to determine file size"
		return false
	}

	if size < v.Min {
		v.message = fmt.Sprintf("file size is too small, must be at least %s", humanize.IBytes(uint64(v.Min)))
		return false
	}

	if v.Max > 0 && size > v.Max {
		v.message = fmt.Sprintf("file size is too large, must be at most %s", humanize.IBytes(uint64(v.Max)))
		return false
	}

	return true
}

func (v *Size) Message() string { return v.message }

// MIMEType accepts files whose sniffed media type is in the allow-list.
// Entries ending in "/*" match a whole family, e.g. "image/*".
type MIMEType struct {
	allowed []string
	message string
}

// NewMIMEType returns a MIME allow-list validator.
func NewMIMEType(allowed ...string) *MIMEType {
	normalized := make([]string, 0, len(allowed))
	for _, a := range allowed {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(a)))
	}
	return &MIMEType{allowed: normalized}
}

func (v *MIMEType) Validate(_ context.Context, f *UploadedFile) bool {
	mimeType, err := f.MIMEType()
	if err != nil {
		v.message = "unable to determine file type"
		return false
	}

	for _, a := range v.allowed {
		if a == mimeType {
			return true
		}
		if family, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(mimeType, family+"/") {
			return true
		}
	}

	v.message = fmt.Sprintf("invalid file type %s, must be one of: %s", mimeType, strings.Join(v.allowed, ", "))
	return false
}

func (v *MIMEType) Message() string { return v.message }

// Extension accepts files whose extension is in the allow-list.
// Matching is case-insensitive and a leading dot is optional.
type Extension struct {
	allowed []string
	message string
}

// NewExtension returns an extension allow-list validator.
func NewExtension(allowed ...string) *Extension {
	normalized := make([]string, 0, len(allowed))
	for _, a := range allowed {
		normalized = append(normalized, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(a), ".")))
	}
	return &Extension{allowed: normalized}
}

func (v *Extension) Validate(_ context.Context, f *UploadedFile) bool {
	if slices.Contains(v.allowed, f.Extension()) {
		return true
	}

	v.message = fmt.Sprintf("invalid file extension, must be one of: %s", strings.Join(v.allowed, ", "))
	return false
}

func (v *Extension) Message() string { return v.message }

// ImageDimensions checks the pixel size of an image. Zero bounds are
// ignored. Non-image content always fails.
type ImageDimensions struct {
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int
	message             string
}

func (v *ImageDimensions) Validate(_ context.Context, f *UploadedFile) bool {
	dim, err := f.Dimensions()
	if err != nil {
		v.message = "file is not a supported image"
		return false
	}

	switch {
	case v.MinWidth > 0 && dim.Width < v.MinWidth:
		v.message = fmt.Sprintf("image width %dpx is below the minimum of %dpx", dim.Width, v.MinWidth)
	case v.MaxWidth > 0 && dim.Width > v.MaxWidth:
		v.message = fmt.Sprintf("image width %dpx exceeds the maximum of %dpx", dim.Width, v.MaxWidth)
	case v.MinHeight > 0 && dim.Height < v.MinHeight:
		v.message = fmt.Sprintf("image height %dpx is below the minimum of %dpx", dim.Height, v.MinHeight)
	case v.MaxHeight > 0 && dim.Height > v.MaxHeight:
		v.message = fmt.Sprintf("image height %dpx exceeds the maximum of %dpx", dim.Height, v.MaxHeight)
	default:
		return true
	}

	return false
}

func (v *ImageDimensions) Message() string { return v.message }
