package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
)

type requestConfig struct {
	tempDir        string
	maxFileSize    int64
	maxRequestSize int64
}

// RequestOption configures FromRequest.
type RequestOption func(*requestConfig)

// WithTempDir sets the directory temporary upload files are written to.
// Defaults to os.TempDir().
func WithTempDir(dir string) RequestOption {
	return func(c *requestConfig) {
		if dir != "" {
			c.tempDir = dir
		}
	}
}

// WithMaxFileSize limits a single file part. Oversized parts are recorded
// with ErrFormSize. Zero means unlimited.
func WithMaxFileSize(n int64) RequestOption {
	return func(c *requestConfig) {
		c.maxFileSize = n
	}
}

// WithMaxRequestSize limits the whole request body. The part being read
// when the limit is hit is recorded with ErrIniSize and parsing stops.
// Zero means unlimited.
func WithMaxRequestSize(n int64) RequestOption {
	return func(c *requestConfig) {
		c.maxRequestSize = n
	}
}

// FromRequest streams a multipart/form-data body, spooling every file part
// to its own temporary file. Each field gets an UploadRecord whose ErrorCode
// reflects what happened while receiving it; temporary paths written here
// are registered as genuine uploads.
//
// A field name repeated across file parts keeps its first part under the
// plain name; later parts are keyed "name[1]", "name[2]" and so on, in
// submission order.
//
// The caller owns the returned Records and should call Cleanup once the
// request is done.
func FromRequest(r *http.Request, opts ...RequestOption) (*Records, error) {
	cfg := &requestConfig{tempDir: os.TempDir()}
	for _, opt := range opts {
		opt(cfg)
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/form-data") {
		return nil, ErrNotMultipart
	}

	if cfg.maxRequestSize > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, cfg.maxRequestSize)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMultipart, err)
	}

	records := NewRecords()
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Fields received so far stay usable.
				break
			}
			_ = records.Cleanup()
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		field := part.FormName()
		if field == "" || !hasFilename(part.Header.Get("Content-Disposition")) {
			_ = part.Close()
			continue
		}

		key := field
		for n := 1; records.has(key); n++ {
			key = fmt.Sprintf("%s[%d]", field, n)
		}

		rec, stop := receivePart(cfg, key, part.FileName(), part)
		_ = part.Close()
		records.Add(rec, rec.TemporaryPath != "")
		if stop {
			break
		}
	}

	return records, nil
}

// receivePart copies one file part to a temporary file. stop is true when
// the request body can no longer be read.
func receivePart(cfg *requestConfig, field, filename string, src io.Reader) (rec UploadRecord, stop bool) {
	rec = UploadRecord{FieldKey: field, OriginalName: filename}

	if filename == "" {
		rec.ErrorCode = ErrNoFile
		return rec, false
	}

	tmp, err := os.CreateTemp(cfg.tempDir, "upload-*")
	if err != nil {
		rec.ErrorCode = ErrNoTmpDir
		_, _ = io.Copy(io.Discard, src)
		return rec, false
	}

	reader := src
	if cfg.maxFileSize > 0 {
		reader = io.LimitReader(src, cfg.maxFileSize+1)
	}

	n, copyErr := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	rec.ReportedSize = n

	fail := func(code ErrorCode, halt bool) (UploadRecord, bool) {
		_ = os.Remove(tmp.Name())
		rec.ErrorCode = code
		return rec, halt
	}

	if copyErr != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(copyErr, &tooLarge):
			return fail(ErrIniSize, true)
		case errors.Is(copyErr, io.ErrUnexpectedEOF):
			return fail(ErrPartial, true)
		default:
			return fail(ErrCantWrite, false)
		}
	}
	if closeErr != nil {
		return fail(ErrCantWrite, false)
	}
	if cfg.maxFileSize > 0 && n > cfg.maxFileSize {
		_, _ = io.Copy(io.Discard, src)
		return fail(ErrFormSize, false)
	}

	rec.TemporaryPath = tmp.Name()
	return rec, false
}

// hasFilename reports whether the part was sent as a file input, even an
// empty one.
func hasFilename(disposition string) bool {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}
