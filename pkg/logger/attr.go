package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Field records the form field key under the key "field".
func Field(key string) slog.Attr {
	return slog.String("field", key)
}

// FileName records a file name under the key "file_name".
func FileName(name string) slog.Attr {
	return slog.String("file_name", name)
}

// FileSize records a size in bytes under the key "file_size".
func FileSize(size int64) slog.Attr {
	return slog.Int64("file_size", size)
}

// Checksum records a content checksum under the key "checksum".
// If sum is empty, it returns an empty Attr.
func Checksum(sum string) slog.Attr {
	if sum == "" {
		return slog.Attr{}
	}
	return slog.String("checksum", sum)
}

// StoragePath records the backend-relative location under the key "storage_path".
func StoragePath(path string) slog.Attr {
	return slog.String("storage_path", path)
}

// Backend records the storage backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Reason records a human-readable failure reason under the key "reason".
func Reason(msg string) slog.Attr {
	return slog.String("reason", msg)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
