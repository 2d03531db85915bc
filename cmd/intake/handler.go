package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/dmitrymomot/intake/pkg/logger"
	"github.com/dmitrymomot/intake/pkg/upload"
)

type fileResponse struct {
	Field     string `json:"field"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	URL       string `json:"url"`
	Size      int64  `json:"size"`
	MIMEType  string `json:"mime_type"`
	Checksum  string `json:"checksum"`
	Extension string `json:"extension,omitempty"`
}

type uploadResponse struct {
	Files  []fileResponse      `json:"files"`
	Errors map[string][]string `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// uploadHandler accepts a multipart form and stores every file field.
// The optional "name" query parameter renames a single-file upload.
type uploadHandler struct {
	storage        upload.Storage
	index          upload.ChecksumIndex
	cfg            UploadConfig
	maxFileSize    int64
	maxRequestSize int64
	log            *slog.Logger
}

func newUploadHandler(storage upload.Storage, index upload.ChecksumIndex, cfg UploadConfig, log *slog.Logger) *uploadHandler {
	return &uploadHandler{
		storage:        storage,
		index:          index,
		cfg:            cfg,
		maxFileSize:    upload.HumanReadableToBytes(cfg.MaxFileSize),
		maxRequestSize: upload.HumanReadableToBytes(cfg.MaxRequestSize),
		log:            log.With(logger.Component("upload_handler")),
	}
}

func (h *uploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := upload.FromRequest(r,
		upload.WithTempDir(h.cfg.TempDir),
		upload.WithMaxFileSize(h.maxFileSize),
		upload.WithMaxRequestSize(h.maxRequestSize),
	)
	if err != nil {
		h.log.WarnContext(ctx, "rejected upload request", logger.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	defer func() {
		if err := records.Cleanup(); err != nil {
			h.log.ErrorContext(ctx, "failed to remove temporary files", logger.Error(err))
		}
	}()

	keys := records.Keys()
	if len(keys) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no file fields in request"})
		return
	}

	newName := ""
	if len(keys) == 1 {
		newName = r.URL.Query().Get("name")
	}

	resp := uploadResponse{Files: []fileResponse{}}
	failed := 0

	for _, key := range keys {
		f, err := upload.New(records, key, h.storage, upload.WithLogger(h.log))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		for _, v := range h.cfg.validators(h.index) {
			f.AddValidator(v)
		}

		desc, err := f.Upload(ctx, newName)
		if err != nil && desc == nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string][]string)
			}
			messages, code := fieldFailure(err)
			resp.Errors[key] = messages
			failed = worse(failed, code)
			continue
		}
		if err != nil {
			// Stored, but the checksum index missed it.
			h.log.WarnContext(ctx, "file stored without index entry", logger.Field(key), logger.Error(err))
		}

		resp.Files = append(resp.Files, fileResponse{
			Field:     key,
			Name:      desc.Name,
			Path:      desc.Path,
			URL:       desc.URL,
			Size:      desc.Size,
			MIMEType:  desc.MIMEType,
			Checksum:  desc.Checksum,
			Extension: desc.Extension,
		})
	}

	status := http.StatusCreated
	switch {
	case failed > 0 && len(resp.Files) > 0:
		status = http.StatusMultiStatus
	case failed > 0:
		status = failed
	}
	writeJSON(w, status, resp)
}

// failureOrder ranks field failure statuses from least to most severe.
var failureOrder = []int{
	http.StatusBadRequest,
	http.StatusUnprocessableEntity,
	http.StatusConflict,
	http.StatusInternalServerError,
}

func worse(a, b int) int {
	if slices.Index(failureOrder, b) > slices.Index(failureOrder, a) {
		return b
	}
	return a
}

// fieldFailure maps a failed upload to the messages reported for its field
// and the status the request gets when no sibling was stored.
func fieldFailure(err error) ([]string, int) {
	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Messages, http.StatusUnprocessableEntity
	case errors.Is(err, upload.ErrUnknownUploadError):
		return []string{err.Error()}, http.StatusBadRequest
	case errors.Is(err, upload.ErrFileExists):
		return []string{err.Error()}, http.StatusConflict
	default:
		return []string{"failed to store file"}, http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
