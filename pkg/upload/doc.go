// Package upload turns a submitted multipart file field into a validated,
// persisted file.
//
// A request handler builds one UploadedFile per field, attaches validators
// and calls Upload. The file's transport status and origin are checked
// first, then every validator runs in the order it was added. Failures are
// collected rather than short-circuited, and storage is only reached when
// the whole list is empty.
//
// # Architecture
//
// The package is built around three pieces:
//   - Records: the per-request field table produced by FromRequest, including
//     the set of temporary paths the request layer actually wrote
//   - Validator: a predicate with a failure message (Size, MIMEType,
//     Extension, ImageDimensions, Unique, Func)
//   - Storage: the persistence backend (LocalStorage, S3Storage,
//     IndexedStorage as a decorator)
//
// # Usage
//
//	storage, err := upload.NewLocalStorage("/var/uploads", "/files/")
//	if err != nil {
//		return err
//	}
//
//	// In HTTP handler
//	records, err := upload.FromRequest(r, upload.WithMaxFileSize(20<<20))
//	if err != nil {
//		return err
//	}
//	defer records.Cleanup()
//
//	f, err := upload.New(records, "avatar", storage)
//	if err != nil {
//		return err // ErrInvalidInput: field not submitted
//	}
//
//	f.AddValidators(
//		upload.NewSize("5M", ""),
//		upload.NewMIMEType("image/png", "image/jpeg"),
//		upload.NewExtension("png", "jpg", "jpeg"),
//	)
//
//	desc, err := f.Upload(ctx, "avatar-"+userID)
//	var verr *upload.ValidationError
//	if errors.As(err, &verr) {
//		// verr.Messages lists every failed check in order
//	}
//
// # Metadata
//
// Name and Extension are derived from the client filename and cached; the
// extension is lowercased and has no leading dot. MIMEType sniffs the file
// content with github.com/gabriel-vasile/mimetype and never trusts the
// client's Content-Type. Checksum is SHA-256 in hex. Dimensions reads the
// image header of GIF, JPEG, PNG, BMP, TIFF and WebP files.
//
// # Error Handling
//
//	errors.Is(err, upload.ErrInvalidInput)       // field missing from the request
//	errors.Is(err, upload.ErrUnknownUploadError) // transport code outside the known table
//	errors.Is(err, upload.ErrValidationFailed)   // one or more checks failed
//	errors.Is(err, upload.ErrStorage)            // any backend failure
//	errors.Is(err, upload.ErrUnsupportedFormat)  // Dimensions on a non-image
//
// Storage failures are never retried here; retry policy belongs to the
// backend.
package upload
