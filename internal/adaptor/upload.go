package adaptor

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// multipartOverhead is allowed on top of the image limit for the other form
// fields and part headers.
const multipartOverhead = 1 << 20

var errMissingImage = errors.New("image is required")

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseUpload bounds the request body and parses the multipart form. Parts
// beyond maxMemory are spooled to disk by net/http and removed by cleanup.
func parseUpload(w http.ResponseWriter, r *http.Request, maxImage int64) (cleanup func(), err error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImage+multipartOverhead)
	if err := r.ParseMultipartForm(maxImage); err != nil {
		return func() {}, err
	}
	return func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}, nil
}

// formImage opens the "image" part. It returns errMissingImage when the field
// is absent.
func formImage(r *http.Request) (io.ReadCloser, error) {
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, errMissingImage
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge)
}
