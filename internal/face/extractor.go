package face

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	ErrNoFaceDetected   = errors.New("no face detected")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)

// acceptedTypes are the formats the dlib loader can decode. go-face loads
// JPEG only.
var acceptedTypes = []string{"image/jpeg"}

// Detector finds faces in an image file on disk. Results are ordered by
// position, leftmost face first.
type Detector interface {
	DetectFile(path string) ([]Descriptor, error)
}

// Extractor turns an uploaded image into a single descriptor. Uploads are
// spooled to a temporary file which is removed before Extract returns.
type Extractor struct {
	fs       afero.Fs
	dir      string
	maxBytes int64
	detector Detector
	log      *zap.Logger
}

func NewExtractor(fs afero.Fs, dir string, maxBytes int64, detector Detector, log *zap.Logger) *Extractor {
	return &Extractor{
		fs:       fs,
		dir:      dir,
		maxBytes: maxBytes,
		detector: detector,
		log:      log.With(zap.String("component", "face_extractor")),
	}
}

// Extract spools r, checks the image type and returns the descriptor of the
// leftmost face. Multiple faces are not an error.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) (Descriptor, error) {
	var d Descriptor

	path, err := e.spool(r)
	if path != "" {
		defer e.remove(path)
	}
	if err != nil {
		return d, err
	}

	if err := e.checkType(path); err != nil {
		return d, err
	}

	if err := ctx.Err(); err != nil {
		return d, err
	}

	faces, err := e.detector.DetectFile(path)
	if err != nil {
		return d, fmt.Errorf("detect face: %w", err)
	}
	if len(faces) == 0 {
		return d, ErrNoFaceDetected
	}
	if len(faces) > 1 {
		e.log.Debug("Multiple faces detected, using leftmost", zap.Int("faces", len(faces)))
	}

	return faces[0], nil
}

func (e *Extractor) spool(r io.Reader) (string, error) {
	f, err := afero.TempFile(e.fs, e.dir, "face-*.upload")
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}
	path := f.Name()

	n, err := io.Copy(f, io.LimitReader(r, e.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return path, fmt.Errorf("write spool file: %w", err)
	}

	if n == 0 {
		return path, ErrUnsupportedImage
	}
	if n > e.maxBytes {
		return path, ErrImageTooLarge
	}

	return path, nil
}

func (e *Extractor) checkType(path string) error {
	f, err := e.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open spool file: %w", err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("sniff image type: %w", err)
	}

	for _, accepted := range acceptedTypes {
		if mtype.Is(accepted) {
			return nil
		}
	}

	e.log.Debug("Rejected upload", zap.String("mime", mtype.String()))
	return ErrUnsupportedImage
}

func (e *Extractor) remove(path string) {
	if err := e.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.log.Warn("Failed to remove spooled upload", zap.String("path", path), zap.Error(err))
	}
}
