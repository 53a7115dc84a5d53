// Package dlib implements face.Detector on top of dlib's ResNet face model
// through go-face. It needs cgo and the dlib libraries at build time, and the
// model files shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and (for CNN detection)
// mmod_human_face_detector.dat at runtime.
package dlib

import (
	"fmt"

	"ecom-backend/internal/face"

	goface "github.com/Kagami/go-face"
)

// Recognizer is the process-wide handle on the loaded models. It is created
// once at startup, shared read-only by all requests and closed on shutdown.
type Recognizer struct {
	rec    *goface.Recognizer
	useCNN bool
}

// New loads the models from modelDir and fails if any is missing.
func New(modelDir string, useCNN bool) (*Recognizer, error) {
	rec, err := goface.NewRecognizer(modelDir)
	if err != nil {
		return nil, fmt.Errorf("load face models from %s: %w", modelDir, err)
	}

	return &Recognizer{rec: rec, useCNN: useCNN}, nil
}

// DetectFile implements face.Detector. dlib sorts detections by rectangle,
// so the leftmost face comes first.
func (r *Recognizer) DetectFile(path string) ([]face.Descriptor, error) {
	var (
		faces []goface.Face
		err   error
	)
	if r.useCNN {
		faces, err = r.rec.RecognizeFileCNN(path)
	} else {
		faces, err = r.rec.RecognizeFile(path)
	}
	if err != nil {
		return nil, err
	}

	out := make([]face.Descriptor, len(faces))
	for i, f := range faces {
		out[i] = face.Descriptor(f.Descriptor)
	}
	return out, nil
}

func (r *Recognizer) Close() {
	r.rec.Close()
}
