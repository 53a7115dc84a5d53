package adaptor

import (
	"errors"
	"net/http"

	"ecom-backend/internal/usecase"
	"ecom-backend/pkg/utils"

	"go.uber.org/zap"
)

type errorMapping struct {
	target error
	status int
	kind   string
}

// serviceErrors is checked in order; the first match decides the response.
var serviceErrors = []errorMapping{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "ValidationFailed"},
	{usecase.ErrDuplicateIdentity, http.StatusBadRequest, "DuplicateIdentity"},
	{usecase.ErrNoFaceDetected, http.StatusBadRequest, "NoFaceDetected"},
	{usecase.ErrUnsupportedImage, http.StatusBadRequest, "UnsupportedImage"},
	{usecase.ErrInvalidOrExpiredToken, http.StatusBadRequest, "InvalidOrExpiredToken"},
	{usecase.ErrUserNotFound, http.StatusNotFound, "UserNotFound"},
	{usecase.ErrIncorrectPassword, http.StatusUnauthorized, "IncorrectPassword"},
	{usecase.ErrNoMatch, http.StatusUnauthorized, "NoMatch"},
	{usecase.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{usecase.ErrFaceDisabled, http.StatusServiceUnavailable, "FaceRecognitionDisabled"},
}

// handleServiceError answers err with its mapped status and kind. Upstream
// and unknown failures are logged and answered with a generic message.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.Warn(operation+" failed", zap.String("kind", m.kind), zap.Error(err))
			utils.ResponseError(w, m.status, m.kind, messageFor(m.target, err))
			return
		}
	}

	if errors.Is(err, usecase.ErrUpstream) {
		log.Error(operation+" failed upstream", zap.Error(err))
		utils.ResponseError(w, http.StatusInternalServerError, "UpstreamFailure", "Something went wrong. Please try again later.")
		return
	}

	log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
	utils.ResponseError(w, http.StatusInternalServerError, "Internal", "Internal server error")
}

// messageFor keeps validation details, which are safe to show, and uses the
// sentinel text for everything else.
func messageFor(target, err error) string {
	if target == usecase.ErrInvalidInput {
		return err.Error()
	}
	return target.Error()
}

func validationFailed(w http.ResponseWriter, errs map[string]string) {
	utils.ResponseJSON(w, http.StatusBadRequest, false, "Validation failed", nil, errs)
}
