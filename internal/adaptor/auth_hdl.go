package adaptor

import (
	"encoding/json"
	"io"
	"net/http"

	"ecom-backend/internal/dto/request"
	"ecom-backend/internal/usecase"
	"ecom-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service  usecase.AuthService
	password usecase.PasswordService
	maxImage int64
	log      *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, password usecase.PasswordService, maxImage int64, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		password: password,
		maxImage: maxImage,
		log:      log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /api/register. The body is either JSON or a
// multipart form with the same fields and an optional "image" file.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var (
		req   request.RegisterRequest
		image io.Reader
	)

	if isMultipart(r) {
		cleanup, err := parseUpload(w, r, h.maxImage)
		defer cleanup()
		if err != nil {
			h.badUpload(w, err)
			return
		}

		req = request.RegisterRequest{
			FirstName:   r.FormValue("firstName"),
			LastName:    r.FormValue("lastName"),
			Email:       r.FormValue("email"),
			Password:    r.FormValue("password"),
			PhoneNumber: r.FormValue("phoneNumber"),
		}

		file, err := formImage(r)
		switch {
		case err == nil:
			defer file.Close()
			image = file
		case err != errMissingImage:
			h.badUpload(w, err)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		validationFailed(w, validationErrors)
		return
	}

	user, err := h.service.Register(r.Context(), &req, image)
	if err != nil {
		handleServiceError(w, h.log, err, "register")
		return
	}

	utils.ResponseCreated(w, "User registered successfully", user)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		validationFailed(w, validationErrors)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// LoginWithFace handles POST /api/login-with-face (multipart, field "image")
func (h *AuthHandler) LoginWithFace(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		utils.ResponseError(w, http.StatusBadRequest, "ValidationFailed", "Image is required")
		return
	}

	cleanup, err := parseUpload(w, r, h.maxImage)
	defer cleanup()
	if err != nil {
		h.badUpload(w, err)
		return
	}

	file, err := formImage(r)
	if err != nil {
		h.badUpload(w, err)
		return
	}
	defer file.Close()

	resp, err := h.service.LoginWithFace(r.Context(), file)
	if err != nil {
		handleServiceError(w, h.log, err, "login with face")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// ForgotPassword handles POST /api/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		validationFailed(w, validationErrors)
		return
	}

	if err := h.password.ForgotPassword(r.Context(), &req); err != nil {
		handleServiceError(w, h.log, err, "forgot password")
		return
	}

	utils.ResponseSuccess(w, "Password reset email sent successfully.", nil)
}

// ResetPassword handles POST /api/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	req.Token = chi.URLParam(r, "token")

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		validationFailed(w, validationErrors)
		return
	}

	if err := h.password.ResetPassword(r.Context(), &req); err != nil {
		handleServiceError(w, h.log, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password reset successful.", nil)
}

func (h *AuthHandler) badUpload(w http.ResponseWriter, err error) {
	switch {
	case err == errMissingImage:
		utils.ResponseError(w, http.StatusBadRequest, "ValidationFailed", "Image is required")
	case isTooLarge(err):
		utils.ResponseError(w, http.StatusBadRequest, "UnsupportedImage", "Image is too large")
	default:
		h.log.Debug("Malformed upload", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid multipart form", nil)
	}
}
