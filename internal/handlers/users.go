package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/auth"
	"github.com/vibelab/backend/internal/logging"
	"github.com/vibelab/backend/internal/users"
)

// UserHandler implements registration and profile endpoints.
type UserHandler struct {
	Users UserService
}

type registerRequest struct {
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProfilePhoto string `json:"profile_photo"`
	Password     string `json:"password"`
	Password2    string `json:"password2"`
}

type profileRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	ProfilePhoto *string `json:"profile_photo"`
	Password     *string `json:"password"`
	Password2    *string `json:"password2"`
}

// Register handles POST /api/users/register/.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.Register(ctx, users.RegisterInput{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ProfilePhoto: req.ProfilePhoto,
		Password:     req.Password,
		Password2:    req.Password2,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newUserView(user))
}

// Profile handles GET /api/users/profile/.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	user, err := h.Users.Profile(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

// UpdateProfile handles PATCH /api/users/profile/.
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.UpdateProfile(ctx, userID, users.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ProfilePhoto: req.ProfilePhoto,
		Password:     req.Password,
		Password2:    req.Password2,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

// UploadPhoto handles PUT /api/users/profile/photo with a multipart "photo" field.
func (h UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	userID, _ := auth.UserIDFromContext(ctx)

	limit := h.Users.MaxPhotoBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDetail(ctx, w, http.StatusRequestEntityTooLarge, apperror.KindValidation, "photo is too large")
			return
		}
		logger.Warn("invalid photo upload", "error", err)
		respondError(ctx, w, apperror.Validation("multipart form with a photo field is required"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(ctx, w, apperror.Validation("photo is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(ctx, w, apperror.Validation("photo must be an image"))
		return
	}

	user, err := h.Users.UploadPhoto(ctx, userID, contentType, header.Size, file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newUserView(user))
}

// CheckUsername handles GET /api/users/check-username/?username=.
func (h UserHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	available, err := h.Users.UsernameAvailable(ctx, r.URL.Query().Get("username"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]bool{"available": available})
}
