// internal/profile/handlers.go

package profile

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/matcha-app/matcha-backend/internal/auth"
	"github.com/matcha-app/matcha-backend/internal/common/utils"
)

// Handler handles profile-related HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates a new profile handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetMyProfile handles GET /api/profile
func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	profile, err := h.service.GetMyProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.ErrorResponse(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to get profile for %d: %v", userID, err)
		utils.ErrorResponse(w, "Failed to get profile", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, profile, http.StatusOK)
}

// UpdateProfile handles PUT /api/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		log.Printf("Failed to update profile for %d: %v", userID, err)
		utils.ErrorResponse(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, profile, http.StatusOK)
}

// GetUserProfile handles GET /api/profile/{userId}.
// Fetching another user's profile records a visit (once per calendar day).
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.GetUserIDFromContext(r.Context())

	targetID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), targetID, viewerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrProfileNotFound):
			utils.ErrorResponse(w, "Profile not found", http.StatusNotFound)
		case errors.Is(err, ErrUserBlocked):
			utils.ErrorResponse(w, "User is blocked", http.StatusForbidden)
		default:
			log.Printf("Failed to get profile %d for viewer %d: %v", targetID, viewerID, err)
			utils.ErrorResponse(w, "Failed to get profile", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, profile, http.StatusOK)
}

// AddPhoto handles POST /api/profile/photos
func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req AddPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	photo, err := h.service.AddPhoto(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooManyPhotos):
			utils.ErrorResponse(w, "Photo limit reached", http.StatusBadRequest)
		case errors.Is(err, ErrInvalidImageFormat):
			utils.ErrorResponse(w, "Invalid image data", http.StatusBadRequest)
		default:
			log.Printf("Failed to add photo for %d: %v", userID, err)
			utils.ErrorResponse(w, "Failed to add photo", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, photo, http.StatusCreated)
}

// GetPhotos handles GET /api/profile/photos
func (h *Handler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	photos, err := h.service.GetPhotos(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to list photos for %d: %v", userID, err)
		utils.ErrorResponse(w, "Failed to get photos", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, map[string]interface{}{
		"photos": photos,
		"count":  len(photos),
	}, http.StatusOK)
}

// DeletePhoto handles DELETE /api/profile/photos/{id}
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	photoID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid photo ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeletePhoto(r.Context(), userID, photoID); err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			utils.ErrorResponse(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to delete photo %d for %d: %v", photoID, userID, err)
		utils.ErrorResponse(w, "Failed to delete photo", http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Photo deleted", http.StatusOK)
}

// SetProfilePicture handles PUT /api/profile/photos/{id}/primary
func (h *Handler) SetProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	photoID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid photo ID", http.StatusBadRequest)
		return
	}

	if err := h.service.SetProfilePicture(r.Context(), userID, photoID); err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			utils.ErrorResponse(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Printf("Failed to set profile picture %d for %d: %v", photoID, userID, err)
		utils.ErrorResponse(w, "Failed to set profile picture", http.StatusInternalServerError)
		return
	}

	utils.MessageResponse(w, "Profile picture updated", http.StatusOK)
}

// GetVisitors handles GET /api/profile/visitors
func (h *Handler) GetVisitors(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	visits, err := h.service.GetVisitors(r.Context(), userID, limit)
	if err != nil {
		log.Printf("Failed to list visitors for %d: %v", userID, err)
		utils.ErrorResponse(w, "Failed to get visitors", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, map[string]interface{}{
		"visitors": visits,
		"count":    len(visits),
	}, http.StatusOK)
}
