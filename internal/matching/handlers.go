// internal/matching/handlers.go

package matching

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/matcha-app/matcha-backend/internal/auth"
	"github.com/matcha-app/matcha-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Browse handles GET /api/profile/browse
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	filters, err := parseBrowseFilters(r)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Browse(r.Context(), viewerID, filters)
	if err != nil {
		switch {
		case errors.Is(err, ErrProfileIncomplete):
			utils.ErrorResponse(w, "Complete your profile (age and gender) before browsing", http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			utils.ErrorResponse(w, "Profile not found", http.StatusNotFound)
		default:
			utils.ErrorResponse(w, "Failed to browse profiles", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, result, http.StatusOK)
}

// Like handles POST /api/profile/like
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	isMatch, err := h.service.Like(r.Context(), userID, req.TargetUserID, *req.IsLike)
	if err != nil {
		switch {
		case errors.Is(err, ErrCannotLikeSelf):
			utils.ErrorResponse(w, "You cannot like yourself", http.StatusBadRequest)
		case errors.Is(err, ErrNoProfilePhoto):
			utils.ErrorResponse(w, "Add a profile photo before liking", http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			utils.ErrorResponse(w, "User not found", http.StatusNotFound)
		case errors.Is(err, ErrBlocked):
			utils.ErrorResponse(w, "Interaction not allowed", http.StatusForbidden)
		default:
			utils.ErrorResponse(w, "Failed to process like", http.StatusInternalServerError)
		}
		return
	}

	message := "Interaction recorded"
	if isMatch {
		message = "It's a match!"
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"isMatch": isMatch,
		"message": message,
	}, http.StatusOK)
}

// Unlike handles DELETE /api/profile/like/{userId}
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	targetID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || targetID <= 0 {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	hadMatch, err := h.service.Unlike(r.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCannotLikeSelf):
			utils.ErrorResponse(w, "You cannot unlike yourself", http.StatusBadRequest)
		default:
			utils.ErrorResponse(w, "Failed to remove like", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, map[string]interface{}{
		"hadMatch": hadMatch,
	}, http.StatusOK)
}

// Block handles POST /api/profile/block
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req BlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Block(r.Context(), userID, req.TargetUserID); err != nil {
		switch {
		case errors.Is(err, ErrCannotBlockSelf):
			utils.ErrorResponse(w, "You cannot block yourself", http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			utils.ErrorResponse(w, "User not found", http.StatusNotFound)
		default:
			utils.ErrorResponse(w, "Failed to block user", http.StatusInternalServerError)
		}
		return
	}

	utils.MessageResponse(w, "User blocked", http.StatusOK)
}

// Report handles POST /api/profile/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Report(r.Context(), userID, req.TargetUserID, req.Reason); err != nil {
		switch {
		case errors.Is(err, ErrCannotBlockSelf):
			utils.ErrorResponse(w, "You cannot report yourself", http.StatusBadRequest)
		case errors.Is(err, ErrUserNotFound):
			utils.ErrorResponse(w, "User not found", http.StatusNotFound)
		default:
			utils.ErrorResponse(w, "Failed to report user", http.StatusInternalServerError)
		}
		return
	}

	utils.MessageResponse(w, "User reported", http.StatusOK)
}

func parseBrowseFilters(r *http.Request) (*BrowseFilters, error) {
	q := r.URL.Query()
	filters := &BrowseFilters{
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if filters.SortBy == "" {
		filters.SortBy = SortDistance
	}
	switch filters.SortBy {
	case SortDistance, SortAge, SortFameRating, SortCommonTags, SortIntelligent:
	default:
		return nil, errors.New("invalid sortBy value")
	}
	if filters.SortOrder != "" && filters.SortOrder != "asc" && filters.SortOrder != "desc" {
		return nil, errors.New("invalid sortOrder value")
	}

	var err error
	if filters.AgeMin, err = parseIntParam(q.Get("ageMin")); err != nil {
		return nil, errors.New("invalid ageMin value")
	}
	if filters.AgeMax, err = parseIntParam(q.Get("ageMax")); err != nil {
		return nil, errors.New("invalid ageMax value")
	}
	if filters.MinFame, err = parseIntParam(q.Get("minFameRating")); err != nil {
		return nil, errors.New("invalid minFameRating value")
	}
	if filters.MaxFame, err = parseIntParam(q.Get("maxFameRating")); err != nil {
		return nil, errors.New("invalid maxFameRating value")
	}

	if raw := q.Get("maxDistance"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || d < 0 {
			return nil, errors.New("invalid maxDistance value")
		}
		filters.MaxDistance = &d
	}

	// Accepts both commonTags=a&commonTags=b and the commonTags[] form
	for _, key := range []string{"commonTags", "commonTags[]"} {
		for _, t := range q[key] {
			if t != "" {
				filters.CommonTags = append(filters.CommonTags, t)
			}
		}
	}

	if filters.AgeMin != nil && filters.AgeMax != nil && *filters.AgeMin > *filters.AgeMax {
		return nil, errors.New("ageMin cannot exceed ageMax")
	}

	return filters, nil
}

func parseIntParam(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, errors.New("invalid integer")
	}
	return &v, nil
}
