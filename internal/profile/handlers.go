package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ProfileStore is the narrow surface the HTTP handlers need; the gorm Store
// satisfies it, tests plug in mocks.
type ProfileStore interface {
	CreateUserProfile(ctx context.Context, p *UserProfile) (*UserProfile, error)
	GetUserProfile(ctx context.Context, userID string) (*UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID string, u Update) (*UserProfile, error)
}

type Handler struct {
	store    ProfileStore
	validate *validator.Validate
}

func NewHandler(store ProfileStore) *Handler {
	return &Handler{
		store:    store,
		validate: validator.New(),
	}
}

type createProfileRequest struct {
	ID              string `json:"id" validate:"required"`
	Email           string `json:"email" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DisplayName     string `json:"display_name"`
	Role            Role   `json:"role"`
	IsEmailVerified bool   `json:"is_email_verified"`
	IsPhoneVerified bool   `json:"is_phone_verified"`
}

func (h *Handler) CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	role := req.Role
	if role == "" {
		role = RolePassenger
	}

	created, err := h.store.CreateUserProfile(r.Context(), &UserProfile{
		ID:              req.ID,
		Email:           req.Email,
		Phone:           req.Phone,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		DisplayName:     req.DisplayName,
		Role:            role,
		IsEmailVerified: req.IsEmailVerified,
		IsPhoneVerified: req.IsPhoneVerified,
	})
	if err != nil {
		log.Println("Error creating user profile:", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user profile")
		return
	}

	writeData(w, http.StatusCreated, created)
}

func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	p, err := h.store.GetUserProfile(r.Context(), userID)
	if errors.Is(err, ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "User profile not found")
		return
	}
	if err != nil {
		log.Println("Error fetching user profile:", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeData(w, http.StatusOK, p)
}

type updateProfileRequest struct {
	UserID          string  `json:"user_id" validate:"required"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	DisplayName     *string `json:"display_name"`
	Phone           *string `json:"phone"`
	Role            *Role   `json:"role"`
	IsEmailVerified *bool   `json:"is_email_verified"`
}

func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	updated, err := h.store.UpdateUserProfile(r.Context(), req.UserID, Update{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		DisplayName:     req.DisplayName,
		Phone:           req.Phone,
		Role:            req.Role,
		IsEmailVerified: req.IsEmailVerified,
	})
	if errors.Is(err, ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "User profile not found")
		return
	}
	if err != nil {
		log.Println("Error updating user profile:", err)
		writeError(w, http.StatusInternalServerError, "Failed to update user profile")
		return
	}

	writeData(w, http.StatusOK, updated)
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
