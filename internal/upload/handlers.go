package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Techcurators-fsdteam/mamagadhi-app/internal/profile"
)

// DocumentStore records an uploaded object's public URL against the right
// profile entity.
type DocumentStore interface {
	UpdateUserProfile(ctx context.Context, userID string, u profile.Update) (*profile.UserProfile, error)
	UpsertDriverDocument(ctx context.Context, userID string, doc profile.DocumentType, publicURL string) error
}

// DeviceFlagger marks the submitting device driver-verified once a driver
// document is recorded. The guard's flag stores satisfy it.
type DeviceFlagger interface {
	SetDriverVerified(ctx context.Context, deviceID string) error
}

type Handler struct {
	presigner      Presigner
	store          DocumentStore
	flags          DeviceFlagger
	publicEndpoint string
	bucket         string
}

func NewHandler(presigner Presigner, store DocumentStore, flags DeviceFlagger, publicEndpoint, bucket string) *Handler {
	return &Handler{
		presigner:      presigner,
		store:          store,
		flags:          flags,
		publicEndpoint: publicEndpoint,
		bucket:         bucket,
	}
}

type uploadURLRequest struct {
	UserID       string `json:"user_id"`
	DocumentType string `json:"document_type"`
	UUID         string `json:"uuid"`
	Filetype     string `json:"filetype"`
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Key       string `json:"key"`
}

// GetUploadURLHandler hands out a signed PUT URL. The storage key embeds
// the document type, user id, a caller-generated uuid, and the extension
// derived from the MIME subtype.
func (h *Handler) GetUploadURLHandler(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request format"})
		return
	}

	if req.UserID == "" || req.DocumentType == "" || req.UUID == "" || req.Filetype == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing fields"})
		return
	}
	if !profile.ValidDocumentType(profile.DocumentType(req.DocumentType)) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid document_type"})
		return
	}

	ext := req.Filetype
	if i := strings.LastIndex(req.Filetype, "/"); i >= 0 {
		ext = req.Filetype[i+1:]
	}
	key := fmt.Sprintf("%s/%s_%s.%s", req.DocumentType, req.UserID, req.UUID, ext)

	uploadURL, err := h.presigner.PresignPut(r.Context(), key, req.Filetype)
	if err != nil {
		log.Println("Error presigning upload URL:", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to create upload URL"})
		return
	}

	// Public URL includes the bucket name.
	publicURL := fmt.Sprintf("%s/%s/%s", h.publicEndpoint, h.bucket, key)

	writeJSON(w, http.StatusOK, uploadURLResponse{
		UploadURL: uploadURL,
		PublicURL: publicURL,
		Key:       key,
	})
}

type recordRequest struct {
	UserID       string `json:"user_id"`
	DocumentType string `json:"document_type"`
	PublicURL    string `json:"publicUrl"`
	// DeviceID, when present on a driver document, marks that device
	// driver-verified in the flag cache.
	DeviceID string `json:"device_id"`
}

// UploadDocumentHandler links an already-uploaded object to the profile:
// `profile` updates the photo URL, `dl`/`id` upsert the driver row keeping
// the other document column intact.
func (h *Handler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request format"})
		return
	}

	if req.UserID == "" || req.DocumentType == "" || req.PublicURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing fields"})
		return
	}

	var err error
	switch profile.DocumentType(req.DocumentType) {
	case profile.DocumentProfile:
		_, err = h.store.UpdateUserProfile(r.Context(), req.UserID, profile.Update{ProfileURL: &req.PublicURL})
	case profile.DocumentDL, profile.DocumentID:
		err = h.store.UpsertDriverDocument(r.Context(), req.UserID, profile.DocumentType(req.DocumentType), req.PublicURL)
		if err == nil && h.flags != nil && req.DeviceID != "" {
			// Best-effort; the user can re-verify on this device.
			if ferr := h.flags.SetDriverVerified(r.Context(), req.DeviceID); ferr != nil {
				log.Println("Error setting driver-verified flag:", ferr)
			}
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid document_type"})
		return
	}

	if err != nil {
		log.Println("Error recording document URL:", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
