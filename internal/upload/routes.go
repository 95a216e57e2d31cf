package upload

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/get-upload-url", h.GetUploadURLHandler)
	r.Post("/upload-document", h.UploadDocumentHandler)

	return r
}
