package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/create-profile", h.CreateProfileHandler)
	r.Get("/get-profile", h.GetProfileHandler)
	r.Patch("/update-profile", h.UpdateProfileHandler)

	return r
}
