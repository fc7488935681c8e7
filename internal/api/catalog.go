package api

import (
	"net/http"

	"github.com/erazemk/garancija/internal/model"
	"github.com/erazemk/garancija/internal/warranty"
)

// Conditions handles GET /api/conditions/{type}.
func Conditions(w http.ResponseWriter, r *http.Request) {
	t := model.CoverageType(r.PathValue("type"))
	if !t.Valid() {
		jsonError(w, http.StatusBadRequest, "unknown coverage type")
		return
	}
	jsonResponse(w, http.StatusOK, warranty.DefaultConditions(t))
}

// Providers handles GET /api/providers.
func Providers(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, warranty.Providers())
}
