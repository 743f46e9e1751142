// Package system holds the handlers that are not tied to a resource: the
// welcome page and the liveness probe.
package system

import (
	"net/http"

	"github.com/personas-team/personas-api/internal/utils/response"
)

// Welcome is the static payload served at GET /.
type Welcome struct {
	Message     string `json:"message"`
	Description string `json:"description"`
	Docs        string `json:"docs"`
}

var welcome = Welcome{
	Message:     "Welcome to the Team Personas API!",
	Description: "Manage team members with id, name, age and role",
	Docs:        "/personas/",
}

// Root handles GET /.
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, welcome)
	}
}

// Health handles GET /health. It does not touch the database: it answers
// whether the process is serving HTTP, nothing more.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
