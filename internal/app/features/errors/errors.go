// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/roomdesk/internal/app/system/auth"
)

// Handler serves the landing endpoints the auth middleware redirects
// browsers to.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

type pageData struct {
	Error    string `json:"error"`
	Role     string `json:"role,omitempty"`
	SignedIn bool   `json:"signedIn"`
	BackURL  string `json:"backUrl"`
}

// Forbidden reports that the signed-in role may not use the page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	role := auth.CurrentRole(r)
	WriteJSON(w, http.StatusForbidden, pageData{
		Error:    "You don't have permission to view this page.",
		Role:     role,
		SignedIn: role != "",
		BackURL:  "/",
	})
}

// Unauthorized reports that a sign-in is needed.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusUnauthorized, pageData{
		Error:   "Please sign in to continue.",
		BackURL: "/login",
	})
}
