package models

// Actor is the staff member on whose behalf an action is sent to the backend.
type Actor struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Token string `json:"-"`
}
