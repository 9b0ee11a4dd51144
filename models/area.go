package models

// Area is a section of the floor (terrace, bar, main room) used to label
// reservations.
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
