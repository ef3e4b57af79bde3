package models

// User is a blog account. Password doubles as the request field for
// signup and password changes; handlers blank it before responding.
type User struct {
	ID              int    `json:"id"`
	Username        string `json:"username"`
	Password        string `json:"password,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
}
