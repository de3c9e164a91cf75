package domain

// Admin is the authenticated administrator identity returned by the backend.
type Admin struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}
