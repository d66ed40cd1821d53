// internal/models/auth.go
package models

// AuthProfile is the body of GET /api/auth/me.
type AuthProfile struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"id,omitempty"`
	Role          string `json:"role,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	MiddleName    string `json:"middleName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
}

// Credentials are forwarded verbatim on every backend call.
type Credentials struct {
	Cookie      string `json:"-"`
	BearerToken string `json:"-"`
}
