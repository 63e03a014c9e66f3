package domain

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// Session is resolved once per request from the bearer token and handed to
// every service call that needs the caller's identity or role.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Token  string `json:"-"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
