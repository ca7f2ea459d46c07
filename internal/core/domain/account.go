package domain

// Role is the access level carried by an account and by its tokens.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Roles lists every role an account may hold.
var Roles = []Role{RoleAdmin, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Account is a stored user identity. ID is assigned by the store on insert
// and never changes; CredentialHash is never the plaintext password.
type Account struct {
	ID             int64  `json:"id"`
	Role           Role   `json:"role"`
	Login          string `json:"login"`
	CredentialHash string `json:"-"`
}
