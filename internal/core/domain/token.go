package domain

import "time"

// Claims is the verified payload of a bearer token.
type Claims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}
