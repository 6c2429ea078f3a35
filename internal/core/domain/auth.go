package domain

// Role is the coarse permission level carried in a verified token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// TokenClaims is the identity extracted from a verified bearer token.
// Token issuance lives outside this service; we only verify and scope.
type TokenClaims struct {
	UserID    int64
	Role      Role
	ExpiresAt int64
}

// IsAdmin returns true for administrative claims
func (c *TokenClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
