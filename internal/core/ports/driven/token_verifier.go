package driven

import "github.com/vectoria-labs/vectoria-core/internal/core/domain"

// TokenVerifier validates bearer tokens issued by the external auth
// system and extracts the tenant identity. Issuance is not our concern.
type TokenVerifier interface {
	// ParseToken validates a JWT and extracts domain claims
	ParseToken(tokenString string) (*domain.TokenClaims, error)
}
