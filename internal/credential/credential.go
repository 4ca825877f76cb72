// Package credential classifies bearer tokens before they are allowed to open
// a realtime connection. Tokens are decoded locally without verifying the
// signature; the broker is the party that verifies them.
package credential

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chatwire/internal/logging"
)

type Kind int

const (
	NoCredential Kind = iota
	Valid
)

func (k Kind) String() string {
	switch k {
	case Valid:
		return "valid"
	default:
		return "none"
	}
}

// IdentityClaim selects which claim identifies the logical user of a session.
type IdentityClaim string

const (
	ClaimSubject IdentityClaim = "sub"
	ClaimIssuer  IdentityClaim = "iss"
)

func ParseIdentityClaim(raw string) (IdentityClaim, error) {
	switch IdentityClaim(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ClaimSubject:
		return ClaimSubject, nil
	case ClaimIssuer:
		return ClaimIssuer, nil
	default:
		return "", fmt.Errorf("unsupported identity claim %q (use sub or iss)", raw)
	}
}

type Credential struct {
	Kind      Kind
	Raw       string
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	// Identity is the value of the configured identity claim. Two credentials
	// with the same Identity belong to the same logical session.
	Identity string
}

func (c Credential) Valid() bool {
	return c.Kind == Valid
}

// Gate turns raw token strings into Credentials.
type Gate struct {
	Claim  IdentityClaim
	Now    func() time.Time
	Logger *logging.Logger
}

func (g Gate) Inspect(raw string) Credential {
	token := strings.TrimSpace(raw)
	if rest, ok := cutBearer(token); ok {
		token = rest
	}
	if token == "" {
		return Credential{}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		g.Logger.Debug("ignoring undecodable credential", logging.Field("error", err))
		return Credential{}
	}
	if claims.ExpiresAt == nil {
		g.Logger.Debug("ignoring credential without expiry")
		return Credential{}
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	expiresAt := claims.ExpiresAt.Time
	if !expiresAt.After(now()) {
		g.Logger.Debug("ignoring expired credential",
			logging.Field("subject", claims.Subject),
			logging.Field("expired_at", expiresAt.UTC().Format(time.RFC3339)),
		)
		return Credential{}
	}

	identity := claims.Subject
	if g.Claim == ClaimIssuer {
		identity = claims.Issuer
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		g.Logger.Debug("ignoring credential without identity claim", logging.Field("claim", string(g.claim())))
		return Credential{}
	}

	return Credential{
		Kind:      Valid,
		Raw:       token,
		Subject:   claims.Subject,
		Issuer:    claims.Issuer,
		ExpiresAt: expiresAt,
		Identity:  identity,
	}
}

func (g Gate) claim() IdentityClaim {
	if g.Claim == "" {
		return ClaimSubject
	}
	return g.Claim
}

func cutBearer(token string) (string, bool) {
	const prefix = "bearer "
	if len(token) < len(prefix) || !strings.EqualFold(token[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(token[len(prefix):]), true
}
