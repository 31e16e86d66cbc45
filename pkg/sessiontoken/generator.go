package sessiontoken

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims struct for session JWT claims
type Claims struct {
	Realm             string                 `json:"realm,omitempty"`
	SessionProperties map[string]interface{} `json:"session_properties,omitempty"`
	jwt.RegisteredClaims
}

// Generator signs and parses HS256 session tokens
type Generator struct {
	Secret   string
	Issuer   string
	Audience string
	Expiry   time.Duration
}

// NewGenerator creates a new Generator
func NewGenerator(secret, issuer, audience string, expiry time.Duration) *Generator {
	return &Generator{
		Secret:   secret,
		Issuer:   issuer,
		Audience: audience,
		Expiry:   expiry,
	}
}

// GenerateToken creates a token for subject carrying properties as claims
func (g *Generator) GenerateToken(subject, realm string, properties map[string]interface{}) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := Claims{
		Realm:             realm,
		SessionProperties: properties,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Minute)),
			Issuer:    g.Issuer,
			Subject:   subject,
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{g.Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(g.Secret))
	if err != nil {
		slog.Error("Failed sign JWT Claim string!", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// ParseToken parses and validates a session token string
func (g *Generator) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(g.Secret), nil
	},
		jwt.WithIssuer(g.Issuer),
		jwt.WithAudience(g.Audience),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("session token is invalid")
	}
	return claims, nil
}
