package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// RejoinService issues and verifies signed rejoin tokens. A participant who
// disconnects mid-match presents the token to re-locate their live match
// without going back through matchmaking.
type RejoinService struct {
	secret string
	issuer string
	ttl    time.Duration
}

// DefaultRejoinTTL bounds how long a disconnected participant can come back.
const DefaultRejoinTTL = 10 * time.Minute

// NewRejoinService constructs a RejoinService. ttl <= 0 selects the default.
func NewRejoinService(secret, issuer string, ttl time.Duration) *RejoinService {
	if ttl <= 0 {
		ttl = DefaultRejoinTTL
	}
	return &RejoinService{secret: secret, issuer: issuer, ttl: ttl}
}

// GenerateToken signs a rejoin claim binding the user to the match.
func (s *RejoinService) GenerateToken(userID, matchID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("rejoin service is nil")
	}
	if userID == "" || matchID == "" {
		return "", fmt.Errorf("userID and matchID are required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("rejoin config is incomplete")
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"mid": matchID,
		"exp": time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken checks the signature, issuer, and expiry of a rejoin token and
// returns the match id it is bound to. userID must match the token subject.
func (s *RejoinService) VerifyToken(userID, tokenString string) (string, error) {
	if s == nil || s.secret == "" {
		return "", fmt.Errorf("rejoin service not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse rejoin token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("rejoin token invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("rejoin token claims malformed")
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return "", fmt.Errorf("rejoin token issuer mismatch")
	}
	if sub, _ := claims["sub"].(string); sub != userID {
		return "", fmt.Errorf("rejoin token subject mismatch")
	}
	matchID, _ := claims["mid"].(string)
	if matchID == "" {
		return "", fmt.Errorf("rejoin token missing match id")
	}
	return matchID, nil
}
