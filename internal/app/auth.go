package app

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceSession    = "session"
	audienceOAuthState = "oauth-state"

	ctxUserID = "user_id"
)

var errSigningDisabled = errors.New("token signing is not configured")

// TokenIssuer signs and verifies the HS256 tokens used for sessions and OAuth state.
type TokenIssuer struct {
	Secret     []byte
	SessionTTL time.Duration
	Now        func() time.Time
}

func (t *TokenIssuer) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

func (t *TokenIssuer) sign(subject, audience string, ttl time.Duration) (string, error) {
	if t == nil || len(t.Secret) == 0 {
		return "", errSigningDisabled
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

func (t *TokenIssuer) Session(userID string) (string, error) {
	ttl := t.SessionTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return t.sign(userID, audienceSession, ttl)
}

func (t *TokenIssuer) OAuthState(userID string) (string, error) {
	return t.sign(userID, audienceOAuthState, 10*time.Minute)
}

// Verify checks signature, expiry and audience, and returns the subject.
func (t *TokenIssuer) Verify(tokenStr, audience string) (string, error) {
	if t == nil || len(t.Secret) == 0 {
		return "", errSigningDisabled
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithLeeway(5*time.Second),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// AuthMiddleware accepts session JWTs or static "token:user-id" pairs and stores the caller's
// user id in the gin context.
func AuthMiddleware(tokens *TokenIssuer, staticTokens []string) gin.HandlerFunc {
	static := make(map[string]string)
	for _, entry := range staticTokens {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, userID, _ := strings.Cut(entry, ":")
		static[token] = userID
	}

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		if userID, err := tokens.Verify(tokenStr, audienceSession); err == nil {
			c.Set(ctxUserID, userID)
			c.Next()
			return
		}

		if userID, ok := static[tokenStr]; ok && userID != "" {
			c.Set(ctxUserID, userID)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

func userIDFrom(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
