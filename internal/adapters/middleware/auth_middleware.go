package middleware

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
)

// AuthMiddleware extracts the caller's principal from the session
// provider's RS256 token. The token is untrusted input: the id, role
// and teamManagerType claims feed authorization checks downstream,
// never client-supplied body fields.
type AuthMiddleware struct {
	publicKey   *rsa.PublicKey
	redisClient *redis.Client
}

func NewAuthMiddleware(publicKey *rsa.PublicKey, redisClient *redis.Client) *AuthMiddleware {
	return &AuthMiddleware{
		publicKey:   publicKey,
		redisClient: redisClient,
	}
}

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom returns the authenticated principal stored by
// RequireRole. The zero Principal means the request never passed the
// middleware.
func PrincipalFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey).(domain.Principal)
	return p
}

// RequireRole admits only callers whose role claim is in roles.
func (m *AuthMiddleware) RequireRole(roles []domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		tokenString := parts[1]

		if m.isBlacklisted(r.Context(), tokenString) {
			http.Error(w, "token revoked", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.publicKey, nil
		})
		if err != nil || !token.Valid {
			log.Printf("auth: token rejected: %v", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		principal, err := principalFromClaims(claims)
		if err != nil {
			log.Printf("auth: %v", err)
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		allowed := false
		for _, role := range roles {
			if principal.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			log.Printf("auth: role %s not in %v", principal.Role, roles)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next(w, r.WithContext(ctx))
	}
}

func principalFromClaims(claims jwt.MapClaims) (domain.Principal, error) {
	var p domain.Principal

	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || id == 0 {
			return p, jwt.ErrTokenInvalidSubject
		}
		p.ID = id
	case float64:
		p.ID = int64(sub)
	default:
		return p, jwt.ErrTokenInvalidSubject
	}
	if p.ID == 0 {
		return p, jwt.ErrTokenInvalidSubject
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return p, jwt.ErrTokenInvalidClaims
	}
	p.Role = domain.Role(role)

	if tm, ok := claims["teamManagerType"].(string); ok {
		p.TeamManagerType = domain.TeamManagerType(tm)
	}
	return p, nil
}

// isBlacklisted consults the revocation list kept by the session
// provider. Redis being down fails open: liveness of the whole API is
// worth more than instant revocation.
func (m *AuthMiddleware) isBlacklisted(ctx context.Context, token string) bool {
	if m.redisClient == nil {
		return false
	}
	sum := sha256.Sum256([]byte(token))
	n, err := m.redisClient.Exists(ctx, "token_blacklist:"+hex.EncodeToString(sum[:])).Result()
	if err != nil {
		log.Printf("auth: blacklist check failed: %v", err)
		return false
	}
	return n > 0
}
