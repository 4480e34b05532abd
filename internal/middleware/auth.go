package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"turing-backend/internal/models"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Auth verifies the bearer token minted by the upstream login flow and
// gates access by email domain. The token is the source of truth for who
// is playing; downstream code reads the Identity from the context.
type Auth struct {
	Secret        []byte
	AllowedDomain string // empty disables the domain gate
}

func NewAuth(secret, allowedDomain string) *Auth {
	return &Auth{Secret: []byte(secret), AllowedDomain: strings.ToLower(allowedDomain)}
}

// GenerateToken creates a signed identity token. Used by tests and local
// development; production tokens come from the identity provider.
func (a *Auth) GenerateToken(identity models.Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"email":       identity.Email,
		"name":        identity.Name,
		"given_name":  identity.GivenName,
		"family_name": identity.FamilyName,
		"exp":         time.Now().Add(ttl).Unix(),
		"iat":         time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// VerifyToken authenticates a raw token string, enforcing the same domain
// gate as the middleware. Used by the game socket, where the token arrives
// as a query parameter instead of a header.
func (a *Auth) VerifyToken(tokenStr string) (models.Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.Secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, errors.New("invalid token claims")
	}

	identity := identityFromClaims(claims)
	if identity.Email == "" {
		return models.Identity{}, errors.New("token carries no email")
	}
	if a.AllowedDomain != "" &&
		!strings.HasSuffix(strings.ToLower(identity.Email), "@"+a.AllowedDomain) {
		return models.Identity{}, errors.New("email domain not allowed")
	}
	return identity, nil
}

// Middleware validates the token and attaches the player's Identity to the
// request context. Accounts outside the allowed email domain are rejected.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization format", r)
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.Secret, nil
		})
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			}
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token claims", r)
			return
		}

		identity := identityFromClaims(claims)
		if identity.Email == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token carries no email", r)
			return
		}

		if a.AllowedDomain != "" &&
			!strings.HasSuffix(strings.ToLower(identity.Email), "@"+a.AllowedDomain) {
			writeError(w, http.StatusForbidden, "FORBIDDEN",
				"Only @"+a.AllowedDomain+" accounts may play", r)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFromClaims(claims jwt.MapClaims) models.Identity {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	return models.Identity{
		Email:      str("email"),
		Name:       str("name"),
		GivenName:  str("given_name"),
		FamilyName: str("family_name"),
	}
}

// GetIdentity extracts the authenticated player from the request context.
func GetIdentity(ctx context.Context) models.Identity {
	identity, _ := ctx.Value(IdentityKey).(models.Identity)
	return identity
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}
