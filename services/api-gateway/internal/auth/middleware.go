package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Clé privée pour le contexte (évite les collisions)
type contextKey struct{ name string }

var userCtxKey = &contextKey{"user_id"}

// UserClaims : les tokens sont émis par le fournisseur d'identité externe.
type UserClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Verifier valide les access tokens RS256 avec la clé publique du fournisseur.
type Verifier struct {
	publicKey *rsa.PublicKey
	issuer    string
}

func NewVerifier(publicKeyPEM []byte, issuer string) (*Verifier, error) {
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &Verifier{publicKey: pubKey, issuer: issuer}, nil
}

// Validate vérifie la signature et retourne l'ID du viewer.
func (v *Verifier) Validate(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// L'alg doit être RSA : refuse "none" et HS256 signé avec la clé publique
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}, opts...)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}
	return "", errors.New("token has no subject")
}

// Middleware décode le header Authorization. Sans header la requête reste anonyme :
// c'est aux handlers d'exiger un viewer.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			// 1. Pas de header ? Viewer anonyme (le feed forYou marche sans compte)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			// 2. Validation du format "Bearer <token>"
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				http.Error(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			// 3. Vérification locale de la signature
			userID, err := v.Validate(tokenStr)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// 4. Succès : On injecte l'ID utilisateur dans le contexte
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userCtxKey, userID)
}

// ForContext est un helper pour récupérer l'ID utilisateur depuis un handler
func ForContext(ctx context.Context) string {
	raw, _ := ctx.Value(userCtxKey).(string)
	return raw
}
