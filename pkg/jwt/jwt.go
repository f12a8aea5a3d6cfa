package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"` // "admin" | "staff" | "technician"
}

// Identity datos del llamador extraídos de un token válido.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string
}

// Generate genera un token JWT HS256 firmado para la identidad indicada.
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:    id.UserID,
		CompanyID: id.CompanyID,
		Role:      id.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve la identidad del token.
// Si el claim user_id viene vacío se usa el subject.
func Parse(secret, tokenString string) (Identity, error) {
	if secret == "" {
		return Identity{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("claims inválidos")
	}
	id := Identity{UserID: claims.UserID, CompanyID: claims.CompanyID, Role: claims.Role}
	if id.UserID == "" {
		id.UserID = claims.Subject
	}
	if id.UserID == "" {
		return Identity{}, fmt.Errorf("token sin sujeto")
	}
	return id, nil
}
