package http

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// Locals keys para UserID, CompanyID y Role en Fiber.
const (
	LocalUserID    = "user_id"
	LocalCompanyID = "company_id"
	LocalRole      = "role"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID, CompanyID y Role a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, code, msg := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalCompanyID, id.CompanyID)
		c.Locals(LocalRole, id.Role)
		return c.Next()
	}
}

// bearerToken extrae el token del header Authorization; si falta devuelve código y mensaje de error.
func bearerToken(c *fiber.Ctx) (token, code, msg string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", "MISSING_TOKEN", "Authorization header requerido"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "INVALID_TOKEN", "formato: Bearer <token>"
	}
	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "MISSING_TOKEN", "token vacío"
	}
	return token, "", ""
}

// RequireRole autoriza según el claim role del token. Usar después de AuthMiddleware.
// Token sin rol → 401 MISSING_ROLE; rol no permitido → 403 FORBIDDEN.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if !slices.Contains(roles, role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetCompanyID devuelve el CompanyID del contexto (después del middleware de auth).
func GetCompanyID(c *fiber.Ctx) string {
	return localString(c, LocalCompanyID)
}

// GetRole devuelve el rol del contexto.
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
