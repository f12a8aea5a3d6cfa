package http

import (
	"context"
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// profileReader es el contrato mínimo que necesita el middleware para leer el perfil.
// Lo implementan los repositorios de perfiles y la caché Redis.
type profileReader interface {
	GetByUserID(ctx context.Context, userID string) (*entity.Profile, error)
}

// RequireProfileRole protege las funciones privilegiadas: valida el Bearer Token y autoriza
// con el rol guardado en el perfil del usuario, no con el claim del token.
// La empresa del perfil reemplaza a la del token. Errores en formato {"error": "..."}.
//
// Comportamiento:
//   - 401 → sin token o token inválido.
//   - 403 → perfil inexistente o rol no permitido.
//   - 500 → fallo al consultar el perfil.
func RequireProfileRole(jwtSecret string, profiles profileReader, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, _, msg := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.FunctionError{Error: msg})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil || id.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.FunctionError{Error: "token inválido o expirado"})
		}

		profile, err := profiles.GetByUserID(c.UserContext(), id.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.FunctionError{Error: "no se pudo verificar el perfil"})
		}
		if profile == nil || !slices.Contains(roles, profile.Role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.FunctionError{Error: "rol sin permiso para esta operación"})
		}

		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalCompanyID, profile.CompanyID)
		c.Locals(LocalRole, profile.Role)
		return c.Next()
	}
}
