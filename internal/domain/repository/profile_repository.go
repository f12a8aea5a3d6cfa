package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ProfileRepository define el puerto de lectura de perfiles (rol y empresa del usuario).
// GetByUserID devuelve (nil, nil) si el perfil no existe.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.Profile, error)
}
