package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo lectura de perfiles sobre PostgreSQL.
type ProfileRepo struct {
	q Querier
}

// NewProfileRepository construye el adaptador de perfiles.
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

// GetByUserID obtiene el perfil del usuario; (nil, nil) si no existe.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	query := `
		SELECT user_id, company_id, full_name, role, created_at, updated_at
		FROM profiles WHERE user_id = $1`
	var p entity.Profile
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.CompanyID, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Upsert crea o actualiza un perfil (alta de usuarios y datos de prueba).
func (r *ProfileRepo) Upsert(ctx context.Context, p *entity.Profile) error {
	query := `
		INSERT INTO profiles (user_id, company_id, full_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET company_id = EXCLUDED.company_id, full_name = EXCLUDED.full_name,
			role = EXCLUDED.role, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, p.UserID, p.CompanyID, p.FullName, p.Role, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
