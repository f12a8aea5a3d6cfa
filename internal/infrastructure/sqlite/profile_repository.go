package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo perfiles sobre SQLite.
type ProfileRepo struct {
	q Querier
}

// NewProfileRepository construye el adaptador de perfiles.
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

// GetByUserID (nil, nil) si el perfil no existe.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	var (
		p                    entity.Profile
		createdAt, updatedAt int64
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT user_id, company_id, full_name, role, created_at, updated_at FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.CompanyID, &p.FullName, &p.Role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.CreatedAt = fromNanos(createdAt)
	p.UpdatedAt = fromNanos(updatedAt)
	return &p, nil
}

// Upsert crea o actualiza un perfil.
func (r *ProfileRepo) Upsert(ctx context.Context, p *entity.Profile) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO profiles (user_id, company_id, full_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET company_id = excluded.company_id, full_name = excluded.full_name,
			role = excluded.role, updated_at = excluded.updated_at`,
		p.UserID, p.CompanyID, p.FullName, p.Role, toNanos(p.CreatedAt), toNanos(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
