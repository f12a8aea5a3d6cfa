package entity

import "time"

// Roles válidos para Profile.
const (
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleTechnician = "technician"
)

// Profile perfil del usuario autenticado; define su empresa y su rol.
type Profile struct {
	UserID    string
	CompanyID string
	FullName  string
	Role      string // admin, staff, technician
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanManageStock indica si el rol puede ejecutar operaciones privilegiadas de stock.
func (p *Profile) CanManageStock() bool {
	return p != nil && (p.Role == RoleAdmin || p.Role == RoleStaff)
}
