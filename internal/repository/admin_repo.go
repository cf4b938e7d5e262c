package repository

import (
	"context"

	"github.com/danifc123/CorretoraJennisson/internal/models"
)

type AdminRepository struct {
	db DBTX
}

func NewAdminRepository(db DBTX) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `
		SELECT id, nome, email, password_hash, created_at
		FROM administradores
		WHERE email = $1
	`
	var admin models.Admin
	err := r.db.QueryRow(ctx, query, email).
		Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	query := `
		SELECT id, nome, email, password_hash, created_at
		FROM administradores
		WHERE id = $1
	`
	var admin models.Admin
	err := r.db.QueryRow(ctx, query, id).
		Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
