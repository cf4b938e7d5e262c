package models

import "time"

// Roles carried by the authenticated identity. The chat engine only ever
// distinguishes these two.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User is a client-role identity (tabela usuarios).
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Admin is a staff-role identity (tabela administradores).
type Admin struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
