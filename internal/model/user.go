package model

import "time"

// Role identifiers as stored in usuario.idRol.
const (
	RoleClient = 1
	RoleAdmin  = 2
)

// User represents an application user record as stored in the usuario table.
// Handlers define separate response types with JSON tags; this struct is used
// by the repository layer only.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – 1 CLIENTE, 2 ADMIN.
//  Verified     – whether the email was verified.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // usuario.idUsuario
	Name         string    // usuario.nombreUsuario
	Email        string    // usuario.email
	PasswordHash string    // usuario.contrasena
	RoleID       uint32    // usuario.idRol
	Verified     bool      // usuario.verificado
	CreatedAt    time.Time // usuario.creado
}

// RoleName maps a role id to the string carried in JWT role claims.
func RoleName(roleID uint32) string {
	if roleID == RoleAdmin {
		return "ADMIN"
	}
	return "CLIENTE"
}
