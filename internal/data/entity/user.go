package entity

import "github.com/google/uuid"

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleStaff          UserRole = "staff"
	RoleLabTechnician  UserRole = "lab_technician"
	RoleXrayTechnician UserRole = "xray_technician"
	RoleLocalAdmin     UserRole = "local_admin"
	RoleUser           UserRole = "user"
)

type User struct {
	Base
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password"`
	Phone        *string    `db:"phone"`
	Role         UserRole   `db:"role"`
	AssignedLab  *uuid.UUID `db:"assigned_lab"`
	IsActive     bool       `db:"is_active"`
}
