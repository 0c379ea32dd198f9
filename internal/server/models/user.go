package models

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string
	DisplayName  string
	RoleID       int
	IsActive     bool
	CreatedAt    time.Time
}
