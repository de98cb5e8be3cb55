package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	Onboarded      bool      `json:"onboarded"`
	AccountUpdated time.Time `json:"account_updated"`
	CreatedAt      time.Time `json:"created_at"`
}
