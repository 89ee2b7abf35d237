package models

import "time"

// User is the account object the auth endpoints return.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// UserCreate is the POST /api/auth/signup body.
type UserCreate struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserLogin is the POST /api/auth/login body.
type UserLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is the auth exchange response. The token is persisted locally but
// is not attached to analysis or report calls.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user,omitempty"`
}
