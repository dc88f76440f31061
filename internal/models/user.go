package models

import "time"

// User представляет зарегистрированного пользователя
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt-хеш, наружу не отдаётся
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicUser минимальная информация о пользователе для API
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// Public возвращает публичный профиль пользователя
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
	}
}
